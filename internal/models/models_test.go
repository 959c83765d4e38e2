package models

import (
	"testing"
	"time"
)

func TestCredential(t *testing.T) {
	now := time.Now()

	t.Run("empty credential is unauthenticated", func(t *testing.T) {
		var c Credential
		if c.State(now) != Unauthenticated {
			t.Errorf("expected unauthenticated, got %s", c.State(now))
		}
		if !c.Expired(now) {
			t.Error("absent expiry should count as expired")
		}
	})

	t.Run("future expiry is active", func(t *testing.T) {
		c := NewCredential("access", "refresh", now.Add(time.Hour).UnixMilli())
		if c.State(now) != Active {
			t.Errorf("expected active, got %s", c.State(now))
		}
	})

	t.Run("past expiry is expired", func(t *testing.T) {
		c := NewCredential("access", "refresh", now.Add(-time.Millisecond).UnixMilli())
		if c.State(now) != Expired {
			t.Errorf("expected expired, got %s", c.State(now))
		}
	})

	t.Run("empty refresh token is absent", func(t *testing.T) {
		c := NewCredential("access", "", now.UnixMilli())
		if c.HasRefreshToken() {
			t.Error("expected empty refresh token to be stored as absent")
		}
		if !c.HasAccessToken() {
			t.Error("expected access token")
		}
	})

	t.Run("clone is independent", func(t *testing.T) {
		c := NewCredential("access", "refresh", 42)
		clone := c.Clone()
		*clone.AccessToken = "changed"
		*clone.ExpiresAt = 7

		if *c.AccessToken != "access" || *c.ExpiresAt != 42 {
			t.Error("mutating the clone changed the original")
		}
	})

	t.Run("expiry time", func(t *testing.T) {
		c := NewCredential("access", "refresh", 1700000000000)
		if c.Expiry().UnixMilli() != 1700000000000 {
			t.Errorf("unexpected expiry %v", c.Expiry())
		}
		if !(Credential{}).Expiry().IsZero() {
			t.Error("absent expiry should be the zero time")
		}
	})
}

func TestIngestRun(t *testing.T) {
	t.Run("counts and completes", func(t *testing.T) {
		run := NewIngestRun(1, "Upl Playlist", 3)
		run.Start()
		run.Record(OutcomeAdded)
		run.Record(OutcomeSkipped)
		run.Record(OutcomeFailed)
		run.Complete()

		if run.Status() != RunCompleted {
			t.Errorf("expected completed, got %s", run.Status())
		}
		if run.ItemsAdded() != 1 || run.ItemsSkipped() != 1 || run.ItemsFailed() != 1 {
			t.Errorf("unexpected counters %d/%d/%d", run.ItemsAdded(), run.ItemsSkipped(), run.ItemsFailed())
		}
		if err := run.Validate(); err != nil {
			t.Errorf("expected valid run, got %v", err)
		}
	})

	t.Run("all attempted items failing fails the run", func(t *testing.T) {
		run := NewIngestRun(1, "Upl Playlist", 2)
		run.Record(OutcomeFailed)
		run.Record(OutcomeSkipped)
		run.Complete()

		if run.Status() != RunFailed {
			t.Errorf("expected failed, got %s", run.Status())
		}
	})

	t.Run("validation", func(t *testing.T) {
		run := NewIngestRun(1, "", 0)
		if err := run.Validate(); err == nil {
			t.Error("expected error for missing playlist name")
		}

		run = NewIngestRun(1, "Upl Playlist", 0)
		run.Record(OutcomeAdded)
		if err := run.Validate(); err == nil {
			t.Error("expected error for more outcomes than items")
		}
	})
}

func TestIngestItemValidate(t *testing.T) {
	item := &IngestItem{RunID: "run", Outcome: OutcomeAdded}
	if err := item.Validate(); err == nil {
		t.Error("expected error for added item without uri")
	}

	item.TrackURI = "spotify:track:XYZ"
	if err := item.Validate(); err != nil {
		t.Errorf("expected valid item, got %v", err)
	}

	item.Outcome = "bogus"
	if err := item.Validate(); err == nil {
		t.Error("expected error for unknown outcome")
	}
}
