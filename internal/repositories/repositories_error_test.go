package repositories

import (
	"errors"
	"testing"

	"github.com/desertthunder/upl/internal/models"
)

func TestIngestRunRepositoryErrors(t *testing.T) {
	t.Run("Create", func(t *testing.T) {
		t.Run("ValidationError", func(t *testing.T) {
			db := setupTestDB(t)
			defer db.Close()

			repo := NewIngestRunRepository(db)
			run := models.NewIngestRun(0, "", 1)

			if err := repo.Create(run); err == nil {
				t.Fatal("expected validation error for empty playlist name")
			}
		})
	})

	t.Run("Get", func(t *testing.T) {
		t.Run("NotFound", func(t *testing.T) {
			db := setupTestDB(t)
			defer db.Close()

			repo := NewIngestRunRepository(db)

			_, err := repo.Get("nonexistent-id")
			if !errors.Is(err, ErrRunNotFound) {
				t.Fatalf("expected ErrRunNotFound, got %v", err)
			}
		})

		t.Run("SequenceNotFound", func(t *testing.T) {
			db := setupTestDB(t)
			defer db.Close()

			repo := NewIngestRunRepository(db)

			if _, err := repo.GetBySequence(99); !errors.Is(err, ErrRunNotFound) {
				t.Fatalf("expected ErrRunNotFound, got %v", err)
			}
		})
	})

	t.Run("Update", func(t *testing.T) {
		t.Run("NotFound", func(t *testing.T) {
			db := setupTestDB(t)
			defer db.Close()

			repo := NewIngestRunRepository(db)
			run := models.NewIngestRun(1, "Upl Playlist", 1)
			run.SetID("nonexistent-id")

			if err := repo.Update(run); !errors.Is(err, ErrRunNotFound) {
				t.Fatalf("expected ErrRunNotFound, got %v", err)
			}
		})

		t.Run("CountersExceedTotal", func(t *testing.T) {
			db := setupTestDB(t)
			defer db.Close()

			repo := NewIngestRunRepository(db)
			run := models.NewIngestRun(0, "Upl Playlist", 1)
			if err := repo.Create(run); err != nil {
				t.Fatalf("failed to create run: %v", err)
			}

			run.Record(models.OutcomeAdded)
			run.Record(models.OutcomeAdded)

			if err := repo.Update(run); err == nil {
				t.Fatal("expected validation error")
			}
		})
	})

	t.Run("Delete", func(t *testing.T) {
		t.Run("AlreadyDeleted", func(t *testing.T) {
			db := setupTestDB(t)
			defer db.Close()

			repo := NewIngestRunRepository(db)
			run := models.NewIngestRun(0, "Upl Playlist", 1)
			if err := repo.Create(run); err != nil {
				t.Fatalf("failed to create run: %v", err)
			}
			if err := repo.Delete(run.ID()); err != nil {
				t.Fatalf("failed to delete run: %v", err)
			}

			if err := repo.Delete(run.ID()); err == nil {
				t.Fatal("expected error deleting twice")
			}
		})
	})
}

func TestIngestItemRepositoryErrors(t *testing.T) {
	t.Run("MissingRun", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewIngestItemRepository(db)
		item := &models.IngestItem{RunID: "nonexistent-id", Outcome: models.OutcomeNoMatch}

		if err := repo.Create(item); err == nil {
			t.Fatal("expected foreign key error")
		}
	})

	t.Run("AddedWithoutURI", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewIngestItemRepository(db)
		item := &models.IngestItem{RunID: "run", Outcome: models.OutcomeAdded}

		if err := repo.Create(item); err == nil {
			t.Fatal("expected validation error")
		}
	})

	t.Run("DuplicatePosition", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		h := NewHistory(db)
		run, err := h.BeginRun("Upl Playlist", 2)
		if err != nil {
			t.Fatalf("failed to begin run: %v", err)
		}

		first := &models.IngestItem{RunID: run.ID(), Position: 0, Outcome: models.OutcomeSkipped}
		if err := h.Items.Create(first); err != nil {
			t.Fatalf("failed to create item: %v", err)
		}

		second := &models.IngestItem{RunID: run.ID(), Position: 0, Outcome: models.OutcomeSkipped}
		if err := h.Items.Create(second); err == nil {
			t.Fatal("expected unique constraint error")
		}
	})
}
