package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/desertthunder/upl/internal/formatter"
	"github.com/desertthunder/upl/internal/models"
	"github.com/desertthunder/upl/internal/shared"
	"github.com/tidwall/gjson"
	"github.com/urfave/cli/v3"
	"golang.org/x/sync/errgroup"
)

// meOutput is the JSON shape of the me command.
type meOutput struct {
	Profile    *models.Profile   `json:"profile"`
	TopArtists []json.RawMessage `json:"top_artists"`
	TopTracks  []json.RawMessage `json:"top_tracks"`
}

// Me fetches the profile, top artists and top tracks concurrently.
func (r *Runner) Me(ctx context.Context, cmd *cli.Command) error {
	if err := r.services(); err != nil {
		return err
	}

	// Refresh once up front so the three requests below don't each discover an expired token.
	if err := r.auth.EnsureTokenValid(ctx); err != nil {
		return err
	}

	var out meOutput
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		p, err := r.catalog.GetProfile(gctx)
		out.Profile = p
		return err
	})
	g.Go(func() error {
		a, err := r.catalog.GetTopArtists(gctx, cmd.Int("artists"))
		out.TopArtists = a
		return err
	})
	g.Go(func() error {
		t, err := r.catalog.GetTopTracks(gctx, cmd.Int("tracks"))
		out.TopTracks = t
		return err
	})
	if err := g.Wait(); err != nil {
		return err
	}

	if path := cmd.String("avatar"); path != "" {
		r.saveAvatar(out.Profile, path)
	}

	if cmd.Bool("json") {
		return r.writeJSON(out, cmd.Bool("pretty"))
	}

	p := out.Profile
	r.writePlainHeader(p.DisplayName)
	r.writePlain("Email: %s\n", p.Email)
	r.writePlain("Country: %s\n", p.Country)
	r.writePlain("Followers: %d\n", p.FollowerCount)
	r.writePlain("User ID: %s\n", p.ProviderUserID)

	if len(out.TopArtists) > 0 {
		r.writePlainln("Top artists:")
		for i, raw := range out.TopArtists {
			r.writePlain("%d. %s\n", i+1, gjson.GetBytes(raw, "name").String())
		}
	}

	if len(out.TopTracks) > 0 {
		r.writePlainln("Top tracks:")
		for i, raw := range out.TopTracks {
			track := gjson.ParseBytes(raw)
			r.writePlain("%d. %s - %s\n", i+1, track.Get("artists.0.name").String(), track.Get("name").String())
		}
	}

	return nil
}

func (r *Runner) saveAvatar(p *models.Profile, path string) {
	if p == nil || p.ProfileImageURL == nil {
		r.logger.Warn("profile has no image")
		return
	}

	data, err := formatter.DownloadImage(*p.ProfileImageURL)
	if err != nil {
		r.logger.Warn("failed to download profile image", "error", err)
		return
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		r.logger.Warn("failed to save profile image", "error", err)
		return
	}
	r.logger.Info("profile image saved", "path", path)
}

// Search prints the first track URI matching the query.
func (r *Runner) Search(ctx context.Context, cmd *cli.Command) error {
	query := shared.NormalizeText(cmd.StringArg("query"))
	if query == "" {
		return fmt.Errorf("%w: search query", shared.ErrMissingArgument)
	}

	if err := r.services(); err != nil {
		return err
	}

	uri, found, err := r.catalog.SearchTrack(ctx, query)
	if err != nil {
		return err
	}
	if !found {
		return r.writePlain("No match for %q\n", query)
	}
	return r.writePlain("%s\n", uri)
}

// Add appends a track URI to the managed playlist, creating the playlist on first use.
func (r *Runner) Add(ctx context.Context, cmd *cli.Command) error {
	uri := cmd.StringArg("uri")
	if uri == "" {
		return fmt.Errorf("%w: track URI", shared.ErrMissingArgument)
	}

	if err := r.services(); err != nil {
		return err
	}

	if err := r.playlists.AddTrackToManagedPlaylist(ctx, uri); err != nil {
		return err
	}
	return r.writePlain("✓ Added %s to %s\n", uri, r.playlists.Name())
}
