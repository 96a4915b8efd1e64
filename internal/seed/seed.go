// Package seed loads a catalog fixture file and replays it through a
// catalog client.
package seed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync/atomic"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Clark-Hu/movie-catalog/internal/catalogclient"
	"github.com/Clark-Hu/movie-catalog/internal/domain"
)

// File is the fixture layout: directors with the movies they directed.
type File struct {
	Directors []DirectorEntry `json:"directors"`
}

// DirectorEntry is one director and its filmography. Movies carry no
// directorId; it is filled in from the created director.
type DirectorEntry struct {
	domain.DirectorInput
	Movies []domain.MovieInput `json:"movies"`
}

// Result counts what a run did. Skipped movies already existed by IMDb ID.
type Result struct {
	Directors int64
	Movies    int64
	Skipped   int64
	Failed    int64
}

// Decode reads a fixture file.
func Decode(r io.Reader) (File, error) {
	var f File
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&f); err != nil {
		return File{}, fmt.Errorf("decode seed file: %w", err)
	}
	for i, d := range f.Directors {
		if d.FirstName == "" {
			return File{}, fmt.Errorf("decode seed file: director %d has no firstName", i)
		}
	}
	return f, nil
}

// Apply creates every director and then its movies, with up to workers
// directors in flight. Entity-level failures are counted and logged rather
// than aborting the run; only a cancelled context stops it early.
func Apply(ctx context.Context, client catalogclient.Client, f File, workers int, logger *zap.Logger) (Result, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if workers < 1 {
		workers = 1
	}

	var directors, movies, skipped, failed atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for _, entry := range f.Directors {
		entry := entry
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			created, err := client.CreateDirector(gctx, entry.DirectorInput)
			if err != nil {
				if ctxErr := gctx.Err(); ctxErr != nil {
					return ctxErr
				}
				logger.Warn("seed: director failed", zap.String("firstName", entry.FirstName), zap.Error(err))
				failed.Add(int64(1 + len(entry.Movies)))
				return nil
			}
			directors.Add(1)

			for _, m := range entry.Movies {
				m.DirectorID = created.ID
				_, err := client.CreateMovie(gctx, m)
				switch {
				case err == nil:
					movies.Add(1)
				case errors.Is(err, domain.ErrConflict):
					skipped.Add(1)
				default:
					if ctxErr := gctx.Err(); ctxErr != nil {
						return ctxErr
					}
					logger.Warn("seed: movie failed", zap.String("title", m.Title), zap.Error(err))
					failed.Add(1)
				}
			}
			return nil
		})
	}
	err := g.Wait()

	res := Result{
		Directors: directors.Load(),
		Movies:    movies.Load(),
		Skipped:   skipped.Load(),
		Failed:    failed.Load(),
	}
	return res, err
}
