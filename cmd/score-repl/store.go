package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/phroun/score"
	"github.com/phroun/score/badgerstore"
)

var errEphemeralStore = errors.New("the memory backend forgets scores when the command exits; use fs or badger")

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// openRepository opens the configured backend. The closer releases it.
func openRepository() (*score.Repository, io.Closer, error) {
	var backend score.Backend
	var closer io.Closer = nopCloser{}

	switch config.Store.Backend {
	case "memory", "":
		backend = score.NewMemoryBackend()
	case "fs":
		if config.Store.Path == "" {
			return nil, nil, errors.New("the fs backend needs a path")
		}
		backend = score.NewFSBackend(config.Store.Path)
	case "badger":
		cfg := badgerstore.DefaultConfig()
		cfg.Path = config.Store.Path
		cfg.Logger = logger
		store, err := badgerstore.New(cfg)
		if err != nil {
			return nil, nil, err
		}
		backend, closer = store, store
	default:
		return nil, nil, fmt.Errorf("unknown store backend %q", config.Store.Backend)
	}
	return score.NewRepository(backend, score.WithRepositoryLogger(logger)), closer, nil
}

// openPersistentRepository is openRepository for the one-shot subcommands,
// whose results must outlive the process.
func openPersistentRepository() (*score.Repository, io.Closer, error) {
	if config.Store.Backend == "memory" || config.Store.Backend == "" {
		return nil, nil, errEphemeralStore
	}
	return openRepository()
}

// emptyScore builds a score of rest-filled measures. The first staff is in
// treble clef, the others in bass.
func emptyScore(staves, measures int) *score.System {
	s := score.NewSystem()
	for i := range staves {
		clef := score.Bass
		if i == 0 {
			clef = score.Treble
		}
		st := s.AddStaff()
		for m := range measures {
			measure := st.AddMeasure(clef, 0, score.CommonTime)
			if m == 0 {
				measure.Meta = score.MeasureMeta{DrawClef: true, DrawKey: true, DrawTime: true}
			}
			measure.AddVoice().AddGrouping().AddRest(score.Whole, clef.RestPosition())
		}
	}
	if staves > 1 {
		s.Meta.Connector = score.ConnectorBrace
	}
	s.Reindex()
	return s
}

func layoutOptions() score.LayoutOptions {
	return score.LayoutOptions{
		ContentWidth:  config.Page.Width,
		ContentHeight: config.Page.Height,
		StaveGap:      config.Page.StaveGap,
		Logger:        logger,
	}
}

func fetch(ctx context.Context, repo *score.Repository, id string) (*score.System, error) {
	s, err := repo.Fetch(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", id, err)
	}
	return s, nil
}
