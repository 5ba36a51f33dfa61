package pipeline

import (
	"context"

	"github.com/richmondsunlight/chyrons/internal/chyron"
	"github.com/richmondsunlight/chyrons/internal/store"
)

// Store is where a run writes its records. All records of a run go through
// one Batch and become visible together on Commit.
type Store interface {
	UpsertVideo(ctx context.Context, v chyron.Video) error
	Begin(ctx context.Context) (Batch, error)
}

type Batch interface {
	Save(ctx context.Context, r chyron.Record) error
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// Postgres adapts *store.Store to Store.
func Postgres(s *store.Store) Store {
	return pgStore{s}
}

type pgStore struct {
	*store.Store
}

func (s pgStore) Begin(ctx context.Context) (Batch, error) {
	b, err := s.Store.Begin(ctx)
	if err != nil {
		return nil, err
	}
	return b, nil
}
