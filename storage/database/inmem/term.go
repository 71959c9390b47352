package inmemdb

import (
	"context"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/aulavirtual/aula/core"
	"github.com/aulavirtual/aula/core/term"
)

type termRepository struct {
	db *termTable
}

var _ term.Repository = (*termRepository)(nil) // interface compliance check

func NewTermRepository(db *DB) term.Repository {
	return &termRepository{db: db.term}
}

func (repo *termRepository) CreateTerm(_ context.Context, t term.Term) (term.Term, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if t.ID == "" {
		t.ID = uuid.New().String()
	}
	repo.db.table[t.ID] = &t
	return t, nil
}

func (repo *termRepository) GetTermByID(_ context.Context, id string) (term.Term, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if t, ok := repo.db.table[id]; ok {
		return *t, nil
	}
	return term.Term{}, term.ErrNotFound
}

func (repo *termRepository) QueryAllTerms(_ context.Context) ([]term.Term, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	terms := make([]term.Term, 0, len(repo.db.table))
	for _, t := range repo.db.table {
		terms = append(terms, *t)
	}
	return terms, nil
}

func (repo *termRepository) ActiveTerms(_ context.Context) ([]term.Term, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	actives := make([]term.Term, 0, 1)
	for _, t := range repo.db.table {
		if t.Status == term.StatusActive {
			actives = append(actives, *t)
		}
	}
	return actives, nil
}

// SwitchActive computes the active set and applies all status writes under
// one lock: every document changes or none does. An armed failure injection
// aborts before any write.
func (repo *termRepository) SwitchActive(_ context.Context, id string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	if repo.db.switchFailures > 0 {
		repo.db.switchFailures--
		return core.NewTransientError("SwitchActive", id, errors.New("batch commit aborted"))
	}

	target, ok := repo.db.table[id]
	if !ok {
		return term.ErrNotFound
	}
	for _, t := range repo.db.table {
		if t.Status == term.StatusActive {
			t.Status = term.StatusClosed
		}
	}
	target.Status = term.StatusActive
	return nil
}
