package database

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/aulavirtual/aula/core"
	"github.com/aulavirtual/aula/core/term"
)

// termSwitchLockKey is the advisory lock key guarding active-term switches.
const termSwitchLockKey = 7353_4149

type termRepository struct {
	db *sqlx.DB
}

var _ term.Repository = (*termRepository)(nil) // interface compliance check

func NewTermRepository(db *sqlx.DB) term.Repository {
	return &termRepository{db: db}
}

func (repo *termRepository) CreateTerm(ctx context.Context, t term.Term) (term.Term, error) {
	if t.ID == "" {
		t.ID = uuid.New().String()
	}
	doc, err := json.Marshal(t)
	if err != nil {
		return term.Term{}, errors.Wrap(err, "encoding term")
	}
	if _, err = repo.db.ExecContext(ctx, "INSERT INTO terms (id, doc) VALUES ($1, $2)", t.ID, doc); err != nil {
		return term.Term{}, core.NewTransientError("CreateTerm", t.ID, err)
	}
	return t, nil
}

func (repo *termRepository) GetTermByID(ctx context.Context, id string) (term.Term, error) {
	var doc []byte
	err := repo.db.QueryRowContext(ctx, "SELECT doc FROM terms WHERE id = $1", id).Scan(&doc)
	if err == sql.ErrNoRows {
		return term.Term{}, term.ErrNotFound
	}
	if err != nil {
		return term.Term{}, core.NewTransientError("GetTermByID", id, err)
	}

	var t term.Term
	if err = json.Unmarshal(doc, &t); err != nil {
		return term.Term{}, errors.Wrap(err, "decoding term")
	}
	return t, nil
}

func (repo *termRepository) QueryAllTerms(ctx context.Context) ([]term.Term, error) {
	return repo.query(ctx, "SELECT doc FROM terms")
}

func (repo *termRepository) ActiveTerms(ctx context.Context) ([]term.Term, error) {
	return repo.query(ctx, "SELECT doc FROM terms WHERE doc ->> 'status' = $1", term.StatusActive)
}

// SwitchActive runs the whole switch as one transaction: close whatever is
// active at commit time, then activate the target. The active set is decided
// inside the transaction, never by the caller. No document changes unless
// the batch commits.
func (repo *termRepository) SwitchActive(ctx context.Context, id string) error {
	tx, err := repo.db.BeginTxx(ctx, nil)
	if err != nil {
		return core.NewTransientError("SwitchActive", id, err)
	}
	defer func() { _ = tx.Rollback() }()

	// Serialize switches: a racing transaction could otherwise activate a
	// term after our close-statement scanned the active set.
	if _, err = tx.ExecContext(ctx, "SELECT pg_advisory_xact_lock($1)", termSwitchLockKey); err != nil {
		return core.NewTransientError("SwitchActive", id, err)
	}

	if _, err = tx.ExecContext(ctx,
		"UPDATE terms SET doc = jsonb_set(doc, '{status}', to_jsonb($2::text)) WHERE doc ->> 'status' = $3 AND id <> $1",
		id, term.StatusClosed, term.StatusActive,
	); err != nil {
		return core.NewTransientError("SwitchActive", id, err)
	}

	res, err := tx.ExecContext(ctx,
		"UPDATE terms SET doc = jsonb_set(doc, '{status}', to_jsonb($2::text)) WHERE id = $1",
		id, term.StatusActive,
	)
	if err != nil {
		return core.NewTransientError("SwitchActive", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return term.ErrNotFound
	}

	if err = tx.Commit(); err != nil {
		return core.NewTransientError("SwitchActive", id, err)
	}
	return nil
}

func (repo *termRepository) query(ctx context.Context, q string, args ...interface{}) ([]term.Term, error) {
	rows, err := repo.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, core.NewTransientError("QueryTerms", "", err)
	}
	defer func() { _ = rows.Close() }()

	terms := make([]term.Term, 0)
	for rows.Next() {
		var doc []byte
		if err = rows.Scan(&doc); err != nil {
			return nil, core.NewTransientError("QueryTerms", "", err)
		}
		var t term.Term
		if err = json.Unmarshal(doc, &t); err != nil {
			return nil, errors.Wrap(err, "decoding term")
		}
		terms = append(terms, t)
	}
	if err = rows.Err(); err != nil {
		return nil, core.NewTransientError("QueryTerms", "", err)
	}
	return terms, nil
}
