package database

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/aulavirtual/aula/core"
	identitysvc "github.com/aulavirtual/aula/services/identity"
)

type accountRepository struct {
	db *sqlx.DB
}

var _ identitysvc.AccountRepository = (*accountRepository)(nil) // interface compliance check

func NewAccountRepository(db *sqlx.DB) identitysvc.AccountRepository {
	return &accountRepository{db: db}
}

func (repo *accountRepository) CreateAccount(ctx context.Context, acct identitysvc.Account) error {
	doc, err := json.Marshal(acct)
	if err != nil {
		return errors.Wrap(err, "encoding account")
	}
	if _, err = repo.db.ExecContext(ctx, "INSERT INTO accounts (id, doc) VALUES ($1, $2)", acct.ID, doc); err != nil {
		return core.NewTransientError("CreateAccount", acct.ID, err)
	}
	return nil
}

func (repo *accountRepository) GetAccountByEmail(ctx context.Context, email string) (identitysvc.Account, error) {
	var doc []byte
	err := repo.db.QueryRowContext(ctx, "SELECT doc FROM accounts WHERE doc ->> 'email' = $1", email).Scan(&doc)
	if err == sql.ErrNoRows {
		return identitysvc.Account{}, identitysvc.ErrAccountNotFound
	}
	if err != nil {
		return identitysvc.Account{}, core.NewTransientError("GetAccountByEmail", email, err)
	}

	var acct identitysvc.Account
	if err = json.Unmarshal(doc, &acct); err != nil {
		return identitysvc.Account{}, errors.Wrap(err, "decoding account")
	}
	return acct, nil
}

func (repo *accountRepository) DeleteAccountByID(ctx context.Context, id string) error {
	res, err := repo.db.ExecContext(ctx, "DELETE FROM accounts WHERE id = $1", id)
	if err != nil {
		return core.NewTransientError("DeleteAccountByID", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return identitysvc.ErrAccountNotFound
	}
	return nil
}
