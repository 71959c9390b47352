package inmemdb

import (
	"context"

	identitysvc "github.com/aulavirtual/aula/services/identity"
)

type accountRepository struct {
	db *DB
}

var _ identitysvc.AccountRepository = (*accountRepository)(nil)

func NewAccountRepository(db *DB) identitysvc.AccountRepository {
	return &accountRepository{db: db}
}

func (repo *accountRepository) CreateAccount(ctx context.Context, acct identitysvc.Account) error {
	repo.db.account.Lock()
	defer repo.db.account.Unlock()
	repo.db.account.table[acct.ID] = acct
	return nil
}

func (repo *accountRepository) GetAccountByEmail(ctx context.Context, email string) (identitysvc.Account, error) {
	repo.db.account.RLock()
	defer repo.db.account.RUnlock()
	for _, acct := range repo.db.account.table {
		if acct.Email == email {
			return acct, nil
		}
	}
	return identitysvc.Account{}, identitysvc.ErrAccountNotFound
}

func (repo *accountRepository) DeleteAccountByID(ctx context.Context, id string) error {
	repo.db.account.Lock()
	defer repo.db.account.Unlock()
	if _, ok := repo.db.account.table[id]; !ok {
		return identitysvc.ErrAccountNotFound
	}
	delete(repo.db.account.table, id)
	return nil
}
