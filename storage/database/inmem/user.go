package inmemdb

import (
	"context"

	"github.com/google/uuid"

	"github.com/aulavirtual/aula/core/user"
)

type userRepository struct {
	db *userTable
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository(db *DB) user.Repository {
	return &userRepository{db: db.user}
}

func (repo *userRepository) query() []user.User {
	users := make([]user.User, 0, len(repo.db.table))
	for _, u := range repo.db.table {
		users = append(users, *u)
	}
	return users
}

func (repo *userRepository) CheckEmailUniqueness(_ context.Context, email string, excludedUsers ...user.User) error {
	repo.db.RLock()
	defer repo.db.RUnlock()

	for _, usr := range repo.query() {
		if usr.Email == email && !isExcluded(usr, excludedUsers) {
			return user.ErrEmailExists
		}
	}
	return nil
}

func (repo *userRepository) CreateUser(_ context.Context, usr user.User) (user.User, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if usr.ID == "" {
		usr.ID = uuid.New().String()
	}
	repo.db.table[usr.ID] = &usr
	return usr, nil
}

func (repo *userRepository) QueryAllUsers(_ context.Context) ([]user.User, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()
	return repo.query(), nil
}

func (repo *userRepository) GetUserByID(_ context.Context, id string) (user.User, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if usr, ok := repo.db.table[id]; ok {
		return *usr, nil
	}
	return user.User{}, user.ErrNotFound
}

func (repo *userRepository) FilterUsersByRole(_ context.Context, role string) ([]user.User, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	users := make([]user.User, 0)
	for _, usr := range repo.query() {
		if usr.Role == role {
			users = append(users, usr)
		}
	}
	return users, nil
}

func (repo *userRepository) UpdateUser(_ context.Context, usr user.User) (user.User, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	orig, ok := repo.db.table[usr.ID]
	if !ok {
		return user.User{}, user.ErrNotFound
	}

	if usr.Name != "" {
		orig.Name = usr.Name
	}
	if usr.Role != "" {
		orig.Role = usr.Role
	}
	if usr.FinancialStatus != "" {
		orig.FinancialStatus = usr.FinancialStatus
	}
	orig.UpdatedAt = usr.UpdatedAt
	return *orig, nil
}

func (repo *userRepository) DeleteUserByID(_ context.Context, id string) error {
	repo.db.Lock()
	defer repo.db.Unlock()
	delete(repo.db.table, id)
	return nil
}

func isExcluded(usr user.User, excluded []user.User) bool {
	for _, ex := range excluded {
		if usr.ID == ex.ID {
			return true
		}
	}
	return false
}
