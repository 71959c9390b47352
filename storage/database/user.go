package database

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/aulavirtual/aula/core"
	"github.com/aulavirtual/aula/core/user"
)

type userRepository struct {
	db *sqlx.DB
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository(db *sqlx.DB) user.Repository {
	return &userRepository{db: db}
}

func (repo *userRepository) CheckEmailUniqueness(ctx context.Context, email string, excludedUsers ...user.User) error {
	rows, err := repo.db.QueryContext(ctx, "SELECT id FROM users WHERE doc ->> 'email' = $1", email)
	if err != nil {
		return core.NewTransientError("CheckEmailUniqueness", email, err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var id string
		if err = rows.Scan(&id); err != nil {
			return core.NewTransientError("CheckEmailUniqueness", email, err)
		}
		excluded := false
		for _, ex := range excludedUsers {
			if ex.ID == id {
				excluded = true
				break
			}
		}
		if !excluded {
			return user.ErrEmailExists
		}
	}
	if err = rows.Err(); err != nil {
		return core.NewTransientError("CheckEmailUniqueness", email, err)
	}
	return nil
}

func (repo *userRepository) CreateUser(ctx context.Context, usr user.User) (user.User, error) {
	if usr.ID == "" {
		usr.ID = uuid.New().String()
	}
	doc, err := json.Marshal(usr)
	if err != nil {
		return user.User{}, errors.Wrap(err, "encoding user")
	}
	if _, err = repo.db.ExecContext(ctx, "INSERT INTO users (id, doc) VALUES ($1, $2)", usr.ID, doc); err != nil {
		return user.User{}, core.NewTransientError("CreateUser", usr.ID, err)
	}
	return usr, nil
}

func (repo *userRepository) QueryAllUsers(ctx context.Context) ([]user.User, error) {
	return repo.query(ctx, "SELECT doc FROM users")
}

func (repo *userRepository) GetUserByID(ctx context.Context, id string) (user.User, error) {
	var doc []byte
	err := repo.db.QueryRowContext(ctx, "SELECT doc FROM users WHERE id = $1", id).Scan(&doc)
	if err == sql.ErrNoRows {
		return user.User{}, user.ErrNotFound
	}
	if err != nil {
		return user.User{}, core.NewTransientError("GetUserByID", id, err)
	}

	var usr user.User
	if err = json.Unmarshal(doc, &usr); err != nil {
		return user.User{}, errors.Wrap(err, "decoding user")
	}
	return usr, nil
}

func (repo *userRepository) FilterUsersByRole(ctx context.Context, role string) ([]user.User, error) {
	return repo.query(ctx, "SELECT doc FROM users WHERE doc ->> 'role' = $1", role)
}

func (repo *userRepository) UpdateUser(ctx context.Context, usr user.User) (user.User, error) {
	// merge only the provided fields into the document
	fields := map[string]interface{}{"updated_at": usr.UpdatedAt}
	if usr.Name != "" {
		fields["name"] = usr.Name
	}
	if usr.Role != "" {
		fields["role"] = usr.Role
	}
	if usr.FinancialStatus != "" {
		fields["financial_status"] = usr.FinancialStatus
	}
	patch, err := json.Marshal(fields)
	if err != nil {
		return user.User{}, errors.Wrap(err, "encoding user update")
	}

	var doc []byte
	err = repo.db.QueryRowContext(ctx,
		"UPDATE users SET doc = doc || $2 WHERE id = $1 RETURNING doc", usr.ID, patch,
	).Scan(&doc)
	if err == sql.ErrNoRows {
		return user.User{}, user.ErrNotFound
	}
	if err != nil {
		return user.User{}, core.NewTransientError("UpdateUser", usr.ID, err)
	}

	var updated user.User
	if err = json.Unmarshal(doc, &updated); err != nil {
		return user.User{}, errors.Wrap(err, "decoding user")
	}
	return updated, nil
}

func (repo *userRepository) DeleteUserByID(ctx context.Context, id string) error {
	if _, err := repo.db.ExecContext(ctx, "DELETE FROM users WHERE id = $1", id); err != nil {
		return core.NewTransientError("DeleteUserByID", id, err)
	}
	return nil
}

func (repo *userRepository) query(ctx context.Context, q string, args ...interface{}) ([]user.User, error) {
	rows, err := repo.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, core.NewTransientError("QueryUsers", "", err)
	}
	defer func() { _ = rows.Close() }()

	users := make([]user.User, 0)
	for rows.Next() {
		var doc []byte
		if err = rows.Scan(&doc); err != nil {
			return nil, core.NewTransientError("QueryUsers", "", err)
		}
		var usr user.User
		if err = json.Unmarshal(doc, &usr); err != nil {
			return nil, errors.Wrap(err, "decoding user")
		}
		users = append(users, usr)
	}
	if err = rows.Err(); err != nil {
		return nil, core.NewTransientError("QueryUsers", "", err)
	}
	return users, nil
}
