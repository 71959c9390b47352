package identitysvc

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"

	"github.com/aulavirtual/aula/core"
)

var (
	ErrEmailTaken         = errors.New("email already in use")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrAccountNotFound    = errors.New("account not found")
)

// Account holds the credentials for one provisioned identity. The record
// store keys its user documents by Account.ID.
type Account struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash []byte    `json:"password_hash"`
	CreatedAt    time.Time `json:"created_at"`
}

type AccountRepository interface {
	CreateAccount(ctx context.Context, acct Account) error
	GetAccountByEmail(ctx context.Context, email string) (Account, error)
	DeleteAccountByID(ctx context.Context, id string) error
}

// LocalProvider is a credential authority backed by the accounts collection.
// Provisioning an account never touches any caller session state: every call
// works off its own repository round trip, so an admin registering users
// stays signed in throughout.
type LocalProvider struct {
	repo AccountRepository

	mu      sync.Mutex
	revoked map[string]struct{}
}

var _ core.IdentityProvider = (*LocalProvider)(nil)

func NewLocalProvider(repo AccountRepository) *LocalProvider {
	return &LocalProvider{
		repo:    repo,
		revoked: make(map[string]struct{}),
	}
}

func (p *LocalProvider) CreateAccount(ctx context.Context, email, password string) (string, error) {
	if _, err := p.repo.GetAccountByEmail(ctx, email); err == nil {
		return "", ErrEmailTaken
	} else if errors.Cause(err) != ErrAccountNotFound {
		return "", err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", errors.Wrap(err, "hashing password")
	}
	acct := Account{
		ID:           uuid.New().String(),
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    time.Now().UTC(),
	}
	if err = p.repo.CreateAccount(ctx, acct); err != nil {
		return "", err
	}
	return acct.ID, nil
}

func (p *LocalProvider) Authenticate(ctx context.Context, email, password string) (string, error) {
	acct, err := p.repo.GetAccountByEmail(ctx, email)
	if err != nil {
		if errors.Cause(err) == ErrAccountNotFound {
			return "", ErrInvalidCredentials
		}
		return "", err
	}
	if err = bcrypt.CompareHashAndPassword(acct.PasswordHash, []byte(password)); err != nil {
		return "", ErrInvalidCredentials
	}
	return acct.ID, nil
}

func (p *LocalProvider) DeleteAccount(ctx context.Context, id string) error {
	err := p.repo.DeleteAccountByID(ctx, id)
	if errors.Cause(err) == ErrAccountNotFound {
		// already gone; retries of a partial cleanup must converge
		return nil
	}
	return err
}

// EndSession revokes a session token. Tokens carry their own expiry so the
// set only needs to hold them until they would have lapsed anyway.
func (p *LocalProvider) EndSession(ctx context.Context, token string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.revoked[token] = struct{}{}
	return nil
}

// SessionRevoked reports whether EndSession was called for token.
func (p *LocalProvider) SessionRevoked(token string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, ok := p.revoked[token]
	return ok
}
