package user

import (
	"context"
	"fmt"
	"net/mail"
	"time"

	"github.com/pkg/errors"

	"github.com/aulavirtual/aula/core"
)

var (
	// errors
	ErrNotFound    = errors.New("user not found")
	ErrEmailExists = errors.New("a user with this email already exists")
)

type (
	Repository interface {
		CheckEmailUniqueness(ctx context.Context, email string, excludedUsers ...User) error
		CreateUser(ctx context.Context, usr User) (User, error)
		QueryAllUsers(ctx context.Context) ([]User, error)
		GetUserByID(ctx context.Context, id string) (User, error)
		// FilterUsersByRole returns all users holding the given role.
		FilterUsersByRole(ctx context.Context, role string) ([]User, error)
		UpdateUser(ctx context.Context, usr User) (User, error)
		DeleteUserByID(ctx context.Context, id string) error
	}

	Service struct {
		repo    Repository
		idp     core.IdentityProvider
		mailSvc core.EmailService
		conf    *core.Config
	}
)

func NewService(repo Repository, idp core.IdentityProvider, mailSvc core.EmailService, conf *core.Config) *Service {
	return &Service{repo: repo, idp: idp, mailSvc: mailSvc, conf: conf}
}

func (svc *Service) checkUniqueness(ctx context.Context, email string, exclUsers ...User) error {
	if err := svc.repo.CheckEmailUniqueness(ctx, email, exclUsers...); err != nil {
		if err == ErrEmailExists {
			return core.NewValidationError(err, core.FieldError{Field: "email", Error: err.Error()})
		}
		return err
	}
	return nil
}

// Create provisions a credential account with the identity provider, then
// creates the identity record under the returned account id. The provider
// call runs in its own session context so the creating admin's session is
// left untouched.
func (svc *Service) Create(ctx context.Context, nu NewUser) (User, error) {
	accountID, err := svc.idp.CreateAccount(ctx, nu.Email, nu.Password)
	if err != nil {
		return User{}, errors.Wrap(err, "provisioning account")
	}

	now := time.Now().UTC()
	usr := User{
		ID:              accountID,
		Name:            nu.Name,
		Email:           nu.Email,
		Role:            nu.Role,
		FinancialStatus: FinancialCurrent,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	usr, err = svc.repo.CreateUser(ctx, usr)
	if err != nil {
		return User{}, err
	}

	svc.sendWelcomeMail(usr)
	return usr, nil
}

func (svc *Service) QueryAll(ctx context.Context) ([]User, error) {
	return svc.repo.QueryAllUsers(ctx)
}

func (svc *Service) GetByID(ctx context.Context, id string) (User, error) {
	return svc.repo.GetUserByID(ctx, id)
}

// Resolve looks up a referenced user id, tolerating dangling references:
// a reference whose target no longer resolves reports ok=false rather than
// an error. Store failures still surface.
func (svc *Service) Resolve(ctx context.Context, id string) (User, bool, error) {
	if id == "" {
		return User{}, false, nil
	}
	usr, err := svc.repo.GetUserByID(ctx, id)
	if err != nil {
		if errors.Cause(err) == ErrNotFound {
			return User{}, false, nil
		}
		return User{}, false, err
	}
	return usr, true, nil
}

func (svc *Service) FilterByRole(ctx context.Context, role string) ([]User, error) {
	return svc.repo.FilterUsersByRole(ctx, role)
}

func (svc *Service) Update(ctx context.Context, id string, uu UpdateUser) (User, error) {
	usr := User{
		ID:              id,
		Name:            uu.Name,
		Role:            uu.Role,
		FinancialStatus: uu.FinancialStatus,
		UpdatedAt:       time.Now().UTC(),
	}
	return svc.repo.UpdateUser(ctx, usr)
}

// Delete removes the identity record and its credential account. It does
// NOT cascade into course rosters or teacher assignments: readers resolve
// user references through Resolve and degrade dangling ones to sentinels.
func (svc *Service) Delete(ctx context.Context, id string) error {
	if err := svc.repo.DeleteUserByID(ctx, id); err != nil {
		return err
	}
	if err := svc.idp.DeleteAccount(ctx, id); err != nil {
		return errors.Wrap(err, "deleting account")
	}
	return nil
}

func (svc *Service) sendWelcomeMail(usr User) {
	if svc.mailSvc == nil {
		return
	}
	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:      []mail.Address{{Name: usr.Name, Address: usr.Email}},
		Subject: "Welcome to " + svc.conf.AppName,
		TextContent: fmt.Sprintf(
			"Hi %s,\n\nYour %s account has been created. Sign in at %s with your email address.\n",
			usr.Name, svc.conf.AppName, svc.conf.FrontendBaseURL,
		),
	})
}
