package user

import (
	"context"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/aulavirtual/aula/core"
)

// Roles
const (
	RoleAdmin   = "admin"
	RoleTeacher = "teacher"
	RoleStudent = "student"
)

// Financial statuses. An empty status reads as "undefined".
const (
	FinancialCurrent    = "current"
	FinancialDelinquent = "delinquent"
	FinancialUndefined  = "undefined"
)

var (
	AllRoles = []string{RoleAdmin, RoleTeacher, RoleStudent}

	Roles = []Role{
		{Name: "Student", Value: RoleStudent},
		{Name: "Teacher", Value: RoleTeacher},
		{Name: "Admin", Value: RoleAdmin},
	}
)

type Role struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// User is an identity record. Its ID is the opaque account id issued by the
// identity provider; it is stable for the lifetime of the account.
type User struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	Email           string    `json:"email"`
	Role            string    `json:"role"`
	FinancialStatus string    `json:"financial_status,omitempty"`
	CreatedAt       time.Time `json:"created_at"` // UTC
	UpdatedAt       time.Time `json:"updated_at"` // UTC
}

func (u *User) IsAdmin() bool   { return u.Role == RoleAdmin }
func (u *User) IsTeacher() bool { return u.Role == RoleTeacher }
func (u *User) IsStudent() bool { return u.Role == RoleStudent }

// Financial returns the user's financial status, defaulting to "undefined"
// when it was never set.
func (u *User) Financial() string {
	if u.FinancialStatus == "" {
		return FinancialUndefined
	}
	return u.FinancialStatus
}

// NewUser contains information needed to create a new User and provision
// its credential account.
type NewUser struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
	Role     string `json:"role" validate:"required,role"`
}

func (nu *NewUser) Validate(ctx context.Context, validate *validator.Validate, svc *Service) error {
	nu.Name = core.CleanString(nu.Name)
	nu.Email = core.CleanString(nu.Email, true /* lower */)

	if err := validate.Struct(nu); err != nil {
		return err
	}
	return svc.checkUniqueness(ctx, nu.Email)
}

// UpdateUser defines what information may be provided to modify an existing User.
type UpdateUser struct {
	Name            string `json:"name"`
	Role            string `json:"role" validate:"omitempty,role"`
	FinancialStatus string `json:"financial_status" validate:"omitempty,finstatus"`
}

func (uu *UpdateUser) Validate(validate *validator.Validate, origUsr User) error {
	name := core.CleanString(uu.Name)
	if name != "" {
		uu.Name = name
	} else {
		uu.Name = origUsr.Name
	}
	if uu.Role == "" {
		uu.Role = origUsr.Role
	}
	if uu.FinancialStatus == "" {
		uu.FinancialStatus = origUsr.FinancialStatus
	}
	return validate.Struct(uu)
}

// InitValidators registers this package's custom validation tags.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(roleTag, roleValidation)
	core.RegisterCustomTranslation(validate, translator, roleTag, roleText)

	_ = validate.RegisterValidation(finStatusTag, finStatusValidation)
	core.RegisterCustomTranslation(validate, translator, finStatusTag, finStatusText)

	validate.RegisterStructValidation(newUserStructValidation, NewUser{})
	core.RegisterCustomTranslation(validate, translator, pwdMinLenTag, pwdMinLenText)
	core.RegisterCustomTranslation(validate, translator, pwdNoSpaceTag, pwdNoSpaceText)
	core.RegisterCustomTranslation(validate, translator, pwdNotAllNumTag, pwdNotAllNumText)
	core.RegisterCustomTranslation(validate, translator, pwdAttrSimTag, pwdAttrSimText)
}
