package term

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/aulavirtual/aula/core"
)

// Statuses. At most one term is active system-wide at any time.
const (
	StatusActive = "active"
	StatusClosed = "closed"
)

// Term is a bounded teaching period (e.g. a semester).
type Term struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"` // UTC
}

func (t *Term) IsActive() bool { return t.Status == StatusActive }

// NewTerm contains information needed to create a new Term.
// New terms always start closed; SetActive is the only legal transition.
type NewTerm struct {
	Name string `json:"name" validate:"required"`
}

func (nt *NewTerm) Validate(validate *validator.Validate) error {
	nt.Name = core.CleanString(nt.Name)
	return validate.Struct(nt)
}
