package course

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/aulavirtual/aula/core"
	"github.com/aulavirtual/aula/core/term"
)

// Material is one uploaded course file. The list is append-only: no
// reordering or single-file removal is defined at this layer.
type Material struct {
	Name       string    `json:"name"`
	URL        string    `json:"url"`
	UploadedAt time.Time `json:"uploaded_at"` // UTC
}

// Course is a single offering bound to exactly one term. TermID never
// changes after creation: a course is not moved between terms.
type Course struct {
	ID               string            `json:"id"`
	Name             string            `json:"name"`
	Description      string            `json:"description"`
	TermID           string            `json:"term_id"`
	TeacherID        null.String       `json:"teacher_id"`
	EnrolledStudents []string          `json:"enrolled_students"`
	Grades           map[string]string `json:"grades"`
	Materials        []Material        `json:"materials"`
}

// IsEnrolled reports whether the student id is on the course roster.
func (c *Course) IsEnrolled(studentID string) bool {
	for _, id := range c.EnrolledStudents {
		if id == studentID {
			return true
		}
	}
	return false
}

// Grade returns the student's own grade, "ungraded" when none is recorded.
func (c *Course) Grade(studentID string) string {
	if g, ok := c.Grades[studentID]; ok && g != "" {
		return g
	}
	return GradeUngraded
}

// GradeUngraded is the sentinel grade shown for students with no entry yet.
const GradeUngraded = "ungraded"

// NewCourse contains information needed to create a new Course.
type NewCourse struct {
	Name        string `json:"name" validate:"required"`
	Description string `json:"description" validate:"required"`
	TermID      string `json:"term_id" validate:"required"`
}

func (nc *NewCourse) Validate(ctx context.Context, validate *validator.Validate, svc *Service) error {
	nc.Name = core.CleanString(nc.Name)
	nc.Description = core.CleanString(nc.Description)
	nc.TermID = core.CleanString(nc.TermID)

	if err := validate.Struct(nc); err != nil {
		return err
	}
	// the term reference must resolve; courses are never created unbound
	if _, err := svc.terms.GetTermByID(ctx, nc.TermID); err != nil {
		if errors.Cause(err) == term.ErrNotFound {
			return core.NewValidationError(
				err, core.FieldError{Field: "term_id", Error: "term does not exist"},
			)
		}
		return err
	}
	return nil
}
