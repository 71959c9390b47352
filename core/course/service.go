package course

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"

	"github.com/aulavirtual/aula/core"
	"github.com/aulavirtual/aula/core/term"
)

var (
	// errors
	ErrNotFound = errors.New("course not found")
)

type (
	Repository interface {
		CreateCourse(ctx context.Context, c Course) (Course, error)
		GetCourseByID(ctx context.Context, id string) (Course, error)
		FilterCoursesByTerm(ctx context.Context, termID string) ([]Course, error)
		FilterCoursesByTeacher(ctx context.Context, teacherID, termID string) ([]Course, error)
		FilterCoursesByStudent(ctx context.Context, studentID, termID string) ([]Course, error)
		// SetTeacher overwrites the teacher assignment; repeating the same
		// assignment is a no-op in effect.
		SetTeacher(ctx context.Context, courseID, teacherID string) error
		// AddStudent adds the student to the roster iff absent.
		AddStudent(ctx context.Context, courseID, studentID string) error
		// MergeGrades merges the given entries into the grades mapping at
		// the field level; entries for other students are left untouched.
		MergeGrades(ctx context.Context, courseID string, grades map[string]string) error
		AppendMaterial(ctx context.Context, courseID string, m Material) error
		DeleteCourseByID(ctx context.Context, id string) error
	}

	// termGetter is the slice of the Term Registry the course registry needs
	// to validate term bindings.
	termGetter interface {
		GetTermByID(ctx context.Context, id string) (term.Term, error)
	}

	Service struct {
		repo  Repository
		terms termGetter
		blob  core.BlobStore
	}
)

func NewService(repo Repository, terms termGetter, blob core.BlobStore) *Service {
	return &Service{repo: repo, terms: terms, blob: blob}
}

// Create registers the course under an existing term. The term binding is
// checked here as well as in NewCourse.Validate so callers that bypass the
// input validation still cannot create a course with a dangling term.
func (svc *Service) Create(ctx context.Context, nc NewCourse) (Course, error) {
	if _, err := svc.terms.GetTermByID(ctx, nc.TermID); err != nil {
		if errors.Cause(err) == term.ErrNotFound {
			return Course{}, core.NewValidationError(err, core.FieldError{Field: "term_id", Error: "term does not exist"})
		}
		return Course{}, errors.Wrap(err, "checking term reference")
	}

	c := Course{
		Name:             nc.Name,
		Description:      nc.Description,
		TermID:           nc.TermID,
		EnrolledStudents: []string{},
		Grades:           map[string]string{},
		Materials:        []Material{},
	}
	return svc.repo.CreateCourse(ctx, c)
}

func (svc *Service) GetByID(ctx context.Context, id string) (Course, error) {
	return svc.repo.GetCourseByID(ctx, id)
}

// AssignTeacher overwrites the course's teacher assignment. The referenced
// user is not checked for role=teacher here; caller-side role filtering is
// trusted. Re-running with the same id converges to the same state.
func (svc *Service) AssignTeacher(ctx context.Context, courseID, teacherID string) error {
	return svc.repo.SetTeacher(ctx, courseID, teacherID)
}

// Enroll adds a student to the course roster. Re-enrolling an already
// enrolled student is a no-op, never an error.
func (svc *Service) Enroll(ctx context.Context, courseID, studentID string) error {
	return svc.repo.AddStudent(ctx, courseID, studentID)
}

func (svc *Service) ListForTerm(ctx context.Context, termID string) ([]Course, error) {
	return svc.repo.FilterCoursesByTerm(ctx, termID)
}

// ListForTeacher returns the teacher's courses within the given (normally:
// the active) term only. Other terms' courses are never visible here.
func (svc *Service) ListForTeacher(ctx context.Context, teacherID, termID string) ([]Course, error) {
	return svc.repo.FilterCoursesByTeacher(ctx, teacherID, termID)
}

// ListForStudent returns courses in the given term whose roster contains
// the student.
func (svc *Service) ListForStudent(ctx context.Context, studentID, termID string) ([]Course, error) {
	return svc.repo.FilterCoursesByStudent(ctx, studentID, termID)
}

// RecordGrades merges grade entries into the course's grade mapping.
// Grading one student never clears another's grade: the write is an
// additive merge at the grades-field level, not a document overwrite.
func (svc *Service) RecordGrades(ctx context.Context, courseID string, grades map[string]string) error {
	if len(grades) == 0 {
		return nil
	}
	return svc.repo.MergeGrades(ctx, courseID, grades)
}

// AddMaterial uploads the file bytes to the blob store under the course's
// material namespace then appends the material entry to the course record.
// The two stores are eventually, not atomically, consistent: an upload whose
// record append fails leaves a blob that course deletion will still clean.
func (svc *Service) AddMaterial(ctx context.Context, courseID, displayName string, data []byte) (Material, error) {
	if _, err := svc.repo.GetCourseByID(ctx, courseID); err != nil {
		return Material{}, err
	}

	path := fmt.Sprintf("%s/%s", materialPrefix(courseID), displayName)
	url, err := svc.blob.Upload(ctx, path, data)
	if err != nil {
		return Material{}, errors.Wrap(err, "uploading material")
	}

	m := Material{Name: displayName, URL: url, UploadedAt: time.Now().UTC()}
	if err := svc.repo.AppendMaterial(ctx, courseID, m); err != nil {
		return Material{}, err
	}
	return m, nil
}

func materialPrefix(courseID string) string {
	return fmt.Sprintf("courses/%s/materials", courseID)
}
