package database

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/aulavirtual/aula/core"
	"github.com/aulavirtual/aula/core/course"
)

type courseRepository struct {
	db *sqlx.DB
}

var _ course.Repository = (*courseRepository)(nil) // interface compliance check

func NewCourseRepository(db *sqlx.DB) course.Repository {
	return &courseRepository{db: db}
}

func (repo *courseRepository) CreateCourse(ctx context.Context, c course.Course) (course.Course, error) {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	doc, err := json.Marshal(c)
	if err != nil {
		return course.Course{}, errors.Wrap(err, "encoding course")
	}
	if _, err = repo.db.ExecContext(ctx, "INSERT INTO courses (id, doc) VALUES ($1, $2)", c.ID, doc); err != nil {
		return course.Course{}, core.NewTransientError("CreateCourse", c.ID, err)
	}
	return c, nil
}

func (repo *courseRepository) GetCourseByID(ctx context.Context, id string) (course.Course, error) {
	var doc []byte
	err := repo.db.QueryRowContext(ctx, "SELECT doc FROM courses WHERE id = $1", id).Scan(&doc)
	if err == sql.ErrNoRows {
		return course.Course{}, course.ErrNotFound
	}
	if err != nil {
		return course.Course{}, core.NewTransientError("GetCourseByID", id, err)
	}
	return decodeCourse(doc)
}

func (repo *courseRepository) FilterCoursesByTerm(ctx context.Context, termID string) ([]course.Course, error) {
	return repo.query(ctx, "SELECT doc FROM courses WHERE doc ->> 'term_id' = $1", termID)
}

func (repo *courseRepository) FilterCoursesByTeacher(ctx context.Context, teacherID, termID string) ([]course.Course, error) {
	return repo.query(ctx,
		"SELECT doc FROM courses WHERE doc ->> 'teacher_id' = $1 AND doc ->> 'term_id' = $2",
		teacherID, termID,
	)
}

func (repo *courseRepository) FilterCoursesByStudent(ctx context.Context, studentID, termID string) ([]course.Course, error) {
	return repo.query(ctx,
		"SELECT doc FROM courses WHERE doc -> 'enrolled_students' ? $1 AND doc ->> 'term_id' = $2",
		studentID, termID,
	)
}

// SetTeacher overwrites the single teacher_id field; re-running with the
// same id converges to the same document.
func (repo *courseRepository) SetTeacher(ctx context.Context, courseID, teacherID string) error {
	res, err := repo.db.ExecContext(ctx,
		"UPDATE courses SET doc = jsonb_set(doc, '{teacher_id}', to_jsonb($2::text)) WHERE id = $1",
		courseID, teacherID,
	)
	if err != nil {
		return core.NewTransientError("SetTeacher", courseID, err)
	}
	return requireRow(res)
}

// AddStudent appends the student to the roster iff absent: the membership
// check and the append run in one document write, so concurrent retries
// converge without duplicating the entry.
func (repo *courseRepository) AddStudent(ctx context.Context, courseID, studentID string) error {
	res, err := repo.db.ExecContext(ctx,
		`UPDATE courses
		    SET doc = jsonb_set(doc, '{enrolled_students}',
		              COALESCE(doc -> 'enrolled_students', '[]'::jsonb) || to_jsonb($2::text))
		  WHERE id = $1
		    AND NOT COALESCE(doc -> 'enrolled_students', '[]'::jsonb) ? $2`,
		courseID, studentID,
	)
	if err != nil {
		return core.NewTransientError("AddStudent", courseID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		// already enrolled (no-op) or course missing; disambiguate
		if _, err := repo.GetCourseByID(ctx, courseID); err != nil {
			return err
		}
	}
	return nil
}

// MergeGrades merges entries into the grades field only; other students'
// grades and the rest of the document are untouched.
func (repo *courseRepository) MergeGrades(ctx context.Context, courseID string, grades map[string]string) error {
	patch, err := json.Marshal(grades)
	if err != nil {
		return errors.Wrap(err, "encoding grades")
	}
	res, err := repo.db.ExecContext(ctx,
		`UPDATE courses
		    SET doc = jsonb_set(doc, '{grades}', COALESCE(doc -> 'grades', '{}'::jsonb) || $2::jsonb)
		  WHERE id = $1`,
		courseID, patch,
	)
	if err != nil {
		return core.NewTransientError("MergeGrades", courseID, err)
	}
	return requireRow(res)
}

func (repo *courseRepository) AppendMaterial(ctx context.Context, courseID string, m course.Material) error {
	entry, err := json.Marshal(m)
	if err != nil {
		return errors.Wrap(err, "encoding material")
	}
	res, err := repo.db.ExecContext(ctx,
		`UPDATE courses
		    SET doc = jsonb_set(doc, '{materials}', COALESCE(doc -> 'materials', '[]'::jsonb) || $2::jsonb)
		  WHERE id = $1`,
		courseID, entry,
	)
	if err != nil {
		return core.NewTransientError("AppendMaterial", courseID, err)
	}
	return requireRow(res)
}

func (repo *courseRepository) DeleteCourseByID(ctx context.Context, id string) error {
	tx, err := repo.db.BeginTxx(ctx, nil)
	if err != nil {
		return core.NewTransientError("DeleteCourseByID", id, err)
	}
	defer func() { _ = tx.Rollback() }()

	// drop the course's attendance child records as well
	if _, err = tx.ExecContext(ctx, "DELETE FROM attendance WHERE course_id = $1", id); err != nil {
		return core.NewTransientError("DeleteCourseByID", id, err)
	}
	if _, err = tx.ExecContext(ctx, "DELETE FROM courses WHERE id = $1", id); err != nil {
		return core.NewTransientError("DeleteCourseByID", id, err)
	}

	if err = tx.Commit(); err != nil {
		return core.NewTransientError("DeleteCourseByID", id, err)
	}
	return nil
}

func (repo *courseRepository) query(ctx context.Context, q string, args ...interface{}) ([]course.Course, error) {
	rows, err := repo.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, core.NewTransientError("QueryCourses", "", err)
	}
	defer func() { _ = rows.Close() }()

	courses := make([]course.Course, 0)
	for rows.Next() {
		var doc []byte
		if err = rows.Scan(&doc); err != nil {
			return nil, core.NewTransientError("QueryCourses", "", err)
		}
		c, err := decodeCourse(doc)
		if err != nil {
			return nil, err
		}
		courses = append(courses, c)
	}
	if err = rows.Err(); err != nil {
		return nil, core.NewTransientError("QueryCourses", "", err)
	}
	return courses, nil
}

func decodeCourse(doc []byte) (course.Course, error) {
	var c course.Course
	if err := json.Unmarshal(doc, &c); err != nil {
		return course.Course{}, errors.Wrap(err, "decoding course")
	}
	if c.EnrolledStudents == nil {
		c.EnrolledStudents = []string{}
	}
	if c.Grades == nil {
		c.Grades = map[string]string{}
	}
	if c.Materials == nil {
		c.Materials = []course.Material{}
	}
	return c, nil
}

func requireRow(res sql.Result) error {
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return course.ErrNotFound
	}
	return nil
}
