package inmemdb

import (
	"context"

	"github.com/google/uuid"
	"github.com/volatiletech/null/v8"

	"github.com/aulavirtual/aula/core/course"
)

type courseRepository struct {
	db  *courseTable
	att *attendanceTable
}

var _ course.Repository = (*courseRepository)(nil) // interface compliance check

func NewCourseRepository(db *DB) course.Repository {
	return &courseRepository{db: db.course, att: db.attendance}
}

// clone deep-copies a course so callers never alias the stored maps/slices.
func clone(c course.Course) course.Course {
	cp := c
	cp.EnrolledStudents = append([]string(nil), c.EnrolledStudents...)
	cp.Grades = make(map[string]string, len(c.Grades))
	for k, v := range c.Grades {
		cp.Grades[k] = v
	}
	cp.Materials = append([]course.Material(nil), c.Materials...)
	return cp
}

func (repo *courseRepository) CreateCourse(_ context.Context, c course.Course) (course.Course, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	stored := clone(c)
	repo.db.table[c.ID] = &stored
	return clone(stored), nil
}

func (repo *courseRepository) GetCourseByID(_ context.Context, id string) (course.Course, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if c, ok := repo.db.table[id]; ok {
		return clone(*c), nil
	}
	return course.Course{}, course.ErrNotFound
}

func (repo *courseRepository) FilterCoursesByTerm(_ context.Context, termID string) ([]course.Course, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	courses := make([]course.Course, 0)
	for _, c := range repo.db.table {
		if c.TermID == termID {
			courses = append(courses, clone(*c))
		}
	}
	return courses, nil
}

func (repo *courseRepository) FilterCoursesByTeacher(_ context.Context, teacherID, termID string) ([]course.Course, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	courses := make([]course.Course, 0)
	for _, c := range repo.db.table {
		if c.TermID == termID && c.TeacherID.Valid && c.TeacherID.String == teacherID {
			courses = append(courses, clone(*c))
		}
	}
	return courses, nil
}

func (repo *courseRepository) FilterCoursesByStudent(_ context.Context, studentID, termID string) ([]course.Course, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	courses := make([]course.Course, 0)
	for _, c := range repo.db.table {
		if c.TermID == termID && c.IsEnrolled(studentID) {
			courses = append(courses, clone(*c))
		}
	}
	return courses, nil
}

func (repo *courseRepository) SetTeacher(_ context.Context, courseID, teacherID string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	c, ok := repo.db.table[courseID]
	if !ok {
		return course.ErrNotFound
	}
	c.TeacherID = null.StringFrom(teacherID)
	return nil
}

func (repo *courseRepository) AddStudent(_ context.Context, courseID, studentID string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	c, ok := repo.db.table[courseID]
	if !ok {
		return course.ErrNotFound
	}
	if c.IsEnrolled(studentID) {
		return nil
	}
	c.EnrolledStudents = append(c.EnrolledStudents, studentID)
	return nil
}

func (repo *courseRepository) MergeGrades(_ context.Context, courseID string, grades map[string]string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	c, ok := repo.db.table[courseID]
	if !ok {
		return course.ErrNotFound
	}
	if c.Grades == nil {
		c.Grades = make(map[string]string, len(grades))
	}
	for id, g := range grades {
		c.Grades[id] = g
	}
	return nil
}

func (repo *courseRepository) AppendMaterial(_ context.Context, courseID string, m course.Material) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	c, ok := repo.db.table[courseID]
	if !ok {
		return course.ErrNotFound
	}
	c.Materials = append(c.Materials, m)
	return nil
}

func (repo *courseRepository) DeleteCourseByID(_ context.Context, id string) error {
	repo.db.Lock()
	defer repo.db.Unlock()
	delete(repo.db.table, id)

	// drop the course's attendance child records as well
	repo.att.Lock()
	defer repo.att.Unlock()
	delete(repo.att.table, id)
	return nil
}
