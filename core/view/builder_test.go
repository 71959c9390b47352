package view_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/volatiletech/null/v8"

	"github.com/aulavirtual/aula/core"
	"github.com/aulavirtual/aula/core/attendance"
	"github.com/aulavirtual/aula/core/course"
	"github.com/aulavirtual/aula/core/term"
	"github.com/aulavirtual/aula/core/user"
	"github.com/aulavirtual/aula/core/view"
	inmemdb "github.com/aulavirtual/aula/storage/database/inmem"
)

type nopLogger struct{}

func (nopLogger) Debug(msg string, args ...interface{}) {}
func (nopLogger) Info(msg string, args ...interface{})  {}
func (nopLogger) Warn(msg string, args ...interface{})  {}
func (nopLogger) Error(msg string, args ...interface{}) {}
func (nopLogger) Fatal(msg string, args ...interface{}) {}

type fixture struct {
	builder    *view.Builder
	userRepo   user.Repository
	termRepo   term.Repository
	courseRepo course.Repository
}

func setup(t *testing.T) fixture {
	db, err := inmemdb.Open()
	if err != nil {
		t.Fatalf("setup() failed: %v", err)
	}
	conf := &core.Config{AppName: "aula"}
	userRepo := inmemdb.NewUserRepository(db)
	termRepo := inmemdb.NewTermRepository(db)
	courseRepo := inmemdb.NewCourseRepository(db)

	usrSvc := user.NewService(userRepo, nil, nil, conf)
	termSvc := term.NewService(termRepo, nopLogger{})
	courseSvc := course.NewService(courseRepo, termRepo, nil)
	attSvc := attendance.NewService(inmemdb.NewAttendanceRepository(db))

	return fixture{
		builder:    view.NewBuilder(usrSvc, termSvc, courseSvc, attSvc),
		userRepo:   userRepo,
		termRepo:   termRepo,
		courseRepo: courseRepo,
	}
}

func (f fixture) createUser(t *testing.T, name, role, finStatus string) user.User {
	usr, err := f.userRepo.CreateUser(context.Background(), user.User{
		Name:            name,
		Email:           name + "@test.edu",
		Role:            role,
		FinancialStatus: finStatus,
		CreatedAt:       time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("createUser() failed: %v", err)
	}
	return usr
}

func (f fixture) createTerm(t *testing.T, name, status string) term.Term {
	tm, err := f.termRepo.CreateTerm(context.Background(), term.Term{
		Name:      name,
		Status:    status,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("createTerm() failed: %v", err)
	}
	return tm
}

func (f fixture) createCourse(t *testing.T, c course.Course) course.Course {
	created, err := f.courseRepo.CreateCourse(context.Background(), c)
	if err != nil {
		t.Fatalf("createCourse() failed: %v", err)
	}
	return created
}

func Test_Builder_ForRole_dispatch(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	admin := f.createUser(t, "ada", user.RoleAdmin, user.FinancialCurrent)
	teacher := f.createUser(t, "tom", user.RoleTeacher, user.FinancialCurrent)
	student := f.createUser(t, "sam", user.RoleStudent, user.FinancialCurrent)

	v, err := f.builder.ForRole(ctx, admin.Role, admin.ID)
	assert.NoError(t, err)
	assert.IsType(t, view.AdminView{}, v)

	v, err = f.builder.ForRole(ctx, teacher.Role, teacher.ID)
	assert.NoError(t, err)
	assert.IsType(t, view.TeacherView{}, v)

	v, err = f.builder.ForRole(ctx, student.Role, student.ID)
	assert.NoError(t, err)
	assert.IsType(t, view.StudentView{}, v)

	// unknown roles get the default student portal
	v, err = f.builder.ForRole(ctx, "registrar", student.ID)
	assert.NoError(t, err)
	assert.IsType(t, view.StudentView{}, v)
}

func Test_Builder_Student(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	teacher := f.createUser(t, "tom", user.RoleTeacher, user.FinancialCurrent)
	student := f.createUser(t, "sam", user.RoleStudent, user.FinancialDelinquent)

	active := f.createTerm(t, "2026-1", term.StatusActive)
	old := f.createTerm(t, "2025-2", term.StatusClosed)

	f.createCourse(t, course.Course{
		Name:             "Algebra",
		TermID:           active.ID,
		TeacherID:        null.StringFrom(teacher.ID),
		EnrolledStudents: []string{student.ID},
		Grades:           map[string]string{student.ID: "18"},
	})
	f.createCourse(t, course.Course{
		Name:             "Chemistry",
		TermID:           active.ID,
		TeacherID:        null.StringFrom("ghost-teacher"),
		EnrolledStudents: []string{student.ID},
	})
	// enrolled but in a closed term: filtered out of the portal
	f.createCourse(t, course.Course{
		Name:             "History",
		TermID:           old.ID,
		EnrolledStudents: []string{student.ID},
	})

	v, err := f.builder.Student(ctx, student.ID)
	assert.NoError(t, err)
	if assert.NotNil(t, v.Term) {
		assert.Equal(t, active.ID, v.Term.ID)
	}
	assert.Equal(t, user.FinancialDelinquent, v.FinancialStatus)

	if assert.Len(t, v.Courses, 2, "closed-term courses must not appear") {
		byName := map[string]view.StudentCourse{}
		for _, c := range v.Courses {
			byName[c.Name] = c
		}
		assert.Equal(t, "tom", byName["Algebra"].TeacherName)
		assert.Equal(t, "18", byName["Algebra"].Grade)
		// dangling teacher reference degrades to the sentinel
		assert.Equal(t, view.TeacherNotAssigned, byName["Chemistry"].TeacherName)
		assert.Equal(t, course.GradeUngraded, byName["Chemistry"].Grade)
	}
}

func Test_Builder_Student_noActiveTerm(t *testing.T) {
	f := setup(t)
	student := f.createUser(t, "sam", user.RoleStudent, "")

	v, err := f.builder.Student(context.Background(), student.ID)
	assert.NoError(t, err)
	assert.Nil(t, v.Term)
	assert.Empty(t, v.Courses)
	assert.Equal(t, user.FinancialUndefined, v.FinancialStatus)
}

func Test_Builder_Teacher(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	teacher := f.createUser(t, "tom", user.RoleTeacher, user.FinancialCurrent)
	active := f.createTerm(t, "2026-1", term.StatusActive)

	f.createCourse(t, course.Course{
		Name:             "Algebra",
		TermID:           active.ID,
		TeacherID:        null.StringFrom(teacher.ID),
		EnrolledStudents: []string{"s1", "s2", "s3"},
	})
	f.createCourse(t, course.Course{
		Name:   "Chemistry",
		TermID: active.ID,
	})

	v, err := f.builder.Teacher(ctx, teacher.ID)
	assert.NoError(t, err)
	if assert.Len(t, v.Courses, 1, "only the teacher's own courses appear") {
		assert.Equal(t, "Algebra", v.Courses[0].Name)
		assert.Equal(t, 3, v.Courses[0].EnrolledCount)
	}
}

func Test_Builder_Report_averages(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	active := f.createTerm(t, "2026-1", term.StatusActive)

	f.createCourse(t, course.Course{
		Name:             "Algebra",
		TermID:           active.ID,
		EnrolledStudents: []string{"s1", "s2", "s3"},
		// the unparseable entry is excluded from numerator and denominator
		Grades: map[string]string{"s1": "18", "s2": "abc", "s3": "16"},
	})
	f.createCourse(t, course.Course{
		Name:   "Chemistry",
		TermID: active.ID,
		// zero parseable entries report literal 0
		Grades: map[string]string{"s1": "abc"},
	})

	rep, err := f.builder.Report(ctx)
	assert.NoError(t, err)
	assert.False(t, rep.NoActiveTerm)
	if assert.Len(t, rep.Courses, 2) {
		byName := map[string]view.CourseReportRow{}
		for _, row := range rep.Courses {
			byName[row.CourseName] = row
		}
		assert.Equal(t, 17.0, byName["Algebra"].AverageGrade)
		assert.Equal(t, 3, byName["Algebra"].EnrolledCount)
		assert.Equal(t, 0.0, byName["Chemistry"].AverageGrade)
	}
}

func Test_Builder_Report_financialRoster(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	f.createUser(t, "sam", user.RoleStudent, user.FinancialCurrent)
	f.createUser(t, "sue", user.RoleStudent, "") // unset reads as undefined
	f.createUser(t, "tom", user.RoleTeacher, user.FinancialCurrent)

	rep, err := f.builder.Report(ctx)
	assert.NoError(t, err)
	assert.True(t, rep.NoActiveTerm)
	assert.Empty(t, rep.Courses)

	if assert.Len(t, rep.FinancialRoster, 2, "only students are on the roster") {
		byName := map[string]string{}
		for _, row := range rep.FinancialRoster {
			byName[row.Name] = row.FinancialStatus
		}
		assert.Equal(t, user.FinancialCurrent, byName["sam"])
		assert.Equal(t, user.FinancialUndefined, byName["sue"])
	}
}

func Test_Builder_Admin(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	f.createUser(t, "ada", user.RoleAdmin, user.FinancialCurrent)
	f.createUser(t, "sam", user.RoleStudent, user.FinancialCurrent)
	active := f.createTerm(t, "2026-1", term.StatusActive)
	f.createCourse(t, course.Course{Name: "Algebra", TermID: active.ID})

	v, err := f.builder.Admin(ctx)
	assert.NoError(t, err)
	if assert.NotNil(t, v.Term) {
		assert.Equal(t, active.ID, v.Term.ID)
	}
	assert.Len(t, v.Users, 2)
	assert.Len(t, v.Courses, 1)
	assert.Len(t, v.Report.FinancialRoster, 1)
}
