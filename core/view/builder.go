package view

import (
	"context"
	"math"
	"strconv"

	"github.com/pkg/errors"

	"github.com/aulavirtual/aula/core/attendance"
	"github.com/aulavirtual/aula/core/course"
	"github.com/aulavirtual/aula/core/term"
	"github.com/aulavirtual/aula/core/user"
)

// Builder derives role-specific, term-filtered projections by joining the
// registries. It owns no storage of its own.
type Builder struct {
	users      *user.Service
	terms      *term.Service
	courses    *course.Service
	attendance *attendance.Service
}

func NewBuilder(users *user.Service, terms *term.Service, courses *course.Service, att *attendance.Service) *Builder {
	return &Builder{users: users, terms: terms, courses: courses, attendance: att}
}

// ForRole dispatches over the closed role variant. Unknown roles fall back
// to the student projection, the portal's default dashboard.
func (b *Builder) ForRole(ctx context.Context, role, userID string) (interface{}, error) {
	switch role {
	case user.RoleAdmin:
		return b.Admin(ctx)
	case user.RoleTeacher:
		return b.Teacher(ctx, userID)
	default:
		return b.Student(ctx, userID)
	}
}

func (b *Builder) Admin(ctx context.Context) (AdminView, error) {
	v := AdminView{Courses: []course.Course{}}

	users, err := b.users.QueryAll(ctx)
	if err != nil {
		return AdminView{}, errors.Wrap(err, "querying users")
	}
	v.Users = users

	report, err := b.Report(ctx)
	if err != nil {
		return AdminView{}, err
	}
	v.Report = report

	active, ok, err := b.terms.Active(ctx)
	if err != nil {
		return AdminView{}, err
	}
	if !ok {
		return v, nil
	}
	v.Term = &active

	courses, err := b.courses.ListForTerm(ctx, active.ID)
	if err != nil {
		return AdminView{}, err
	}
	v.Courses = courses
	return v, nil
}

func (b *Builder) Teacher(ctx context.Context, teacherID string) (TeacherView, error) {
	v := TeacherView{Courses: []TeacherCourse{}}

	active, ok, err := b.terms.Active(ctx)
	if err != nil {
		return TeacherView{}, err
	}
	if !ok {
		return v, nil
	}
	v.Term = &active

	courses, err := b.courses.ListForTeacher(ctx, teacherID, active.ID)
	if err != nil {
		return TeacherView{}, err
	}
	for _, c := range courses {
		v.Courses = append(v.Courses, TeacherCourse{Course: c, EnrolledCount: len(c.EnrolledStudents)})
	}
	return v, nil
}

func (b *Builder) Student(ctx context.Context, studentID string) (StudentView, error) {
	v := StudentView{Courses: []StudentCourse{}, FinancialStatus: user.FinancialUndefined}

	if usr, ok, err := b.users.Resolve(ctx, studentID); err != nil {
		return StudentView{}, err
	} else if ok {
		v.FinancialStatus = usr.Financial()
	}

	active, ok, err := b.terms.Active(ctx)
	if err != nil {
		return StudentView{}, err
	}
	if !ok {
		return v, nil
	}
	v.Term = &active

	courses, err := b.courses.ListForStudent(ctx, studentID, active.ID)
	if err != nil {
		return StudentView{}, err
	}
	for _, c := range courses {
		// one identity lookup per course; a dangling teacher id degrades to
		// the sentinel, never a failure
		teacherName := TeacherNotAssigned
		if c.TeacherID.Valid {
			if teacher, ok, err := b.users.Resolve(ctx, c.TeacherID.String); err != nil {
				return StudentView{}, err
			} else if ok {
				teacherName = teacher.Name
			}
		}
		v.Courses = append(v.Courses, StudentCourse{
			ID:          c.ID,
			Name:        c.Name,
			Description: c.Description,
			TeacherName: teacherName,
			Grade:       c.Grade(studentID),
			Materials:   c.Materials,
		})
	}
	return v, nil
}

// StudentHistory surfaces the student's own per-course attendance history.
func (b *Builder) StudentHistory(ctx context.Context, courseID, studentID string) ([]attendance.DayStatus, error) {
	return b.attendance.StudentHistory(ctx, courseID, studentID)
}

// Report computes the administrative aggregates for the active term: each
// course's average grade and the student financial roster.
func (b *Builder) Report(ctx context.Context) (Report, error) {
	report := Report{Courses: []CourseReportRow{}, FinancialRoster: []FinancialRosterRow{}}

	students, err := b.users.FilterByRole(ctx, user.RoleStudent)
	if err != nil {
		return Report{}, errors.Wrap(err, "querying students")
	}
	for _, s := range students {
		report.FinancialRoster = append(report.FinancialRoster, FinancialRosterRow{
			Name:            s.Name,
			FinancialStatus: s.Financial(),
		})
	}

	active, ok, err := b.terms.Active(ctx)
	if err != nil {
		return Report{}, err
	}
	if !ok {
		report.NoActiveTerm = true
		return report, nil
	}

	courses, err := b.courses.ListForTerm(ctx, active.ID)
	if err != nil {
		return Report{}, err
	}
	for _, c := range courses {
		report.Courses = append(report.Courses, CourseReportRow{
			CourseName:    c.Name,
			EnrolledCount: len(c.EnrolledStudents),
			AverageGrade:  averageGrade(c.Grades),
		})
	}
	return report, nil
}

// averageGrade parses each grade as a float; entries that fail to parse are
// excluded from both numerator and denominator. Zero parseable entries
// report an explicit 0. Rounded to 2 decimals.
func averageGrade(grades map[string]string) float64 {
	var sum float64
	var n int
	for _, g := range grades {
		val, err := strconv.ParseFloat(g, 64)
		if err != nil {
			continue
		}
		sum += val
		n++
	}
	if n == 0 {
		return 0
	}
	return math.Round(sum/float64(n)*100) / 100
}
