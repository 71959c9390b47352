package view

import (
	"github.com/aulavirtual/aula/core/course"
	"github.com/aulavirtual/aula/core/term"
	"github.com/aulavirtual/aula/core/user"
)

// TeacherNotAssigned is shown when a course has no teacher or its teacher
// reference no longer resolves.
const TeacherNotAssigned = "Teacher not assigned"

type (
	// AdminView is the administrative projection over the active term.
	AdminView struct {
		Term    *term.Term      `json:"term"` // nil: no active term configured
		Courses []course.Course `json:"courses"`
		Users   []user.User     `json:"users"`
		Report  Report          `json:"report"`
	}

	// TeacherCourse annotates an assigned course with its roster size.
	TeacherCourse struct {
		course.Course
		EnrolledCount int `json:"enrolled_count"`
	}

	TeacherView struct {
		Term    *term.Term      `json:"term"`
		Courses []TeacherCourse `json:"courses"`
	}

	// StudentCourse is one course as the enrolled student sees it: the
	// teacher's display name resolved per course and the student's own grade.
	StudentCourse struct {
		ID          string            `json:"id"`
		Name        string            `json:"name"`
		Description string            `json:"description"`
		TeacherName string            `json:"teacher_name"`
		Grade       string            `json:"grade"`
		Materials   []course.Material `json:"materials"`
	}

	StudentView struct {
		Term            *term.Term      `json:"term"`
		Courses         []StudentCourse `json:"courses"`
		FinancialStatus string          `json:"financial_status"`
	}

	// CourseReportRow is one course's aggregate performance line.
	CourseReportRow struct {
		CourseName    string  `json:"course_name"`
		EnrolledCount int     `json:"enrolled_count"`
		AverageGrade  float64 `json:"average_grade"`
	}

	// FinancialRosterRow projects one student to (name, financial status).
	FinancialRosterRow struct {
		Name            string `json:"name"`
		FinancialStatus string `json:"financial_status"`
	}

	Report struct {
		NoActiveTerm    bool                 `json:"no_active_term"`
		Courses         []CourseReportRow    `json:"courses"`
		FinancialRoster []FinancialRosterRow `json:"financial_roster"`
	}
)
