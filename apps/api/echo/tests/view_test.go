package tests

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/aulavirtual/aula/core/user"
	"github.com/aulavirtual/aula/core/view"
)

func Test_viewApi_dashboard(t *testing.T) {
	e := setup(t)
	admin := e.createUser(t, "Ada Admin", "ada@test.edu", "s3cret-pass", user.RoleAdmin)
	teacher := e.createUser(t, "Tom Teacher", "tom@test.edu", "s3cret-pass", user.RoleTeacher)
	student := e.createUser(t, "Sam Mercer", "sam@test.edu", "s3cret-pass", user.RoleStudent)
	tm := e.createTerm(t, "2026-1", true)
	c := e.createCourse(t, "Algebra", tm.ID)

	ctx := context.Background()
	assert.NoError(t, e.courseSvc.AssignTeacher(ctx, c.ID, teacher.ID))
	assert.NoError(t, e.courseSvc.Enroll(ctx, c.ID, student.ID))
	assert.NoError(t, e.courseSvc.RecordGrades(ctx, c.ID, map[string]string{student.ID: "18"}))

	t.Run("student portal", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/dashboard", e.getToken(t, student))
		e.server.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		var v view.StudentView
		assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
		if assert.Len(t, v.Courses, 1) {
			assert.Equal(t, "Tom Teacher", v.Courses[0].TeacherName)
			assert.Equal(t, "18", v.Courses[0].Grade)
		}
		assert.Equal(t, user.FinancialCurrent, v.FinancialStatus)
	})

	t.Run("teacher portal", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/dashboard", e.getToken(t, teacher))
		e.server.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		var v view.TeacherView
		assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
		if assert.Len(t, v.Courses, 1) {
			assert.Equal(t, 1, v.Courses[0].EnrolledCount)
		}
	})

	t.Run("admin portal carries the report", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/dashboard", e.getToken(t, admin))
		e.server.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		var v view.AdminView
		assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
		assert.Len(t, v.Users, 3)
		if assert.Len(t, v.Report.Courses, 1) {
			assert.Equal(t, 18.0, v.Report.Courses[0].AverageGrade)
		}
	})

	t.Run("unauthenticated", func(t *testing.T) {
		req, rec := newRequest(http.MethodGet, "/v1/dashboard")
		e.server.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func Test_viewApi_report(t *testing.T) {
	e := setup(t)
	admin := e.createUser(t, "Ada Admin", "ada@test.edu", "s3cret-pass", user.RoleAdmin)
	student := e.createUser(t, "Sam Mercer", "sam@test.edu", "s3cret-pass", user.RoleStudent)

	t.Run("admin only", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/reports/term", e.getToken(t, student))
		e.server.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("no active term flagged", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/reports/term", e.getToken(t, admin))
		e.server.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		var report view.Report
		assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
		assert.True(t, report.NoActiveTerm)
		if assert.Len(t, report.FinancialRoster, 1) {
			assert.Equal(t, "Sam Mercer", report.FinancialRoster[0].Name)
		}
	})
}
