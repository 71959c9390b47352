package tests

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	echoapi "github.com/aulavirtual/aula/apps/api/echo"
	"github.com/aulavirtual/aula/core/course"
	"github.com/aulavirtual/aula/core/user"
)

func Test_courseApi_create(t *testing.T) {
	e := setup(t)
	admin := e.createUser(t, "Ada Admin", "ada@test.edu", "s3cret-pass", user.RoleAdmin)
	tm := e.createTerm(t, "2026-1", true)
	adminToken := e.getToken(t, admin)

	t.Run("ok", func(t *testing.T) {
		body := marshal(t, course.NewCourse{Name: "Algebra", Description: "Linear algebra", TermID: tm.ID})
		req, rec := newAuthRequest(http.MethodPost, "/v1/courses", adminToken, body)
		e.server.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusCreated, rec.Code)
		var c course.Course
		assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &c))
		assert.False(t, c.TeacherID.Valid)
		assert.Empty(t, c.EnrolledStudents)
	})

	t.Run("dangling term reference", func(t *testing.T) {
		body := marshal(t, course.NewCourse{Name: "Ghostology", Description: "x", TermID: "ghost"})
		req, rec := newAuthRequest(http.MethodPost, "/v1/courses", adminToken, body)
		e.server.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "term_id")
	})
}

func Test_courseApi_assignAndEnroll(t *testing.T) {
	e := setup(t)
	admin := e.createUser(t, "Ada Admin", "ada@test.edu", "s3cret-pass", user.RoleAdmin)
	teacher := e.createUser(t, "Tom Teacher", "tom@test.edu", "s3cret-pass", user.RoleTeacher)
	student := e.createUser(t, "Sam Mercer", "sam@test.edu", "s3cret-pass", user.RoleStudent)
	tm := e.createTerm(t, "2026-1", true)
	c := e.createCourse(t, "Algebra", tm.ID)
	adminToken := e.getToken(t, admin)

	t.Run("assign teacher", func(t *testing.T) {
		body := marshal(t, echoapi.AssignTeacherRequest{TeacherID: teacher.ID})
		req, rec := newAuthRequest(http.MethodPut, "/v1/courses/"+c.ID+"/teacher", adminToken, body)
		e.server.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusNoContent, rec.Code)
	})

	t.Run("assigning a student as teacher is rejected", func(t *testing.T) {
		body := marshal(t, echoapi.AssignTeacherRequest{TeacherID: student.ID})
		req, rec := newAuthRequest(http.MethodPut, "/v1/courses/"+c.ID+"/teacher", adminToken, body)
		e.server.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("enroll student twice stays single", func(t *testing.T) {
		body := marshal(t, echoapi.EnrollRequest{StudentID: student.ID})
		for i := 0; i < 2; i++ {
			req, rec := newAuthRequest(http.MethodPost, "/v1/courses/"+c.ID+"/students", adminToken, body)
			e.server.ServeHTTP(rec, req)
			assert.Equal(t, http.StatusNoContent, rec.Code)
		}

		req, rec := newAuthRequest(http.MethodGet, "/v1/courses/"+c.ID, adminToken)
		e.server.ServeHTTP(rec, req)
		var got course.Course
		assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
		assert.Equal(t, []string{student.ID}, got.EnrolledStudents)
	})

	t.Run("enrolling a teacher is rejected", func(t *testing.T) {
		body := marshal(t, echoapi.EnrollRequest{StudentID: teacher.ID})
		req, rec := newAuthRequest(http.MethodPost, "/v1/courses/"+c.ID+"/students", adminToken, body)
		e.server.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func Test_courseApi_grades(t *testing.T) {
	e := setup(t)
	teacher := e.createUser(t, "Tom Teacher", "tom@test.edu", "s3cret-pass", user.RoleTeacher)
	student := e.createUser(t, "Sam Mercer", "sam@test.edu", "s3cret-pass", user.RoleStudent)
	tm := e.createTerm(t, "2026-1", true)
	c := e.createCourse(t, "Algebra", tm.ID)
	teacherToken := e.getToken(t, teacher)

	t.Run("grades merge across saves", func(t *testing.T) {
		body := marshal(t, echoapi.RecordGradesRequest{Grades: map[string]string{"a": "18"}})
		req, rec := newAuthRequest(http.MethodPut, "/v1/courses/"+c.ID+"/grades", teacherToken, body)
		e.server.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusNoContent, rec.Code)

		body = marshal(t, echoapi.RecordGradesRequest{Grades: map[string]string{"b": "15"}})
		req, rec = newAuthRequest(http.MethodPut, "/v1/courses/"+c.ID+"/grades", teacherToken, body)
		e.server.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusNoContent, rec.Code)

		got, err := e.courseSvc.GetByID(context.Background(), c.ID)
		assert.NoError(t, err)
		assert.Equal(t, map[string]string{"a": "18", "b": "15"}, got.Grades)
	})

	t.Run("students cannot grade", func(t *testing.T) {
		body := marshal(t, echoapi.RecordGradesRequest{Grades: map[string]string{"a": "20"}})
		req, rec := newAuthRequest(http.MethodPut, "/v1/courses/"+c.ID+"/grades", e.getToken(t, student), body)
		e.server.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})
}

func newMaterialRequest(t *testing.T, path, token, filename string, content []byte) (*http.Request, *httptest.ResponseRecorder) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", filename)
	if err != nil {
		t.Fatalf("newMaterialRequest() failed: %v", err)
	}
	if _, err = part.Write(content); err != nil {
		t.Fatalf("newMaterialRequest() failed: %v", err)
	}
	w.Close()

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	return req, httptest.NewRecorder()
}

func Test_courseApi_materials(t *testing.T) {
	e := setup(t)
	teacher := e.createUser(t, "Tom Teacher", "tom@test.edu", "s3cret-pass", user.RoleTeacher)
	tm := e.createTerm(t, "2026-1", true)
	c := e.createCourse(t, "Algebra", tm.ID)

	req, rec := newMaterialRequest(t, "/v1/courses/"+c.ID+"/materials", e.getToken(t, teacher), "syllabus.pdf", []byte("pdf-bytes"))
	e.server.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusCreated, rec.Code)
	var mat course.Material
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &mat))
	assert.Equal(t, "syllabus.pdf", mat.Name)
	assert.True(t, e.blob.Exists(fmt.Sprintf("courses/%s/materials/syllabus.pdf", c.ID)))
}

func Test_courseApi_destroy(t *testing.T) {
	e := setup(t)
	admin := e.createUser(t, "Ada Admin", "ada@test.edu", "s3cret-pass", user.RoleAdmin)
	teacher := e.createUser(t, "Tom Teacher", "tom@test.edu", "s3cret-pass", user.RoleTeacher)
	tm := e.createTerm(t, "2026-1", true)
	c := e.createCourse(t, "Algebra", tm.ID)
	adminToken := e.getToken(t, admin)

	req, rec := newMaterialRequest(t, "/v1/courses/"+c.ID+"/materials", e.getToken(t, teacher), "a.pdf", []byte("a"))
	e.server.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusCreated, rec.Code)

	t.Run("partial cascade maps to 409 and withholds the record", func(t *testing.T) {
		stuck := fmt.Sprintf("courses/%s/materials/a.pdf", c.ID)
		e.blob.FailDeletes(stuck, 1)

		req, rec := newAuthRequest(http.MethodDelete, "/v1/courses/"+c.ID, adminToken)
		e.server.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusConflict, rec.Code)
		assert.Contains(t, rec.Body.String(), stuck)

		req, rec = newAuthRequest(http.MethodGet, "/v1/courses/"+c.ID, adminToken)
		e.server.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code, "record must survive a partial cascade")
	})

	t.Run("retry finishes the deletion", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodDelete, "/v1/courses/"+c.ID, adminToken)
		e.server.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusNoContent, rec.Code)

		req, rec = newAuthRequest(http.MethodGet, "/v1/courses/"+c.ID, adminToken)
		e.server.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}
