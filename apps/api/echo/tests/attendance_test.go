package tests

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	echoapi "github.com/aulavirtual/aula/apps/api/echo"
	"github.com/aulavirtual/aula/core/attendance"
	"github.com/aulavirtual/aula/core/user"
)

func Test_attendanceApi(t *testing.T) {
	e := setup(t)
	teacher := e.createUser(t, "Tom Teacher", "tom@test.edu", "s3cret-pass", user.RoleTeacher)
	sam := e.createUser(t, "Sam Mercer", "sam@test.edu", "s3cret-pass", user.RoleStudent)
	lea := e.createUser(t, "Lea Okoye", "lea@test.edu", "s3cret-pass", user.RoleStudent)
	tm := e.createTerm(t, "2026-1", true)
	c := e.createCourse(t, "Algebra", tm.ID)
	teacherToken := e.getToken(t, teacher)
	base := "/v1/courses/" + c.ID + "/attendance"

	t.Run("unsaved day reads back empty", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, base+"?date=2026-03-02", teacherToken)
		e.server.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		var sheet attendance.Sheet
		assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &sheet))
		assert.Empty(t, sheet.Entries)
	})

	t.Run("missing date is a field error", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, base, teacherToken)
		e.server.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "date")
	})

	t.Run("save replaces the whole sheet", func(t *testing.T) {
		body := marshal(t, echoapi.SaveSheetRequest{
			Date:    "2026-03-02",
			Entries: map[string]attendance.Status{sam.ID: attendance.StatusPresent, lea.ID: attendance.StatusAbsent},
		})
		req, rec := newAuthRequest(http.MethodPut, base, teacherToken, body)
		e.server.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusNoContent, rec.Code)

		// second save for the same day drops sam entirely
		body = marshal(t, echoapi.SaveSheetRequest{
			Date:    "2026-03-02",
			Entries: map[string]attendance.Status{lea.ID: attendance.StatusLate},
		})
		req, rec = newAuthRequest(http.MethodPut, base, teacherToken, body)
		e.server.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusNoContent, rec.Code)

		req, rec = newAuthRequest(http.MethodGet, base+"?date=2026-03-02", teacherToken)
		e.server.ServeHTTP(rec, req)
		var sheet attendance.Sheet
		assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &sheet))
		assert.Equal(t, map[string]attendance.Status{lea.ID: attendance.StatusLate}, sheet.Entries)
	})

	t.Run("malformed date rejected", func(t *testing.T) {
		body := marshal(t, echoapi.SaveSheetRequest{
			Date:    "02/03/2026",
			Entries: map[string]attendance.Status{sam.ID: attendance.StatusPresent},
		})
		req, rec := newAuthRequest(http.MethodPut, base, teacherToken, body)
		e.server.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("students cannot read the day sheet", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, base+"?date=2026-03-02", e.getToken(t, sam))
		e.server.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})
}

func Test_attendanceApi_history(t *testing.T) {
	e := setup(t)
	teacher := e.createUser(t, "Tom Teacher", "tom@test.edu", "s3cret-pass", user.RoleTeacher)
	sam := e.createUser(t, "Sam Mercer", "sam@test.edu", "s3cret-pass", user.RoleStudent)
	lea := e.createUser(t, "Lea Okoye", "lea@test.edu", "s3cret-pass", user.RoleStudent)
	tm := e.createTerm(t, "2026-1", true)
	c := e.createCourse(t, "Algebra", tm.ID)
	base := "/v1/courses/" + c.ID + "/attendance"

	for date, status := range map[string]attendance.Status{"2026-03-02": attendance.StatusPresent, "2026-03-03": attendance.StatusLate} {
		body := marshal(t, echoapi.SaveSheetRequest{Date: date, Entries: map[string]attendance.Status{sam.ID: status}})
		req, rec := newAuthRequest(http.MethodPut, base, e.getToken(t, teacher), body)
		e.server.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusNoContent, rec.Code)
	}

	t.Run("student defaults to own history", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, base+"/history", e.getToken(t, sam))
		e.server.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		var days []attendance.DayStatus
		assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &days))
		assert.Equal(t, []attendance.DayStatus{
			{Date: "2026-03-02", Status: attendance.StatusPresent},
			{Date: "2026-03-03", Status: attendance.StatusLate},
		}, days)
	})

	t.Run("student cannot read another student", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, base+"/history?student_id="+sam.ID, e.getToken(t, lea))
		e.server.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("saved dates listed in order", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, base+"/dates", e.getToken(t, teacher))
		e.server.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		var dates []string
		assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &dates))
		assert.Equal(t, []string{"2026-03-02", "2026-03-03"}, dates)
	})

	t.Run("teacher reads any student", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, base+"/history?student_id="+lea.ID, e.getToken(t, teacher))
		e.server.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "[]\n", rec.Body.String())
	})
}
