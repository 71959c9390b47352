package tests

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	echoapi "github.com/aulavirtual/aula/apps/api/echo"
	"github.com/aulavirtual/aula/core/user"
)

func Test_userApi_login(t *testing.T) {
	e := setup(t)
	e.createUser(t, "Sam Mercer", "sam@test.edu", "s3cret-pass", user.RoleStudent)

	t.Run("ok", func(t *testing.T) {
		body := marshal(t, echoapi.LoginRequest{Email: "sam@test.edu", Password: "s3cret-pass"})
		req, rec := newRequest(http.MethodPost, "/v1/users/login", body)
		e.server.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		var resp echoapi.LoginResponse
		assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.NotEmpty(t, resp.Token)
	})

	t.Run("wrong password", func(t *testing.T) {
		body := marshal(t, echoapi.LoginRequest{Email: "sam@test.edu", Password: "nope"})
		req, rec := newRequest(http.MethodPost, "/v1/users/login", body)
		e.server.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("unknown email", func(t *testing.T) {
		body := marshal(t, echoapi.LoginRequest{Email: "ghost@test.edu", Password: "s3cret-pass"})
		req, rec := newRequest(http.MethodPost, "/v1/users/login", body)
		e.server.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("missing fields", func(t *testing.T) {
		req, rec := newRequest(http.MethodPost, "/v1/users/login", []byte(`{}`))
		e.server.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func Test_userApi_register(t *testing.T) {
	e := setup(t)
	admin := e.createUser(t, "Ada Admin", "ada@test.edu", "s3cret-pass", user.RoleAdmin)
	student := e.createUser(t, "Sam Mercer", "sam@test.edu", "s3cret-pass", user.RoleStudent)

	newBody := func(email string) []byte {
		return marshal(t, user.NewUser{
			Name:     "Tom Teacher",
			Email:    email,
			Password: "an0ther-pass",
			Role:     user.RoleTeacher,
		})
	}

	t.Run("admin registers a user; own session survives", func(t *testing.T) {
		token := e.getToken(t, admin)
		req, rec := newAuthRequest(http.MethodPost, "/v1/users/register", token, newBody("tom@test.edu"))
		e.server.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusCreated, rec.Code)
		var created user.User
		assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
		assert.Equal(t, user.RoleTeacher, created.Role)
		assert.Equal(t, user.FinancialCurrent, created.FinancialStatus)

		// the registering admin's token still works afterwards
		req, rec = newAuthRequest(http.MethodGet, "/v1/users", token)
		e.server.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("duplicate email is a field error", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/v1/users/register", e.getToken(t, admin), newBody("sam@test.edu"))
		e.server.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "email")
	})

	t.Run("student cannot register users", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/v1/users/register", e.getToken(t, student), newBody("x@test.edu"))
		e.server.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("no token", func(t *testing.T) {
		req, rec := newRequest(http.MethodPost, "/v1/users/register", newBody("y@test.edu"))
		e.server.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func Test_userApi_retrieve(t *testing.T) {
	e := setup(t)
	admin := e.createUser(t, "Ada Admin", "ada@test.edu", "s3cret-pass", user.RoleAdmin)
	s1 := e.createUser(t, "Sam Mercer", "sam@test.edu", "s3cret-pass", user.RoleStudent)
	s2 := e.createUser(t, "Sue Barnes", "sue@test.edu", "s3cret-pass", user.RoleStudent)

	t.Run("self", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/users/"+s1.ID, e.getToken(t, s1))
		e.server.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("admin reads anyone", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/users/"+s1.ID, e.getToken(t, admin))
		e.server.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("students cannot read others", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/users/"+s2.ID, e.getToken(t, s1))
		e.server.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func Test_userApi_update_destroy(t *testing.T) {
	e := setup(t)
	admin := e.createUser(t, "Ada Admin", "ada@test.edu", "s3cret-pass", user.RoleAdmin)
	s1 := e.createUser(t, "Sam Mercer", "sam@test.edu", "s3cret-pass", user.RoleStudent)

	t.Run("admin flips financial status", func(t *testing.T) {
		body := marshal(t, user.UpdateUser{FinancialStatus: user.FinancialDelinquent})
		req, rec := newAuthRequest(http.MethodPut, "/v1/users/"+s1.ID, e.getToken(t, admin), body)
		e.server.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		var got user.User
		assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
		assert.Equal(t, user.FinancialDelinquent, got.FinancialStatus)
		assert.Equal(t, "Sam Mercer", got.Name, "untouched fields carry over")
	})

	t.Run("admin cannot delete themselves", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodDelete, "/v1/users/"+admin.ID, e.getToken(t, admin))
		e.server.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("delete", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodDelete, "/v1/users/"+s1.ID, e.getToken(t, admin))
		e.server.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusNoContent, rec.Code)

		req, rec = newAuthRequest(http.MethodGet, "/v1/users/"+s1.ID, e.getToken(t, admin))
		e.server.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func Test_userApi_logout(t *testing.T) {
	e := setup(t)
	s1 := e.createUser(t, "Sam Mercer", "sam@test.edu", "s3cret-pass", user.RoleStudent)
	token := e.getToken(t, s1)

	req, rec := newAuthRequest(http.MethodPost, "/v1/users/logout", token)
	e.server.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.True(t, e.idp.SessionRevoked(token))

	t.Run("logged-out token is refused everywhere", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/users/"+s1.ID, token)
		e.server.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)

		req, rec = newAuthRequest(http.MethodGet, "/v1/dashboard", token)
		e.server.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("other sessions are untouched", func(t *testing.T) {
		s2 := e.createUser(t, "Lea Okoye", "lea@test.edu", "s3cret-pass", user.RoleStudent)
		req, rec := newAuthRequest(http.MethodGet, "/v1/users/"+s2.ID, e.getToken(t, s2))
		e.server.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}
