package tests

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	. "github.com/aulavirtual/aula/apps/api/echo"
	"github.com/aulavirtual/aula/core"
	"github.com/aulavirtual/aula/core/attendance"
	"github.com/aulavirtual/aula/core/course"
	"github.com/aulavirtual/aula/core/term"
	"github.com/aulavirtual/aula/core/user"
	"github.com/aulavirtual/aula/core/view"
	blobsvc "github.com/aulavirtual/aula/services/blob"
	emailsvc "github.com/aulavirtual/aula/services/email"
	identitysvc "github.com/aulavirtual/aula/services/identity"
	inmemdb "github.com/aulavirtual/aula/storage/database/inmem"
)

type env struct {
	conf      *core.Config
	server    Server
	usrSvc    *user.Service
	termSvc   *term.Service
	courseSvc *course.Service
	attSvc    *attendance.Service
	idp       *identitysvc.LocalProvider
	blob      *blobsvc.InMemStore
	db        *inmemdb.DB
}

type nopLogger struct{}

func (nopLogger) Debug(msg string, args ...interface{}) {}
func (nopLogger) Info(msg string, args ...interface{})  {}
func (nopLogger) Warn(msg string, args ...interface{})  {}
func (nopLogger) Error(msg string, args ...interface{}) {}
func (nopLogger) Fatal(msg string, args ...interface{}) {}

func newTestConfig() *core.Config {
	conf := &core.Config{
		Env:       "test",
		TestMode:  true,
		AppName:   "aula",
		SecretKey: "test-secret-key",
	}
	conf.Server.JWTExpirationDelta = time.Hour
	return conf
}

func setup(t *testing.T) *env {
	db, err := inmemdb.Open()
	if err != nil {
		t.Fatalf("setup() failed: %v", err)
	}

	conf := newTestConfig()
	logger := nopLogger{}
	mailSvc := emailsvc.NewConsoleServiceMock(conf)
	blob := blobsvc.NewInMemStore()
	idp := identitysvc.NewLocalProvider(inmemdb.NewAccountRepository(db))

	termRepo := inmemdb.NewTermRepository(db)
	usrSvc := user.NewService(inmemdb.NewUserRepository(db), idp, mailSvc, conf)
	termSvc := term.NewService(termRepo, logger)
	courseSvc := course.NewService(inmemdb.NewCourseRepository(db), termRepo, blob)
	attSvc := attendance.NewService(inmemdb.NewAttendanceRepository(db))
	views := view.NewBuilder(usrSvc, termSvc, courseSvc, attSvc)

	validate := validator.New()
	translator := newTranslator()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)

	server := NewServer(ServerDeps{
		Conf:       conf,
		Logger:     logger,
		UserSvc:    usrSvc,
		TermSvc:    termSvc,
		CourseSvc:  courseSvc,
		AttSvc:     attSvc,
		Views:      views,
		Idp:        idp,
		Validate:   validate,
		Translator: translator,
	})

	return &env{
		conf:      conf,
		server:    server,
		usrSvc:    usrSvc,
		termSvc:   termSvc,
		courseSvc: courseSvc,
		attSvc:    attSvc,
		idp:       idp,
		blob:      blob,
		db:        db,
	}
}

func newTranslator() ut.Translator {
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")
	return translator
}

func (e *env) createUser(t *testing.T, name, email, pwd, role string) user.User {
	usr, err := e.usrSvc.Create(context.Background(), user.NewUser{
		Name:     name,
		Email:    email,
		Password: pwd,
		Role:     role,
	})
	if err != nil {
		t.Fatalf("createUser() failed: %v", err)
	}
	return usr
}

func (e *env) createTerm(t *testing.T, name string, activate bool) term.Term {
	ctx := context.Background()
	tm, err := e.termSvc.Create(ctx, term.NewTerm{Name: name})
	if err != nil {
		t.Fatalf("createTerm() failed: %v", err)
	}
	if activate {
		if err = e.termSvc.SetActive(ctx, tm.ID); err != nil {
			t.Fatalf("createTerm() failed: %v", err)
		}
		tm, _ = e.termSvc.GetByID(ctx, tm.ID)
	}
	return tm
}

func (e *env) createCourse(t *testing.T, name, termID string) course.Course {
	c, err := e.courseSvc.Create(context.Background(), course.NewCourse{
		Name:        name,
		Description: name + " description",
		TermID:      termID,
	})
	if err != nil {
		t.Fatalf("createCourse() failed: %v", err)
	}
	return c
}

func (e *env) getToken(t *testing.T, usr user.User) string {
	claims := GetUserClaims(e.conf, usr)
	token, err := GenerateToken(e.conf, claims)
	if err != nil {
		t.Fatalf("getToken() failed: %v", err)
	}
	return token
}

func newAuthRequest(method, path, token string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	return req, rec
}

func newRequest(method, path string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	return newAuthRequest(method, path, "", data...)
}

func marshal(t *testing.T, v interface{}) []byte {
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal() failed: %v", err)
	}
	return data
}
