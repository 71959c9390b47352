package main

import (
	"context"
	"expvar"
	"fmt"
	"log"
	"net/http"
	"os"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"

	echoapi "github.com/aulavirtual/aula/apps/api/echo"
	"github.com/aulavirtual/aula/core"
	"github.com/aulavirtual/aula/core/attendance"
	"github.com/aulavirtual/aula/core/course"
	"github.com/aulavirtual/aula/core/term"
	"github.com/aulavirtual/aula/core/user"
	"github.com/aulavirtual/aula/core/view"
	blobsvc "github.com/aulavirtual/aula/services/blob"
	emailsvc "github.com/aulavirtual/aula/services/email"
	identitysvc "github.com/aulavirtual/aula/services/identity"
	logsvc "github.com/aulavirtual/aula/services/logger"
	"github.com/aulavirtual/aula/storage/database"
)

func main() {
	// =========================================================================
	// Set up Dependencies

	conf := core.NewConfig()

	logger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "API : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	logger.Enable(!conf.Debug)

	// set up DB
	db, err := setUpDB(conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
	}
	defer func() {
		if err = db.Close(); err != nil {
			logger.Fatal("Failed to close DB", err)
		}
	}()

	// set up services
	var mailSvc core.EmailService
	if conf.Debug {
		mailSvc = emailsvc.NewConsoleService(conf)
	} else {
		mailSvc = emailsvc.NewSendgridService(conf, logger)
	}

	var blobStore core.BlobStore
	if conf.Blob.CloudName != "" {
		blobStore = blobsvc.NewCloudinaryStore(conf)
	} else {
		blobStore = blobsvc.NewInMemStore()
	}

	idp := identitysvc.NewLocalProvider(database.NewAccountRepository(db))

	usrSvc := user.NewService(database.NewUserRepository(db), idp, mailSvc, conf)
	termSvc := term.NewService(database.NewTermRepository(db), logger)
	courseSvc := course.NewService(database.NewCourseRepository(db), database.NewTermRepository(db), blobStore)
	attSvc := attendance.NewService(database.NewAttendanceRepository(db))
	views := view.NewBuilder(usrSvc, termSvc, courseSvc, attSvc)

	// =========================================================================
	// Initialize App

	logger.Info(fmt.Sprintf("Application initializing : version %q", conf.Build))
	defer logger.Info("Application stopped")

	validate := validator.New()
	translator := newTranslator()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)

	// =========================================================================
	// Start Debug Service
	//
	// /debug/pprof - Added to the default mux by importing the net/http/pprof package.
	// /debug/vars - Added to the default mux by importing the expvar package.

	expvar.NewString("build").Set(conf.Build)
	expvar.NewString("env").Set(conf.Env)

	go func() {
		if err = http.ListenAndServe(conf.Server.DebugHost, http.DefaultServeMux); err != nil {
			logger.Error(fmt.Sprintf("debug server closed: %v", err), err)
		}
	}()

	// =========================================================================
	// Start API Service

	server := echoapi.NewServer(
		echoapi.ServerDeps{
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
		},
	)

	go func() {
		server.Start()
	}()

	// =========================================================================
	// Shutdown

	select {
	case err = <-server.Errors():
		logger.Fatal(fmt.Sprintf("server error: %v", err), err)

	case sig := <-server.ShutdownSignal():
		logger.Info(fmt.Sprintf("%v: Start shutdown...", sig))

		// give outstanding requests a deadline for completion
		ctx, cancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
		defer cancel()

		// asking listener to shutdown and shed load
		if err = server.Shutdown(ctx); err != nil {
			logger.Error(fmt.Sprintf("could not stop server gracefully: %v", err), err)

			if err = server.Close(); err != nil {
				logger.Fatal(fmt.Sprintf("could not force stop server: %v", err), err)
			}
		}
	}
}

func setUpDB(conf *core.Config) (*sqlx.DB, error) {
	if err := database.CreateIfNotExist(conf); err != nil {
		return nil, err
	}

	db, err := database.Open(conf)
	if err != nil {
		return nil, err
	}

	if err = database.Migrate(conf); err != nil {
		return nil, err
	}
	return db, nil
}

func newTranslator() ut.Translator {
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")
	return translator
}
