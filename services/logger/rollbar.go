package logsvc

import (
	"log"

	"github.com/rollbar/rollbar-go"
	rberrors "github.com/rollbar/rollbar-go/errors"

	"github.com/aulavirtual/aula/core"
	"github.com/aulavirtual/aula/core/course"
	"github.com/aulavirtual/aula/core/term"
	"github.com/aulavirtual/aula/core/user"
)

// RollbarLogger ships log entries to rollbar and mirrors them on a standard
// logger. Domain values passed as args enrich the rollbar item: a user.User
// sets the person, term.Term and course.Course become custom payload fields
// so records engine incidents can be filtered by term or course.
type RollbarLogger struct {
	std *log.Logger
}

var _ core.Logger = (*RollbarLogger)(nil)

func NewRollbarLogger(std *log.Logger, conf *core.Config) *RollbarLogger {
	rollbar.SetToken(conf.RollbarToken)
	rollbar.SetEnvironment(conf.Env)
	rollbar.SetServerHost(conf.Server.Host)
	rollbar.SetCodeVersion(conf.Build)
	rollbar.SetStackTracer(rberrors.StackTracer)
	return &RollbarLogger{std: std}
}

func (l RollbarLogger) Enable(enabled bool) {
	rollbar.SetEnabled(enabled)
}

// tag splits domain values out of args: the first user.User becomes the
// rollbar person, terms and courses fold into one custom payload map, and
// everything else (errors, strings, maps) passes through unchanged.
func (l RollbarLogger) tag(msg string, args []interface{}) []interface{} {
	var usrSet bool
	custom := map[string]interface{}{}
	items := make([]interface{}, 0, len(args)+2)
	items = append(items, msg)
	for _, arg := range args {
		switch v := arg.(type) {
		case user.User:
			if !usrSet { // only the first User names the person
				rollbar.SetPerson(v.ID, v.Name, v.Email)
				usrSet = true
			}
		case term.Term:
			custom["term_id"] = v.ID
			custom["term_status"] = v.Status
		case course.Course:
			custom["course_id"] = v.ID
			custom["course_term_id"] = v.TermID
		default:
			items = append(items, arg)
		}
	}
	if !usrSet {
		rollbar.ClearPerson()
	}
	if len(custom) > 0 {
		items = append(items, custom)
	}
	return items
}

func (l RollbarLogger) print(msg string, args []interface{}) {
	l.std.Println(msg)
	for _, arg := range args {
		l.std.Printf("%+v\n", arg)
	}
}

func (l RollbarLogger) Debug(msg string, args ...interface{}) {
	rollbar.Debug(l.tag(msg, args)...)
	l.print(msg, args)
}

func (l RollbarLogger) Info(msg string, args ...interface{}) {
	rollbar.Info(l.tag(msg, args)...)
	l.print(msg, args)
}

func (l RollbarLogger) Warn(msg string, args ...interface{}) {
	rollbar.Warning(l.tag(msg, args)...)
	l.print(msg, args)
}

func (l RollbarLogger) Error(msg string, args ...interface{}) {
	rollbar.Error(l.tag(msg, args)...)
	l.print(msg, args)
}

func (l RollbarLogger) Fatal(msg string, args ...interface{}) {
	rollbar.Critical(l.tag(msg, args)...)
	l.print(msg, args)
	l.std.Fatal(msg)
}
