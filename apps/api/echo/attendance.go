package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/aulavirtual/aula/core"
	"github.com/aulavirtual/aula/core/attendance"
	"github.com/aulavirtual/aula/core/user"
)

type attendanceApi struct {
	deps ServerDeps
}

func registerAttendanceAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps ServerDeps) {
	api := attendanceApi{deps: deps}

	ag := g.Group("/courses/:id/attendance", jwt)
	ag.GET("", api.retrieve, roleMiddleware(user.RoleTeacher, user.RoleAdmin))
	ag.PUT("", api.save, roleMiddleware(user.RoleTeacher, user.RoleAdmin))
	ag.GET("/dates", api.dates, roleMiddleware(user.RoleTeacher, user.RoleAdmin))
	ag.GET("/history", api.history)
}

// retrieve returns the sheet for one calendar day; a day with no saved
// sheet comes back with empty entries so the client can mark from scratch.
func (api *attendanceApi) retrieve(ctx echo.Context) error {
	date := ctx.QueryParam("date")
	if date == "" {
		return core.NewValidationError(nil, core.FieldError{Field: "date", Error: "date is required"})
	}

	sheet, err := api.deps.AttSvc.Get(ctx.Request().Context(), ctx.Param("id"), date)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, sheet)
}

func (api *attendanceApi) save(ctx echo.Context) error {
	var data SaveSheetRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to SaveSheetRequest")
	}

	sheet := attendance.Sheet{
		CourseID: ctx.Param("id"),
		Date:     data.Date,
		Entries:  data.Entries,
	}
	if err := api.deps.AttSvc.Save(ctx.Request().Context(), sheet); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}

// dates lists the days that already have a saved sheet for the course.
func (api *attendanceApi) dates(ctx echo.Context) error {
	dates, err := api.deps.AttSvc.ListDates(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	if dates == nil {
		dates = []string{}
	}
	return ctx.JSON(http.StatusOK, dates)
}

// history returns one student's per-day record for a course. Students may
// only consult their own.
func (api *attendanceApi) history(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}

	studentID := ctx.QueryParam("student_id")
	if studentID == "" {
		studentID = claims.Subject
	}
	if claims.Role == user.RoleStudent && studentID != claims.Subject {
		return errHttpForbidden
	}

	days, err := api.deps.AttSvc.StudentHistory(ctx.Request().Context(), ctx.Param("id"), studentID)
	if err != nil {
		return err
	}
	if days == nil {
		days = []attendance.DayStatus{}
	}
	return ctx.JSON(http.StatusOK, days)
}

type SaveSheetRequest struct {
	Date    string                       `json:"date"`
	Entries map[string]attendance.Status `json:"entries"`
}
