package echoapi

import (
	"io"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/aulavirtual/aula/core"
	"github.com/aulavirtual/aula/core/course"
	"github.com/aulavirtual/aula/core/user"
)

type courseApi struct {
	deps ServerDeps
}

func registerCourseAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps ServerDeps) {
	api := courseApi{deps: deps}

	cg := g.Group("/courses", jwt)
	cg.GET("", api.query)
	cg.POST("", api.create, roleMiddleware(user.RoleAdmin))

	dg := cg.Group("/:id")
	dg.GET("", api.retrieve)
	dg.DELETE("", api.destroy, roleMiddleware(user.RoleAdmin))
	dg.PUT("/teacher", api.assignTeacher, roleMiddleware(user.RoleAdmin))
	dg.POST("/students", api.enroll, roleMiddleware(user.RoleAdmin))
	dg.PUT("/grades", api.recordGrades, roleMiddleware(user.RoleTeacher, user.RoleAdmin))
	dg.POST("/materials", api.addMaterial, roleMiddleware(user.RoleTeacher, user.RoleAdmin))
}

func (api *courseApi) create(ctx echo.Context) error {
	var data course.NewCourse
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewCourse")
	}
	reqCtx := ctx.Request().Context()
	if err := data.Validate(reqCtx, api.deps.Validate, api.deps.CourseSvc); err != nil {
		return err
	}

	c, err := api.deps.CourseSvc.Create(reqCtx, data)
	if err != nil {
		return errors.Wrap(err, "creating course")
	}
	return ctx.JSON(http.StatusCreated, c)
}

func (api *courseApi) query(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()
	termID := ctx.QueryParam("term_id")
	if termID == "" {
		// default to the active term's catalog
		t, ok, err := api.deps.TermSvc.Active(reqCtx)
		if err != nil {
			return errors.Wrap(err, "finding active term")
		}
		if !ok {
			return ctx.JSON(http.StatusOK, []course.Course{})
		}
		termID = t.ID
	}

	courses, err := api.deps.CourseSvc.ListForTerm(reqCtx, termID)
	if err != nil {
		return errors.Wrap(err, "querying courses")
	}
	if courses == nil {
		courses = []course.Course{}
	}
	return ctx.JSON(http.StatusOK, courses)
}

func (api *courseApi) retrieve(ctx echo.Context) error {
	c, err := api.deps.CourseSvc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, c)
}

func (api *courseApi) destroy(ctx echo.Context) error {
	if err := api.deps.CourseSvc.Delete(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *courseApi) assignTeacher(ctx echo.Context) error {
	var data AssignTeacherRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to AssignTeacherRequest")
	}
	if err := api.deps.Validate.Struct(&data); err != nil {
		return err
	}

	reqCtx := ctx.Request().Context()
	usr, err := api.deps.UserSvc.GetByID(reqCtx, data.TeacherID)
	if err != nil {
		if errors.Cause(err) == user.ErrNotFound {
			return core.NewValidationError(nil, core.FieldError{Field: "teacher_id", Error: "no such user"})
		}
		return errors.Wrap(err, "finding teacher")
	}
	if !usr.IsTeacher() {
		return core.NewValidationError(nil, core.FieldError{Field: "teacher_id", Error: "user is not a teacher"})
	}

	if err = api.deps.CourseSvc.AssignTeacher(reqCtx, ctx.Param("id"), data.TeacherID); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *courseApi) enroll(ctx echo.Context) error {
	var data EnrollRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to EnrollRequest")
	}
	if err := api.deps.Validate.Struct(&data); err != nil {
		return err
	}

	reqCtx := ctx.Request().Context()
	usr, err := api.deps.UserSvc.GetByID(reqCtx, data.StudentID)
	if err != nil {
		if errors.Cause(err) == user.ErrNotFound {
			return core.NewValidationError(nil, core.FieldError{Field: "student_id", Error: "no such user"})
		}
		return errors.Wrap(err, "finding student")
	}
	if !usr.IsStudent() {
		return core.NewValidationError(nil, core.FieldError{Field: "student_id", Error: "user is not a student"})
	}

	if err = api.deps.CourseSvc.Enroll(reqCtx, ctx.Param("id"), data.StudentID); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *courseApi) recordGrades(ctx echo.Context) error {
	var data RecordGradesRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to RecordGradesRequest")
	}

	if err := api.deps.CourseSvc.RecordGrades(ctx.Request().Context(), ctx.Param("id"), data.Grades); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *courseApi) addMaterial(ctx echo.Context) error {
	fileHdr, err := ctx.FormFile("file")
	if err != nil {
		return core.NewValidationError(nil, core.FieldError{Field: "file", Error: "file is required"})
	}
	file, err := fileHdr.Open()
	if err != nil {
		return errors.Wrap(err, "opening uploaded file")
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return errors.Wrap(err, "reading uploaded file")
	}

	name := ctx.FormValue("name")
	if name == "" {
		name = fileHdr.Filename
	}

	mat, err := api.deps.CourseSvc.AddMaterial(ctx.Request().Context(), ctx.Param("id"), name, data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, mat)
}

type (
	AssignTeacherRequest struct {
		TeacherID string `json:"teacher_id" validate:"required"`
	}

	EnrollRequest struct {
		StudentID string `json:"student_id" validate:"required"`
	}

	RecordGradesRequest struct {
		Grades map[string]string `json:"grades"`
	}
)
