package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/aulavirtual/aula/core/term"
	"github.com/aulavirtual/aula/core/user"
)

type termApi struct {
	deps ServerDeps
}

func registerTermAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps ServerDeps) {
	api := termApi{deps: deps}

	tg := g.Group("/terms", jwt)
	tg.GET("", api.query)
	tg.GET("/active", api.active)
	tg.POST("", api.create, roleMiddleware(user.RoleAdmin))
	tg.POST("/:id/activate", api.activate, roleMiddleware(user.RoleAdmin))
}

func (api *termApi) query(ctx echo.Context) error {
	terms, err := api.deps.TermSvc.List(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying terms")
	}
	if terms == nil {
		terms = []term.Term{}
	}
	return ctx.JSON(http.StatusOK, terms)
}

func (api *termApi) active(ctx echo.Context) error {
	t, ok, err := api.deps.TermSvc.Active(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "finding active term")
	}
	if !ok {
		return ctx.JSON(http.StatusOK, ActiveTermResponse{Active: false})
	}
	return ctx.JSON(http.StatusOK, ActiveTermResponse{Active: true, Term: &t})
}

func (api *termApi) create(ctx echo.Context) error {
	var data term.NewTerm
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewTerm")
	}
	if err := data.Validate(api.deps.Validate); err != nil {
		return err
	}

	t, err := api.deps.TermSvc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating term")
	}
	return ctx.JSON(http.StatusCreated, t)
}

func (api *termApi) activate(ctx echo.Context) error {
	if err := api.deps.TermSvc.SetActive(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}

type ActiveTermResponse struct {
	Active bool       `json:"active"`
	Term   *term.Term `json:"term,omitempty"`
}
