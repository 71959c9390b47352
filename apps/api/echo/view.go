package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/aulavirtual/aula/core/user"
)

type viewApi struct {
	deps ServerDeps
}

func registerViewAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps ServerDeps) {
	api := viewApi{deps: deps}

	g.GET("/dashboard", api.dashboard, jwt)
	g.GET("/reports/term", api.report, jwt, roleMiddleware(user.RoleAdmin))
}

// dashboard assembles the portal for the caller's role. The role comes off
// the token claims; unknown roles get the student portal.
func (api *viewApi) dashboard(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}

	v, err := api.deps.Views.ForRole(ctx.Request().Context(), claims.Role, claims.Subject)
	if err != nil {
		return errors.Wrap(err, "building dashboard")
	}
	return ctx.JSON(http.StatusOK, v)
}

func (api *viewApi) report(ctx echo.Context) error {
	rep, err := api.deps.Views.Report(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "building term report")
	}
	return ctx.JSON(http.StatusOK, rep)
}
