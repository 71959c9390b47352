package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/aulavirtual/aula/core"
	"github.com/aulavirtual/aula/core/user"
)

type userApi struct {
	deps ServerDeps
}

func registerUserAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps ServerDeps) {
	api := userApi{deps: deps}

	ug := g.Group("/users")

	// un-authed endpoints
	ug.POST("/login", api.login)

	// authed endpoints
	ag := ug.Group("", jwt)
	ag.POST("/logout", api.logout)
	ag.POST("/register", api.create, roleMiddleware(user.RoleAdmin))
	ag.GET("", api.query, roleMiddleware(user.RoleAdmin))

	dg := ag.Group("/:id")
	dg.GET("", api.retrieve, ctxUserOrAdminMiddleware)
	dg.PUT("", api.update, roleMiddleware(user.RoleAdmin))
	dg.DELETE("", api.destroy, roleMiddleware(user.RoleAdmin))
}

// Handlers

func (api *userApi) login(ctx echo.Context) error {
	var data LoginRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to LoginRequest")
	}
	if err := data.Validate(api.deps.Validate); err != nil {
		return err
	}

	claims, err := authenticate(ctx.Request().Context(), data.Email, data.Password, api.deps)
	if err != nil {
		return err
	}
	token, err := GenerateToken(api.deps.Conf, claims)
	if err != nil {
		return errors.Wrap(err, "generating token")
	}

	return ctx.JSON(http.StatusOK, LoginResponse{Token: token})
}

func (api *userApi) logout(ctx echo.Context) error {
	token, err := getContextToken(ctx)
	if err != nil {
		return err
	}
	if err = api.deps.Idp.EndSession(ctx.Request().Context(), token); err != nil {
		return errors.Wrap(err, "ending session")
	}
	return ctx.NoContent(http.StatusNoContent)
}

// create registers a new user. The account is provisioned by the identity
// provider in its own session, so the admin performing the registration
// stays signed in.
func (api *userApi) create(ctx echo.Context) error {
	var data user.NewUser
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewUser")
	}
	reqCtx := ctx.Request().Context()
	if err := data.Validate(reqCtx, api.deps.Validate, api.deps.UserSvc); err != nil {
		return err
	}

	usr, err := api.deps.UserSvc.Create(reqCtx, data)
	if err != nil {
		if errors.Cause(err) == user.ErrEmailExists {
			return core.NewValidationError(nil, core.FieldError{Field: "email", Error: err.Error()})
		}
		return errors.Wrap(err, "creating user")
	}

	return ctx.JSON(http.StatusCreated, usr)
}

func (api *userApi) query(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()

	var users []user.User
	var err error
	if role := ctx.QueryParam("role"); role != "" {
		users, err = api.deps.UserSvc.FilterByRole(reqCtx, role)
	} else {
		users, err = api.deps.UserSvc.QueryAll(reqCtx)
	}
	if err != nil {
		return errors.Wrap(err, "querying users")
	}
	if users == nil {
		users = []user.User{}
	}
	return ctx.JSON(http.StatusOK, users)
}

func (api *userApi) retrieve(ctx echo.Context) error {
	usr, err := api.deps.UserSvc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, usr)
}

func (api *userApi) update(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()
	usr, err := api.deps.UserSvc.GetByID(reqCtx, ctx.Param("id"))
	if err != nil {
		return err
	}

	var data user.UpdateUser
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateUser")
	}
	if err = data.Validate(api.deps.Validate, usr); err != nil {
		return err
	}

	usr, err = api.deps.UserSvc.Update(reqCtx, usr.ID, data)
	if err != nil {
		return errors.Wrap(err, "updating user")
	}
	return ctx.JSON(http.StatusOK, usr)
}

func (api *userApi) destroy(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}
	// ctxUser cannot delete themselves
	if ctx.Param("id") == claims.Subject {
		return errHttpForbidden
	}

	if err = api.deps.UserSvc.Delete(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}

// ctxUserOrAdminMiddleware lets users read their own record; admins any.
func ctxUserOrAdminMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		claims, err := getContextClaims(ctx)
		if err != nil {
			return errors.Wrap(err, "getting context claims")
		}
		if ctx.Param("id") == claims.Subject || claims.Role == user.RoleAdmin {
			return next(ctx)
		}
		return errHttpNotFound
	}
}

type (
	LoginRequest struct {
		Email    string `json:"email" validate:"required,email"`
		Password string `json:"password" validate:"required"`
	}

	LoginResponse struct {
		Token string `json:"token"`
	}
)

func (lr *LoginRequest) Validate(validate *validator.Validate) error {
	lr.Email = core.CleanString(lr.Email, true /* lower */)
	return validate.Struct(lr)
}
