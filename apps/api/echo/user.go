package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/madrasahapp/madrasah/core"
	"github.com/madrasahapp/madrasah/core/user"
)

type userApi struct {
	conf     *core.Config
	svc      *user.Service
	validate *validator.Validate
}

func registerUserAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps ServerDeps) {
	api := userApi{
		conf:     deps.Conf,
		svc:      deps.UserSvc,
		validate: deps.Validate,
	}

	ag := g.Group("/auth")

	// un-authed endpoints
	// TODO: rate limit `/login`
	ag.POST("/login", api.login)

	// self-service endpoints; any authenticated role
	pg := ag.Group("/profile", jwt)
	pg.GET("", api.profile)
	pg.PUT("", api.updateProfile)

	// management endpoints; principal only
	ug := g.Group("/users", jwt, principalMiddleware())
	ug.GET("", api.query)
	ug.POST("", api.create)
	ug.GET("/:id", api.retrieve)
	ug.PUT("/:id", api.update)
	ug.DELETE("/:id", api.destroy)
}

// Handlers

func (api *userApi) login(ctx echo.Context) error {
	var data LoginRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to LoginRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	usr, err := authenticate(ctx.Request().Context(), data.Identifier, data.Password, api.svc)
	if err != nil {
		return err
	}

	token, err := GenerateToken(api.conf, GetUserClaims(api.conf, usr))
	if err != nil {
		return errors.Wrap(err, "generating token")
	}

	return ctx.JSON(http.StatusOK, LoginResponse{
		Message: "Login successful",
		User:    newAuthUser(usr),
		Token:   token,
	})
}

func (api *userApi) profile(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.svc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	return ctx.JSON(http.StatusOK, userResponse{User: usr})
}

func (api *userApi) updateProfile(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.svc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	var data user.UpdateProfile
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateProfile")
	}
	reqCtx := ctx.Request().Context()
	if err = data.Validate(reqCtx, usr, api.validate, api.svc); err != nil {
		return err
	}

	usr, err = api.svc.UpdateProfile(reqCtx, usr, data)
	if err != nil {
		return errors.Wrap(err, "updating profile")
	}
	ctx.Set(contextUserKey, usr)

	return ctx.JSON(http.StatusOK, userMessageResponse{Message: "Profile updated successfully", User: usr})
}

func (api *userApi) query(ctx echo.Context) error {
	pg := new(Pagination)
	pg.Bind(ctx)

	filter := new(user.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return errors.Wrap(err, "binding to QueryFilter")
	}
	// only teacher|student listings may be narrowed by role
	if filter.Role != user.RoleTeacher && filter.Role != user.RoleStudent {
		filter.Role = ""
	}
	filter.Page, filter.Limit = pg.Page, pg.Limit

	users, total, err := api.svc.Filter(ctx.Request().Context(), *filter)
	if err != nil {
		return errors.Wrap(err, "querying users")
	}
	if users == nil {
		users = []user.User{}
	}
	return ctx.JSON(http.StatusOK, usersResponse{Users: users, Pagination: newPaginationInfo(*pg, total)})
}

func (api *userApi) create(ctx echo.Context) error {
	var data user.NewUser
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewUser")
	}
	reqCtx := ctx.Request().Context()
	if err := data.Validate(reqCtx, api.validate, api.svc); err != nil {
		return err
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	usr, err := api.svc.Create(reqCtx, data, claims.Subject)
	if err != nil {
		return errors.Wrap(err, "creating user")
	}

	return ctx.JSON(http.StatusCreated, userMessageResponse{Message: "User created successfully", User: usr})
}

func (api *userApi) retrieve(ctx echo.Context) error {
	usr, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, userResponse{User: usr})
}

func (api *userApi) update(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()
	usr, err := api.svc.GetByID(reqCtx, ctx.Param("id"))
	if err != nil {
		return err
	}

	var data user.UpdateUser
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateUser")
	}
	if err = data.Validate(reqCtx, usr, api.validate, api.svc); err != nil {
		return err
	}

	usr, err = api.svc.Update(reqCtx, usr, data)
	if err != nil {
		return errors.Wrap(err, "updating user")
	}

	return ctx.JSON(http.StatusOK, userMessageResponse{Message: "User updated successfully", User: usr})
}

func (api *userApi) destroy(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()
	usr, err := api.svc.GetByID(reqCtx, ctx.Param("id"))
	if err != nil {
		return err
	}

	if err = api.svc.Deactivate(reqCtx, usr); err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, messageResponse{Message: "User deactivated successfully"})
}

type (
	LoginRequest struct {
		Identifier string `json:"identifier" validate:"required"`
		Password   string `json:"password" validate:"required"`
	}

	// authUser is the denormalized identity snapshot returned on login;
	// clients cache it until the next login or profile fetch.
	authUser struct {
		ID        string    `json:"id"`
		Email     string    `json:"email"`
		Phone     string    `json:"phone,omitempty"`
		Role      user.Role `json:"role"`
		FirstName string    `json:"firstName"`
		LastName  string    `json:"lastName"`
		FullName  string    `json:"fullName"`
		IsActive  bool      `json:"isActive"`
	}

	LoginResponse struct {
		Message string   `json:"message"`
		User    authUser `json:"user"`
		Token   string   `json:"token"`
	}

	userResponse struct {
		User user.User `json:"user"`
	}

	userMessageResponse struct {
		Message string    `json:"message"`
		User    user.User `json:"user"`
	}

	usersResponse struct {
		Users      []user.User    `json:"users"`
		Pagination paginationInfo `json:"pagination"`
	}

	messageResponse struct {
		Message string `json:"message"`
	}
)

func newAuthUser(usr user.User) authUser {
	return authUser{
		ID:        usr.ID,
		Email:     usr.Email,
		Phone:     usr.Phone,
		Role:      usr.Role,
		FirstName: usr.FirstName,
		LastName:  usr.LastName,
		FullName:  usr.FullName(),
		IsActive:  usr.IsActive,
	}
}

func (lr *LoginRequest) Validate(validate *validator.Validate) error {
	lr.Identifier = core.CleanString(lr.Identifier)
	return validate.Struct(lr)
}
