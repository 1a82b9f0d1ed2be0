package echoapi

import (
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/madrasahapp/madrasah/core"
	"github.com/madrasahapp/madrasah/core/class"
	"github.com/madrasahapp/madrasah/core/user"
)

type classApi struct {
	svc      *class.Service
	usrSvc   *user.Service
	validate *validator.Validate
}

func registerClassAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps ServerDeps) {
	api := classApi{
		svc:      deps.ClassSvc,
		usrSvc:   deps.UserSvc,
		validate: deps.Validate,
	}

	cg := g.Group("/classes", jwt, principalMiddleware())
	cg.GET("", api.query)
	cg.POST("", api.create)
	cg.GET("/:id", api.retrieve)
	cg.PUT("/:id", api.update)
	cg.DELETE("/:id", api.destroy)
}

// Handlers

func (api *classApi) query(ctx echo.Context) error {
	pg := new(Pagination)
	pg.Bind(ctx)

	filter := new(class.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return errors.Wrap(err, "binding to QueryFilter")
	}
	filter.Page, filter.Limit = pg.Page, pg.Limit

	classes, total, err := api.svc.Filter(ctx.Request().Context(), *filter)
	if err != nil {
		return errors.Wrap(err, "querying classes")
	}
	if classes == nil {
		classes = []class.Class{}
	}
	return ctx.JSON(http.StatusOK, classesResponse{Classes: classes, Pagination: newPaginationInfo(*pg, total)})
}

func (api *classApi) create(ctx echo.Context) error {
	var data class.NewClass
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewClass")
	}
	reqCtx := ctx.Request().Context()
	if err := data.Validate(reqCtx, api.validate, api.svc); err != nil {
		return err
	}

	cls, err := api.svc.Create(reqCtx, data)
	if err != nil {
		return errors.Wrap(err, "creating class")
	}
	return ctx.JSON(http.StatusCreated, classMessageResponse{Message: "Class created successfully", Class: cls})
}

func (api *classApi) retrieve(ctx echo.Context) error {
	cls, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, classResponse{Class: cls})
}

func (api *classApi) update(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()
	cls, err := api.svc.GetByID(reqCtx, ctx.Param("id"))
	if err != nil {
		return err
	}

	var data class.UpdateClass
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateClass")
	}
	if err = data.Validate(reqCtx, cls, api.validate, api.svc); err != nil {
		return err
	}

	cls, err = api.svc.Update(reqCtx, cls, data)
	if err != nil {
		return errors.Wrap(err, "updating class")
	}
	return ctx.JSON(http.StatusOK, classMessageResponse{Message: "Class updated successfully", Class: cls})
}

// destroy hard-deletes a class; it is refused while students are still
// assigned to it.
func (api *classApi) destroy(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()
	cls, err := api.svc.GetByID(reqCtx, ctx.Param("id"))
	if err != nil {
		return err
	}

	count, err := api.usrSvc.CountStudentsByClass(reqCtx, cls.ID)
	if err != nil {
		return errors.Wrap(err, "counting students in class")
	}
	if count > 0 {
		return core.NewValidationError(
			fmt.Errorf("Cannot delete class. %d student(s) are assigned to this class.", count))
	}

	if err = api.svc.Delete(reqCtx, cls.ID); err != nil {
		return errors.Wrap(err, "deleting class")
	}
	return ctx.JSON(http.StatusOK, messageResponse{Message: "Class deleted successfully"})
}

type (
	classResponse struct {
		Class class.Class `json:"class"`
	}

	classMessageResponse struct {
		Message string      `json:"message"`
		Class   class.Class `json:"class"`
	}

	classesResponse struct {
		Classes    []class.Class  `json:"classes"`
		Pagination paginationInfo `json:"pagination"`
	}
)
