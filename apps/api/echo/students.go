package echoapi

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/mugilan0610/institute-management-system/core"
	"github.com/mugilan0610/institute-management-system/core/student"
)

type (
	// MessageResponse is the body of operations that only report an outcome.
	MessageResponse struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
	}

	RegisterResponse struct {
		Success bool            `json:"success"`
		Message string          `json:"message"`
		Student student.Student `json:"student"`
		Token   string          `json:"token"`
	}

	LoginResponse struct {
		Success      bool            `json:"success"`
		Message      string          `json:"message"`
		Token        string          `json:"token"`
		Student      student.Student `json:"student"`
		AttendanceID int             `json:"attendance_id"`
	}

	StudentResponse struct {
		Success bool            `json:"success"`
		Student student.Student `json:"student"`
	}

	// ListResponse wraps a collection under "data".
	ListResponse struct {
		Success bool        `json:"success"`
		Data    interface{} `json:"data"`
	}
)

type studentApi struct {
	svc     *student.Service
	metrics *Metrics
}

func registerStudentAPI(g *echo.Group, limit echo.MiddlewareFunc, api studentApi) {
	sg := g.Group("/students")
	sg.POST("/register", api.register, limit)
	sg.POST("/login", api.login, limit)
	sg.GET("", api.query)
	sg.GET("/:id", api.retrieve)
	sg.PUT("/:id", api.update)
	sg.DELETE("/:id", api.destroy)

	// aliases
	ag := g.Group("/auth")
	ag.POST("/register", api.register, limit)
	ag.POST("/login", api.login, limit)
}

// Handlers

func (api *studentApi) register(ctx echo.Context) error {
	var data student.NewStudent
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewStudent")
	}

	reg, err := api.svc.Register(ctx.Request().Context(), data)
	api.metrics.observeRegistration(err)
	if err != nil {
		return errors.Wrap(err, "registering student")
	}

	return ctx.JSON(http.StatusCreated, RegisterResponse{
		Success: true,
		Message: "Student registered successfully.",
		Student: reg.Student,
		Token:   reg.Token,
	})
}

func (api *studentApi) login(ctx echo.Context) error {
	var data student.Credentials
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to Credentials")
	}

	login, err := api.svc.Login(ctx.Request().Context(), data)
	api.metrics.observeLogin(err)
	if err != nil {
		return errors.Wrap(err, "logging in")
	}

	return ctx.JSON(http.StatusOK, LoginResponse{
		Success:      true,
		Message:      "Login successful.",
		Token:        login.Token,
		Student:      login.Student,
		AttendanceID: login.AttendanceID,
	})
}

func (api *studentApi) query(ctx echo.Context) error {
	students, err := api.svc.QueryAll(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying students")
	}
	return ctx.JSON(http.StatusOK, ListResponse{Success: true, Data: students})
}

func (api *studentApi) retrieve(ctx echo.Context) error {
	id, err := pathID(ctx, "id")
	if err != nil {
		return err
	}
	stu, err := api.svc.GetByID(ctx.Request().Context(), id)
	if err != nil {
		return errors.Wrap(err, "finding student by ID")
	}
	return ctx.JSON(http.StatusOK, StudentResponse{Success: true, Student: stu})
}

func (api *studentApi) update(ctx echo.Context) error {
	id, err := pathID(ctx, "id")
	if err != nil {
		return err
	}
	var data student.UpdateStudent
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateStudent")
	}

	changed, err := api.svc.Update(ctx.Request().Context(), id, data)
	if err != nil {
		return errors.Wrap(err, "updating student")
	}
	if !changed {
		return ctx.JSON(http.StatusOK, MessageResponse{Success: true, Message: "No changes."})
	}
	return ctx.JSON(http.StatusOK, MessageResponse{Success: true, Message: "Student updated."})
}

func (api *studentApi) destroy(ctx echo.Context) error {
	id, err := pathID(ctx, "id")
	if err != nil {
		return err
	}
	if err = api.svc.Delete(ctx.Request().Context(), id); err != nil {
		return errors.Wrap(err, "deleting student")
	}
	return ctx.JSON(http.StatusOK, MessageResponse{Success: true, Message: "Student deleted."})
}

// pathID parses a positive integer path parameter.
func pathID(ctx echo.Context, name string) (int, error) {
	id, err := strconv.Atoi(ctx.Param(name))
	if err != nil || id <= 0 {
		return 0, core.NewValidationError(errors.Errorf("Invalid %s.", name), core.FieldError{Field: name, Error: "must be a positive integer"})
	}
	return id, nil
}
