package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/mugilan0610/institute-management-system/core"
	"github.com/mugilan0610/institute-management-system/core/course"
	"github.com/mugilan0610/institute-management-system/core/result"
)

type (
	EligibilityResponse struct {
		Success bool `json:"success"`
		course.Eligibility
	}

	CompleteTaskRequest struct {
		TaskID    int `json:"task_id"`
		StudentID int `json:"student_id"` // optional, must match the session student
	}
)

type courseApi struct {
	courses *course.Service
	results *result.Service
}

func registerCourseAPI(g *echo.Group, guard echo.MiddlewareFunc, api courseApi) {
	cg := g.Group("/courses", guard)
	cg.GET("", api.query)
	cg.GET("/:courseId/eligible/:studentId", api.eligibility)

	tg := g.Group("/tasks", guard)
	tg.GET("/course/:courseId", api.tasks)
	tg.POST("/complete", api.completeTask)

	rg := g.Group("/results", guard)
	rg.GET("/student/:studentId", api.studentResults)
}

// Handlers

func (api *courseApi) query(ctx echo.Context) error {
	courses, err := api.courses.Query(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying courses")
	}
	return ctx.JSON(http.StatusOK, ListResponse{Success: true, Data: courses})
}

func (api *courseApi) eligibility(ctx echo.Context) error {
	courseID, err := pathID(ctx, "courseId")
	if err != nil {
		return err
	}
	studentID, err := pathID(ctx, "studentId")
	if err != nil {
		return err
	}
	elig, err := api.courses.Eligibility(ctx.Request().Context(), courseID, studentID)
	if err != nil {
		return errors.Wrap(err, "computing eligibility")
	}
	return ctx.JSON(http.StatusOK, EligibilityResponse{Success: true, Eligibility: elig})
}

func (api *courseApi) tasks(ctx echo.Context) error {
	courseID, err := pathID(ctx, "courseId")
	if err != nil {
		return err
	}
	stu, err := getContextStudent(ctx)
	if err != nil {
		return err
	}
	tasks, err := api.courses.Tasks(ctx.Request().Context(), courseID, stu.ID)
	if err != nil {
		return errors.Wrap(err, "querying course tasks")
	}
	return ctx.JSON(http.StatusOK, tasks)
}

func (api *courseApi) completeTask(ctx echo.Context) error {
	var data CompleteTaskRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to CompleteTaskRequest")
	}
	stu, err := getContextStudent(ctx)
	if err != nil {
		return err
	}
	if data.TaskID <= 0 {
		return core.NewValidationError(errors.New("task_id is required."), core.FieldError{Field: "task_id", Error: "task_id is required"})
	}
	if data.StudentID != 0 && data.StudentID != stu.ID {
		return core.NewValidationError(
			errors.New("student_id does not match the signed in student."),
			core.FieldError{Field: "student_id", Error: "student_id does not match the signed in student"},
		)
	}

	if _, err = api.courses.CompleteTask(ctx.Request().Context(), stu.ID, data.TaskID); err != nil {
		return errors.Wrap(err, "completing task")
	}
	return ctx.JSON(http.StatusOK, MessageResponse{Success: true, Message: "Task marked as completed."})
}

func (api *courseApi) studentResults(ctx echo.Context) error {
	studentID, err := pathID(ctx, "studentId")
	if err != nil {
		return err
	}
	results, err := api.results.QueryByStudent(ctx.Request().Context(), studentID)
	if err != nil {
		return errors.Wrap(err, "querying results")
	}
	return ctx.JSON(http.StatusOK, results)
}
