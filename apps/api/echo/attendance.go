package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/mugilan0610/institute-management-system/core"
	"github.com/mugilan0610/institute-management-system/core/attendance"
	"github.com/mugilan0610/institute-management-system/core/student"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type (
	StartAttendanceRequest struct {
		StudentID int `json:"student_id"`
	}

	StartAttendanceResponse struct {
		Success      bool `json:"success"`
		AttendanceID int  `json:"attendance_id"`
	}

	LogoutRequest struct {
		AttendanceID int `json:"attendance_id"`
	}
)

type attendanceApi struct {
	svc      *attendance.Service
	students *student.Service
}

func registerAttendanceAPI(g *echo.Group, guard echo.MiddlewareFunc, api attendanceApi) {
	ag := g.Group("/attendance", guard)
	ag.GET("/student/:studentId", api.history)
	ag.GET("/student/:studentId/export", api.export)
	ag.POST("/start", api.start)
	ag.POST("/logout", api.logout)
}

// Handlers

func (api *attendanceApi) history(ctx echo.Context) error {
	studentID, err := pathID(ctx, "studentId")
	if err != nil {
		return err
	}
	records, err := api.svc.History(ctx.Request().Context(), studentID)
	if err != nil {
		return errors.Wrap(err, "querying attendance")
	}
	return ctx.JSON(http.StatusOK, records)
}

func (api *attendanceApi) export(ctx echo.Context) error {
	studentID, err := pathID(ctx, "studentId")
	if err != nil {
		return err
	}
	records, err := api.svc.History(ctx.Request().Context(), studentID)
	if err != nil {
		return errors.Wrap(err, "querying attendance")
	}
	buf, err := attendance.Export(records)
	if err != nil {
		return errors.Wrap(err, "exporting attendance")
	}

	ctx.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="`+attendance.ExportFilename(studentID)+`"`)
	return ctx.Blob(http.StatusOK, xlsxContentType, buf.Bytes())
}

func (api *attendanceApi) start(ctx echo.Context) error {
	var data StartAttendanceRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to StartAttendanceRequest")
	}
	if data.StudentID <= 0 {
		return core.NewValidationError(errors.New("student_id is required."), core.FieldError{Field: "student_id", Error: "student_id is required"})
	}
	if _, err := api.students.GetByID(ctx.Request().Context(), data.StudentID); err != nil {
		return errors.Wrap(err, "finding student by ID")
	}

	att, err := api.svc.Start(ctx.Request().Context(), data.StudentID)
	if err != nil {
		return errors.Wrap(err, "starting attendance")
	}
	return ctx.JSON(http.StatusCreated, StartAttendanceResponse{Success: true, AttendanceID: att.ID})
}

func (api *attendanceApi) logout(ctx echo.Context) error {
	var data LogoutRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to LogoutRequest")
	}
	if data.AttendanceID <= 0 {
		return core.NewValidationError(errors.New("attendance_id is required."), core.FieldError{Field: "attendance_id", Error: "attendance_id is required"})
	}

	_, alreadyClosed, err := api.svc.Logout(ctx.Request().Context(), data.AttendanceID)
	if err != nil {
		return errors.Wrap(err, "logging out")
	}
	if alreadyClosed {
		return ctx.JSON(http.StatusOK, MessageResponse{Success: true, Message: "Attendance already logged out."})
	}
	return ctx.JSON(http.StatusOK, MessageResponse{Success: true, Message: "Logout time recorded."})
}
