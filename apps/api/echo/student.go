package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/shule/core/school"
	"github.com/trezcool/shule/core/user"
)

const contextStudentKey = "student"

type studentScreens struct {
	svc school.Service
}

func (scr studentScreens) student(ctx echo.Context) (school.Student, error) {
	if std, ok := ctx.Get(contextStudentKey).(school.Student); ok {
		return std, nil
	}

	usr, ok := ctx.Get(contextUserKey).(user.User)
	if !ok {
		return school.Student{}, errUnauthorized
	}
	std, err := scr.svc.StudentForUser(ctx.Request().Context(), usr)
	if err != nil {
		return school.Student{}, errors.Wrap(err, "finding student profile")
	}
	ctx.Set(contextStudentKey, std)
	return std, nil
}

func (scr studentScreens) dashboard(ctx echo.Context) error {
	std, err := scr.student(ctx)
	if err != nil {
		return err
	}
	reqCtx := ctx.Request().Context()

	courses, err := scr.svc.StudentCourses(reqCtx, std)
	if err != nil {
		return errors.Wrap(err, "querying courses")
	}
	exams, err := scr.svc.UpcomingExamsFor(reqCtx, std)
	if err != nil {
		return errors.Wrap(err, "querying upcoming exams")
	}
	assignments, err := scr.svc.UpcomingAssignmentsFor(reqCtx, std)
	if err != nil {
		return errors.Wrap(err, "querying upcoming assignments")
	}
	schedules, err := scr.svc.StudentSchedules(reqCtx, std)
	if err != nil {
		return errors.Wrap(err, "querying schedules")
	}

	return ctx.Render(http.StatusOK, "student_dashboard.gohtml", echo.Map{
		"Student":     std,
		"Courses":     courses,
		"Exams":       exams,
		"Assignments": assignments,
		"Schedules":   schedules,
		"Days":        school.Days,
	})
}
