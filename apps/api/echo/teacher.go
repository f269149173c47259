package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/shule/core/school"
	"github.com/trezcool/shule/core/user"
)

const contextTeacherKey = "teacher"

type teacherScreens struct {
	svc school.Service
}

// teacher returns the Teacher profile of the authenticated user. The guard
// already established the role, so a missing profile here is a fault.
func (scr teacherScreens) teacher(ctx echo.Context) (school.Teacher, error) {
	if tch, ok := ctx.Get(contextTeacherKey).(school.Teacher); ok {
		return tch, nil
	}

	usr, ok := ctx.Get(contextUserKey).(user.User)
	if !ok {
		return school.Teacher{}, errUnauthorized
	}
	tch, err := scr.svc.TeacherForUser(ctx.Request().Context(), usr)
	if err != nil {
		return school.Teacher{}, errors.Wrap(err, "finding teacher profile")
	}
	ctx.Set(contextTeacherKey, tch)
	return tch, nil
}

func (scr teacherScreens) dashboard(ctx echo.Context) error {
	tch, err := scr.teacher(ctx)
	if err != nil {
		return err
	}
	reqCtx := ctx.Request().Context()

	students, err := scr.svc.AssignedStudents(reqCtx, tch)
	if err != nil {
		return errors.Wrap(err, "querying assigned students")
	}
	exams, err := scr.svc.UpcomingExamsBy(reqCtx, tch)
	if err != nil {
		return errors.Wrap(err, "querying upcoming exams")
	}
	assignments, err := scr.svc.AssignmentsBy(reqCtx, tch)
	if err != nil {
		return errors.Wrap(err, "querying assignments")
	}
	schedules, err := scr.svc.TeacherSchedules(reqCtx, tch)
	if err != nil {
		return errors.Wrap(err, "querying schedules")
	}

	return ctx.Render(http.StatusOK, "teacher_dashboard.gohtml", echo.Map{
		"Teacher":     tch,
		"Students":    students,
		"Exams":       exams,
		"Assignments": assignments,
		"Schedules":   schedules,
		"Days":        school.Days,
	})
}

func (scr teacherScreens) students(ctx echo.Context) error {
	students, err := scr.svc.Students(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying students")
	}
	return ctx.Render(http.StatusOK, "students.gohtml", echo.Map{
		"Students": students,
	})
}

func (scr teacherScreens) editStudentForm(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()
	std, err := scr.svc.GetStudentByID(reqCtx, ctx.Param("id"))
	if err != nil {
		if errors.Cause(err) == school.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "finding student")
	}
	return scr.renderEditStudent(ctx, http.StatusOK, nil, std, school.UpdateStudent{
		FirstName:   std.FirstName,
		LastName:    std.LastName,
		Age:         std.Age,
		PhoneNumber: std.PhoneNumber,
		Gender:      std.Gender,
		Email:       std.Email,
		GPA:         std.GPA,
		CourseIDs:   std.CourseIDs,
	})
}

func (scr teacherScreens) editStudent(ctx echo.Context) error {
	var data school.UpdateStudent
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateStudent")
	}

	reqCtx := ctx.Request().Context()
	id := ctx.Param("id")
	if _, err := scr.svc.UpdateStudent(reqCtx, id, data); err != nil {
		if errors.Cause(err) == school.ErrNotFound {
			return errHttpNotFound
		}
		if errs, ok := fieldErrors(err); ok {
			std, gErr := scr.svc.GetStudentByID(reqCtx, id)
			if gErr != nil {
				return errors.Wrap(gErr, "finding student")
			}
			return scr.renderEditStudent(ctx, http.StatusBadRequest, errs, std, data)
		}
		return errors.Wrap(err, "updating student")
	}
	return ctx.Redirect(http.StatusFound, "/teacher/students")
}

func (scr teacherScreens) renderEditStudent(ctx echo.Context, code int, errs map[string]string, std school.Student, form school.UpdateStudent) error {
	courses, err := scr.svc.Courses(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying courses")
	}
	return ctx.Render(code, "edit_student.gohtml", echo.Map{
		"Errors":  errs,
		"Student": std,
		"Form":    form,
		"Courses": courses,
	})
}

func (scr teacherScreens) exams(ctx echo.Context) error {
	tch, err := scr.teacher(ctx)
	if err != nil {
		return err
	}
	return scr.renderExams(ctx, http.StatusOK, tch, nil, school.NewExam{})
}

func (scr teacherScreens) createExam(ctx echo.Context) error {
	tch, err := scr.teacher(ctx)
	if err != nil {
		return err
	}

	var data school.NewExam
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewExam")
	}
	if _, err = scr.svc.CreateExam(ctx.Request().Context(), tch, data); err != nil {
		if errs, ok := fieldErrors(err); ok {
			return scr.renderExams(ctx, http.StatusBadRequest, tch, errs, data)
		}
		return errors.Wrap(err, "creating exam")
	}
	return ctx.Redirect(http.StatusFound, "/teacher/exams")
}

func (scr teacherScreens) renderExams(ctx echo.Context, code int, tch school.Teacher, errs map[string]string, form school.NewExam) error {
	reqCtx := ctx.Request().Context()
	upcoming, err := scr.svc.UpcomingExamsBy(reqCtx, tch)
	if err != nil {
		return errors.Wrap(err, "querying upcoming exams")
	}
	past, err := scr.svc.PastExamsBy(reqCtx, tch)
	if err != nil {
		return errors.Wrap(err, "querying past exams")
	}
	courses, err := scr.svc.CoursesBy(reqCtx, tch)
	if err != nil {
		return errors.Wrap(err, "querying courses")
	}
	students, err := scr.svc.Students(reqCtx)
	if err != nil {
		return errors.Wrap(err, "querying students")
	}
	return ctx.Render(code, "exams.gohtml", echo.Map{
		"Errors":        errs,
		"Form":          form,
		"UpcomingExams": upcoming,
		"PastExams":     past,
		"Courses":       courses,
		"Students":      students,
	})
}

func (scr teacherScreens) assignments(ctx echo.Context) error {
	tch, err := scr.teacher(ctx)
	if err != nil {
		return err
	}
	return scr.renderAssignments(ctx, http.StatusOK, tch, nil, school.NewAssignment{})
}

func (scr teacherScreens) createAssignment(ctx echo.Context) error {
	tch, err := scr.teacher(ctx)
	if err != nil {
		return err
	}

	var data school.NewAssignment
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewAssignment")
	}
	if _, err = scr.svc.CreateAssignment(ctx.Request().Context(), tch, data); err != nil {
		if errs, ok := fieldErrors(err); ok {
			return scr.renderAssignments(ctx, http.StatusBadRequest, tch, errs, data)
		}
		return errors.Wrap(err, "creating assignment")
	}
	return ctx.Redirect(http.StatusFound, "/teacher/assignments")
}

func (scr teacherScreens) renderAssignments(ctx echo.Context, code int, tch school.Teacher, errs map[string]string, form school.NewAssignment) error {
	reqCtx := ctx.Request().Context()
	assignments, err := scr.svc.AssignmentsBy(reqCtx, tch)
	if err != nil {
		return errors.Wrap(err, "querying assignments")
	}
	courses, err := scr.svc.CoursesBy(reqCtx, tch)
	if err != nil {
		return errors.Wrap(err, "querying courses")
	}
	students, err := scr.svc.Students(reqCtx)
	if err != nil {
		return errors.Wrap(err, "querying students")
	}
	return ctx.Render(code, "assignments.gohtml", echo.Map{
		"Errors":      errs,
		"Form":        form,
		"Assignments": assignments,
		"Courses":     courses,
		"Students":    students,
	})
}

func (scr teacherScreens) courses(ctx echo.Context) error {
	tch, err := scr.teacher(ctx)
	if err != nil {
		return err
	}
	return scr.renderCourses(ctx, http.StatusOK, tch, nil, school.CourseInput{})
}

func (scr teacherScreens) createCourse(ctx echo.Context) error {
	tch, err := scr.teacher(ctx)
	if err != nil {
		return err
	}

	var data school.CourseInput
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to CourseInput")
	}
	if _, err = scr.svc.CreateCourse(ctx.Request().Context(), tch, data); err != nil {
		if errs, ok := fieldErrors(err); ok {
			return scr.renderCourses(ctx, http.StatusBadRequest, tch, errs, data)
		}
		return errors.Wrap(err, "creating course")
	}
	return ctx.Redirect(http.StatusFound, "/teacher/courses")
}

func (scr teacherScreens) renderCourses(ctx echo.Context, code int, tch school.Teacher, errs map[string]string, form school.CourseInput) error {
	reqCtx := ctx.Request().Context()
	courses, err := scr.svc.CoursesBy(reqCtx, tch)
	if err != nil {
		return errors.Wrap(err, "querying courses")
	}
	subjects, err := scr.svc.Subjects(reqCtx)
	if err != nil {
		return errors.Wrap(err, "querying subjects")
	}
	return ctx.Render(code, "courses.gohtml", echo.Map{
		"Errors":   errs,
		"Form":     form,
		"Courses":  courses,
		"Subjects": subjects,
	})
}

func (scr teacherScreens) editCourseForm(ctx echo.Context) error {
	tch, err := scr.teacher(ctx)
	if err != nil {
		return err
	}

	crs, err := scr.svc.GetCourseBy(ctx.Request().Context(), tch, ctx.Param("id"))
	if err != nil {
		if errors.Cause(err) == school.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "finding course")
	}
	return scr.renderEditCourse(ctx, http.StatusOK, nil, crs, school.CourseInput{
		Name:        crs.Name,
		Description: crs.Description,
		SubjectID:   crs.SubjectID,
	})
}

func (scr teacherScreens) editCourse(ctx echo.Context) error {
	tch, err := scr.teacher(ctx)
	if err != nil {
		return err
	}

	var data school.CourseInput
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to CourseInput")
	}

	reqCtx := ctx.Request().Context()
	id := ctx.Param("id")
	if _, err = scr.svc.UpdateCourse(reqCtx, tch, id, data); err != nil {
		if errors.Cause(err) == school.ErrNotFound {
			return errHttpNotFound
		}
		if errs, ok := fieldErrors(err); ok {
			crs, gErr := scr.svc.GetCourseBy(reqCtx, tch, id)
			if gErr != nil {
				return errors.Wrap(gErr, "finding course")
			}
			return scr.renderEditCourse(ctx, http.StatusBadRequest, errs, crs, data)
		}
		return errors.Wrap(err, "updating course")
	}
	return ctx.Redirect(http.StatusFound, "/teacher/courses")
}

func (scr teacherScreens) renderEditCourse(ctx echo.Context, code int, errs map[string]string, crs school.Course, form school.CourseInput) error {
	subjects, err := scr.svc.Subjects(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying subjects")
	}
	return ctx.Render(code, "edit_course.gohtml", echo.Map{
		"Errors":   errs,
		"Course":   crs,
		"Form":     form,
		"Subjects": subjects,
	})
}

func (scr teacherScreens) deleteCourseForm(ctx echo.Context) error {
	tch, err := scr.teacher(ctx)
	if err != nil {
		return err
	}

	crs, err := scr.svc.GetCourseBy(ctx.Request().Context(), tch, ctx.Param("id"))
	if err != nil {
		if errors.Cause(err) == school.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "finding course")
	}
	return ctx.Render(http.StatusOK, "delete_course.gohtml", echo.Map{
		"Course": crs,
	})
}

func (scr teacherScreens) deleteCourse(ctx echo.Context) error {
	tch, err := scr.teacher(ctx)
	if err != nil {
		return err
	}

	if err = scr.svc.DeleteCourse(ctx.Request().Context(), tch, ctx.Param("id")); err != nil {
		if errors.Cause(err) == school.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "deleting course")
	}
	return ctx.Redirect(http.StatusFound, "/teacher/courses")
}
