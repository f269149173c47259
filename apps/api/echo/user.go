package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/school"
	"github.com/trezcool/shule/core/user"
)

type userScreens struct {
	usrSvc    user.Service
	schoolSvc school.Service
}

// fieldErrors extracts displayable form errors from a validation failure.
// Errors not scoped to a field surface under "__all__".
func fieldErrors(err error) (map[string]string, bool) {
	vErr, ok := errors.Cause(err).(*core.ValidationError)
	if !ok {
		return nil, false
	}
	flds := vErr.FieldMap()
	if len(flds) == 0 {
		flds["__all__"] = vErr.Error()
	}
	return flds, true
}

// bounceAuthenticated redirects an already-authenticated visitor to their role
// home screen. It reports whether the request was handled.
func (scr userScreens) bounceAuthenticated(ctx echo.Context) (bool, error) {
	usr, ok := sessionUser(ctx, scr.usrSvc)
	if !ok {
		return false, nil
	}
	role, err := scr.schoolSvc.ResolveRole(ctx.Request().Context(), &usr)
	if err != nil {
		return true, errors.Wrap(err, "resolving role")
	}
	return true, ctx.Redirect(http.StatusFound, roleHomePath(role))
}

func (scr userScreens) landing(ctx echo.Context) error {
	usr, authed := sessionUser(ctx, scr.usrSvc)
	return ctx.Render(http.StatusOK, "landing.gohtml", echo.Map{
		"AppName":       core.Conf.AppName,
		"Authenticated": authed,
		"User":          usr,
	})
}

func (scr userScreens) loginForm(ctx echo.Context) error {
	if handled, err := scr.bounceAuthenticated(ctx); handled {
		return err
	}
	return ctx.Render(http.StatusOK, "login.gohtml", echo.Map{
		"Next": ctx.QueryParam("next"),
	})
}

func (scr userScreens) login(ctx echo.Context) error {
	if handled, err := scr.bounceAuthenticated(ctx); handled {
		return err
	}

	var data LoginRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to LoginRequest")
	}

	renderFailure := func(errs map[string]string) error {
		return ctx.Render(http.StatusBadRequest, "login.gohtml", echo.Map{
			"Errors": errs,
			"Form":   data,
			"Next":   data.Next,
		})
	}

	if err := data.Validate(); err != nil {
		if errs, ok := fieldErrors(err); ok {
			return renderFailure(errs)
		}
		return err
	}

	usr, err := authenticate(ctx.Request().Context(), data.Username, data.Password, scr.usrSvc)
	if err != nil {
		if err == errAuthenticationFailed || err == errAccountDeactivated {
			return renderFailure(map[string]string{"__all__": "invalid credentials"})
		}
		return errors.Wrap(err, "authenticating")
	}

	token, err := GenerateToken(GetUserClaims(usr))
	if err != nil {
		return errors.Wrap(err, "generating token")
	}
	setSessionCookie(ctx, token)

	// an explicitly requested destination wins over role routing
	if data.Next != "" {
		return ctx.Redirect(http.StatusFound, data.Next)
	}
	role, err := scr.schoolSvc.ResolveRole(ctx.Request().Context(), &usr)
	if err != nil {
		return errors.Wrap(err, "resolving role")
	}
	return ctx.Redirect(http.StatusFound, roleHomePath(role))
}

func (scr userScreens) logout(ctx echo.Context) error {
	clearSessionCookie(ctx)
	return ctx.Redirect(http.StatusFound, landingPath)
}

func (scr userScreens) registerForm(ctx echo.Context) error {
	if handled, err := scr.bounceAuthenticated(ctx); handled {
		return err
	}
	return ctx.Render(http.StatusOK, "register.gohtml", echo.Map{})
}

func (scr userScreens) register(ctx echo.Context) error {
	if handled, err := scr.bounceAuthenticated(ctx); handled {
		return err
	}

	var data school.StudentRegistration
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to StudentRegistration")
	}

	if _, err := scr.schoolSvc.RegisterStudent(ctx.Request().Context(), data); err != nil {
		if errs, ok := fieldErrors(err); ok {
			return ctx.Render(http.StatusBadRequest, "register.gohtml", echo.Map{
				"Errors": errs,
				"Form":   data,
			})
		}
		return errors.Wrap(err, "registering student")
	}
	return ctx.Redirect(http.StatusFound, "/login")
}

func (scr userScreens) teacherSignupForm(ctx echo.Context) error {
	if handled, err := scr.bounceAuthenticated(ctx); handled {
		return err
	}
	return scr.renderTeacherSignup(ctx, http.StatusOK, nil, school.TeacherRegistration{})
}

func (scr userScreens) teacherSignup(ctx echo.Context) error {
	if handled, err := scr.bounceAuthenticated(ctx); handled {
		return err
	}

	var data school.TeacherRegistration
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to TeacherRegistration")
	}

	if _, err := scr.schoolSvc.RegisterTeacher(ctx.Request().Context(), data); err != nil {
		if errs, ok := fieldErrors(err); ok {
			return scr.renderTeacherSignup(ctx, http.StatusBadRequest, errs, data)
		}
		return errors.Wrap(err, "registering teacher")
	}
	return ctx.Redirect(http.StatusFound, "/login")
}

func (scr userScreens) renderTeacherSignup(ctx echo.Context, code int, errs map[string]string, form school.TeacherRegistration) error {
	reqCtx := ctx.Request().Context()
	subjects, err := scr.schoolSvc.Subjects(reqCtx)
	if err != nil {
		return errors.Wrap(err, "querying subjects")
	}
	students, err := scr.schoolSvc.Students(reqCtx)
	if err != nil {
		return errors.Wrap(err, "querying students")
	}
	return ctx.Render(code, "teacher_signup.gohtml", echo.Map{
		"Errors":   errs,
		"Form":     form,
		"Subjects": subjects,
		"Students": students,
	})
}

func (scr userScreens) passwordResetForm(ctx echo.Context) error {
	return ctx.Render(http.StatusOK, "password_reset.gohtml", echo.Map{})
}

func (scr userScreens) passwordReset(ctx echo.Context) error {
	var data PasswordResetRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to PasswordResetRequest")
	}
	if err := data.Validate(); err != nil {
		if errs, ok := fieldErrors(err); ok {
			return ctx.Render(http.StatusBadRequest, "password_reset.gohtml", echo.Map{
				"Errors": errs,
				"Form":   data,
			})
		}
		return err
	}

	if err := scr.usrSvc.RequestPasswordReset(ctx.Request().Context(), data.Email); !(err == nil || errors.Cause(err) == user.ErrNotFound) {
		// do not leak account existence to attackers
		ctx.Logger().Errorf("%+v", errors.Wrap(err, "requesting password reset"))
	}
	return ctx.Render(http.StatusOK, "password_reset.gohtml", echo.Map{"Sent": true})
}

func (scr userScreens) passwordResetConfirmForm(ctx echo.Context) error {
	return ctx.Render(http.StatusOK, "password_reset_confirm.gohtml", echo.Map{
		"UID":   ctx.Param("uid"),
		"Token": ctx.Param("token"),
	})
}

func (scr userScreens) passwordResetConfirm(ctx echo.Context) error {
	var data user.ResetUserPassword
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ResetUserPassword")
	}
	data.UID = ctx.Param("uid")
	data.Token = ctx.Param("token")

	renderFailure := func(errs map[string]string) error {
		return ctx.Render(http.StatusBadRequest, "password_reset_confirm.gohtml", echo.Map{
			"Errors": errs,
			"UID":    data.UID,
			"Token":  data.Token,
		})
	}

	if err := data.Validate(); err != nil {
		if errs, ok := fieldErrors(err); ok {
			return renderFailure(errs)
		}
		return err
	}
	if err := scr.usrSvc.ResetPassword(ctx.Request().Context(), data); err != nil {
		if errs, ok := fieldErrors(err); ok {
			return renderFailure(errs)
		}
		return errors.Wrap(err, "resetting password")
	}
	return ctx.Redirect(http.StatusFound, "/login")
}
