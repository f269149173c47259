package echoapi

import (
	"database/sql/driver"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/school"
	"github.com/trezcool/shule/core/user"
)

const (
	teacherHomePath = "/teacher/dashboard"
	studentHomePath = "/student/dashboard"
	landingPath     = "/"
)

func roleHomePath(role school.Role) string {
	switch role {
	case school.RoleTeacher:
		return teacherHomePath
	case school.RoleStudent:
		return studentHomePath
	default:
		return landingPath
	}
}

// roleGuard resolves the authenticated user's role from the store on every
// request and only lets the required role through. The wrong role is silently
// bounced to its own home screen; an account with no profile lands on `/`.
// A store fault during resolution propagates as a server error.
func roleGuard(required school.Role, usrSvc user.Service, schoolSvc school.Service) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			usr, err := getContextUser(ctx, usrSvc)
			if err != nil {
				if errors.Cause(err) == user.ErrNotFound {
					// valid token for a deleted account; treat as anonymous
					clearSessionCookie(ctx)
					return ctx.Redirect(http.StatusFound, loginRedirectURL(ctx.Request().RequestURI))
				}
				return storeFault(err, "getting context user")
			}

			role, err := schoolSvc.ResolveRole(ctx.Request().Context(), &usr)
			if err != nil {
				return storeFault(err, "resolving role")
			}
			if role == required {
				return next(ctx)
			}
			return ctx.Redirect(http.StatusFound, roleHomePath(role))
		}
	}
}

// storeFault wraps a store error; a dead connection cannot heal mid-request so
// it flags the server for a graceful stop.
func storeFault(err error, msg string) error {
	if errors.Cause(err) == driver.ErrBadConn {
		return core.NewShutdownError(msg + ": " + err.Error())
	}
	return errors.Wrap(err, msg)
}
