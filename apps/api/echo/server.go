package echoapi

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/school"
	"github.com/trezcool/shule/core/user"
)

type (
	Options struct {
		Address        string
		DisableReqLogs bool
		UserSvc        user.Service
		SchoolSvc      school.Service
		Logger         core.Logger
	}

	Server interface {
		http.Handler
		Start()
		Stop(context.Context) error
		// Shutdown is signalled when a fatal error requires a graceful stop.
		Shutdown() <-chan struct{}
	}

	server struct {
		opts     *Options
		app      *echo.Echo
		shutdown chan struct{}
	}
)

var _ Server = (*server)(nil)

func NewServer(opts *Options) Server {
	s := &server{
		opts:     opts,
		app:      echo.New(),
		shutdown: make(chan struct{}, 1),
	}
	s.setup()
	return s
}

func (s *server) setup() {
	s.app.Pre(middleware.RemoveTrailingSlash())
	if !s.opts.DisableReqLogs {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(core.Conf.Debug || core.Conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}

	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.opts.Logger, s.signalShutdown)
	s.app.Debug = core.Conf.Debug

	r, err := newRenderer()
	if err != nil {
		s.app.Logger.Fatal(err)
	}
	s.app.Renderer = r

	registerScreens(s.app, s.opts.UserSvc, s.opts.SchoolSvc)
}

func registerScreens(app *echo.Echo, usrSvc user.Service, schoolSvc school.Service) {
	jwt := middleware.JWTWithConfig(appJWTConfig)

	usrScreens := userScreens{usrSvc: usrSvc, schoolSvc: schoolSvc}
	app.GET("/", usrScreens.landing)
	app.GET("/login", usrScreens.loginForm)
	app.POST("/login", usrScreens.login)
	app.GET("/logout", usrScreens.logout)
	app.GET("/register", usrScreens.registerForm)
	app.POST("/register", usrScreens.register)
	app.GET("/teacher/signup", usrScreens.teacherSignupForm)
	app.POST("/teacher/signup", usrScreens.teacherSignup)
	app.GET("/password-reset", usrScreens.passwordResetForm)
	app.POST("/password-reset", usrScreens.passwordReset)
	app.GET("/password-reset/confirm/:uid/:token", usrScreens.passwordResetConfirmForm)
	app.POST("/password-reset/confirm/:uid/:token", usrScreens.passwordResetConfirm)

	tchScreens := teacherScreens{svc: schoolSvc}
	tg := app.Group("/teacher", jwt, roleGuard(school.RoleTeacher, usrSvc, schoolSvc))
	tg.GET("/dashboard", tchScreens.dashboard)
	tg.GET("/students", tchScreens.students)
	tg.GET("/students/:id/edit", tchScreens.editStudentForm)
	tg.POST("/students/:id/edit", tchScreens.editStudent)
	tg.GET("/exams", tchScreens.exams)
	tg.POST("/exams", tchScreens.createExam)
	tg.GET("/assignments", tchScreens.assignments)
	tg.POST("/assignments", tchScreens.createAssignment)
	tg.GET("/courses", tchScreens.courses)
	tg.POST("/courses", tchScreens.createCourse)
	tg.GET("/courses/:id/edit", tchScreens.editCourseForm)
	tg.POST("/courses/:id/edit", tchScreens.editCourse)
	tg.GET("/courses/:id/delete", tchScreens.deleteCourseForm)
	tg.POST("/courses/:id/delete", tchScreens.deleteCourse)

	stdScreens := studentScreens{svc: schoolSvc}
	sg := app.Group("/student", jwt, roleGuard(school.RoleStudent, usrSvc, schoolSvc))
	sg.GET("/dashboard", stdScreens.dashboard)
}

// signalShutdown flags the server for a graceful stop on fatal errors.
func (s *server) signalShutdown() {
	select {
	case s.shutdown <- struct{}{}:
	default:
	}
}

// Shutdown returns a channel signalled when a fatal error requires a stop.
func (s *server) Shutdown() <-chan struct{} {
	return s.shutdown
}

func (s *server) Start() {
	s.app.Logger.Fatal(s.app.Start(s.opts.Address))
}

func (s *server) Stop(ctx context.Context) error {
	return s.app.Shutdown(ctx)
}

func (s *server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}
