package tests

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	. "github.com/trezcool/shule/apps/api/echo"
	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/school"
	"github.com/trezcool/shule/core/user"
	emailsvc "github.com/trezcool/shule/services/email"
	dummydb "github.com/trezcool/shule/storage/database/dummy"
)

const testPwd = "L0remIpsum#99"

// noopLogger discards everything; tests assert on responses, not logs.
type noopLogger struct{}

var _ core.Logger = (*noopLogger)(nil)

func (noopLogger) Enable(bool)                  {}
func (noopLogger) Debug(string, ...interface{}) {}
func (noopLogger) Info(string, ...interface{})  {}
func (noopLogger) Warn(string, ...interface{})  {}
func (noopLogger) Error(string, ...interface{}) {}
func (noopLogger) Fatal(string, ...interface{}) {}

type testEnv struct {
	app        Server
	usrRepo    user.Repository
	schoolRepo school.Repository
	usrSvc     user.Service
	schoolSvc  school.Service
}

func setup(t *testing.T) *testEnv {
	t.Helper()
	emailsvc.ClearSentMessages()

	// set up the dummy DB & repos
	db := dummydb.Open()
	usrRepo := dummydb.NewUserRepository(db)
	schoolRepo := dummydb.NewSchoolRepository(db)

	// set up services
	mailSvc := emailsvc.NewMockService()
	usrSvc := user.NewService(usrRepo, mailSvc)
	schoolSvc := school.NewService(nil, schoolRepo, usrRepo, mailSvc)

	// set up the server
	app := NewServer(&Options{
		DisableReqLogs: true,
		UserSvc:        usrSvc,
		SchoolSvc:      schoolSvc,
		Logger:         noopLogger{},
	})
	return &testEnv{
		app:        app,
		usrRepo:    usrRepo,
		schoolRepo: schoolRepo,
		usrSvc:     usrSvc,
		schoolSvc:  schoolSvc,
	}
}

func (env *testEnv) registerStudent(t *testing.T, uname string) user.User {
	t.Helper()
	usr, err := env.schoolSvc.RegisterStudent(context.Background(), school.StudentRegistration{
		Username:    uname,
		Password1:   testPwd,
		Password2:   testPwd,
		FirstName:   "Awilo",
		LastName:    "Longomba",
		Email:       uname + "@test.cd",
		Age:         16,
		Gender:      school.GenderMale,
		PhoneNumber: "+243970000000",
	})
	if err != nil {
		t.Fatalf("registerStudent() failed, %v", err)
	}
	return usr
}

func (env *testEnv) registerTeacher(t *testing.T, uname string) user.User {
	t.Helper()
	usr, err := env.schoolSvc.RegisterTeacher(context.Background(), school.TeacherRegistration{
		Username:  uname,
		Password1: testPwd,
		Password2: testPwd,
		Email:     uname + "@test.cd",
	})
	if err != nil {
		t.Fatalf("registerTeacher() failed, %v", err)
	}
	return usr
}

// createUnassigned creates an active account with no role profile.
func (env *testEnv) createUnassigned(t *testing.T, uname string) user.User {
	t.Helper()
	usr := user.User{Username: uname, Email: uname + "@test.cd"}
	usr.SetActive(true)
	if err := usr.SetPassword(testPwd); err != nil {
		t.Fatalf("SetPassword() failed, %v", err)
	}
	usr, err := env.usrRepo.CreateUser(context.Background(), usr)
	if err != nil {
		t.Fatalf("CreateUser() failed, %v", err)
	}
	return usr
}

func sessionCookie(t *testing.T, usr user.User) *http.Cookie {
	t.Helper()
	token, err := GenerateToken(GetUserClaims(usr))
	if err != nil {
		t.Fatalf("GenerateToken() failed, %v", err)
	}
	return &http.Cookie{Name: "session", Value: token}
}

func (env *testEnv) do(t *testing.T, method, path string, form url.Values, cookie *http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if form != nil {
		req = httptest.NewRequest(method, path, strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	env.app.ServeHTTP(rec, req)
	return rec
}

func (env *testEnv) get(t *testing.T, path string, cookie *http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	return env.do(t, http.MethodGet, path, nil, cookie)
}

func (env *testEnv) postForm(t *testing.T, path string, form url.Values, cookie *http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	return env.do(t, http.MethodPost, path, form, cookie)
}

func assertRedirect(t *testing.T, rec *httptest.ResponseRecorder, wantLoc string) {
	t.Helper()
	require.Equal(t, http.StatusFound, rec.Code, rec.Body.String())
	assert.Equal(t, wantLoc, rec.Header().Get("Location"))
}

func assertStatus(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	require.Equal(t, want, rec.Code, rec.Body.String())
}

func assertBodyContains(t *testing.T, rec *httptest.ResponseRecorder, want string) {
	t.Helper()
	assert.Contains(t, rec.Body.String(), want)
}
