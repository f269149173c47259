package tests

import (
	"context"
	"net/http"
	"testing"

	"github.com/trezcool/shule/core/school"
)

func TestRoleGuard(t *testing.T) {
	env := setup(t)
	stdCookie := sessionCookie(t, env.registerStudent(t, "kid"))
	tchCookie := sessionCookie(t, env.registerTeacher(t, "prof"))
	limboCookie := sessionCookie(t, env.createUnassigned(t, "limbo"))

	tests := []struct {
		name     string
		path     string
		cookie   *http.Cookie
		wantCode int
		wantLoc  string
	}{
		{name: "anonymous is sent to login with next", path: "/teacher/dashboard", wantCode: http.StatusFound, wantLoc: "/login?next=%2Fteacher%2Fdashboard"},
		{name: "anonymous on student screen", path: "/student/dashboard", wantCode: http.StatusFound, wantLoc: "/login?next=%2Fstudent%2Fdashboard"},
		{name: "student on teacher screen is bounced home", path: "/teacher/dashboard", cookie: stdCookie, wantCode: http.StatusFound, wantLoc: "/student/dashboard"},
		{name: "teacher on student screen is bounced home", path: "/student/dashboard", cookie: tchCookie, wantCode: http.StatusFound, wantLoc: "/teacher/dashboard"},
		{name: "unassigned account lands on landing", path: "/teacher/dashboard", cookie: limboCookie, wantCode: http.StatusFound, wantLoc: "/"},
		{name: "teacher reaches teacher screen", path: "/teacher/dashboard", cookie: tchCookie, wantCode: http.StatusOK},
		{name: "student reaches student screen", path: "/student/dashboard", cookie: stdCookie, wantCode: http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.get(t, tt.path, tt.cookie)
			if tt.wantLoc != "" {
				assertRedirect(t, rec, tt.wantLoc)
			} else {
				assertStatus(t, rec, tt.wantCode)
			}
		})
	}
}

func TestRoleGuard_forgedToken(t *testing.T) {
	env := setup(t)

	rec := env.get(t, "/teacher/dashboard", &http.Cookie{Name: "session", Value: "lol.nope.nada"})
	assertRedirect(t, rec, "/login?next=%2Fteacher%2Fdashboard")
}

func TestRoleGuard_deletedAccount(t *testing.T) {
	env := setup(t)

	// a valid token whose account no longer exists in the store
	ghost := env.registerStudent(t, "ghost")
	otherEnv := setup(t) // fresh store without the account
	cookie := sessionCookie(t, ghost)

	rec := otherEnv.get(t, "/student/dashboard", cookie)
	assertRedirect(t, rec, "/login?next=%2Fstudent%2Fdashboard")

	var session *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == "session" {
			session = c
		}
	}
	if session == nil || session.MaxAge >= 0 {
		t.Error("stale session cookie should be cleared")
	}
}

func TestRoleGuard_roleChangeTakesEffectImmediately(t *testing.T) {
	env := setup(t)
	usr := env.createUnassigned(t, "newhire")
	cookie := sessionCookie(t, usr)

	// no profile yet
	rec := env.get(t, "/teacher/dashboard", cookie)
	assertRedirect(t, rec, "/")

	// the profile is created after the token was issued; same token now passes
	if _, err := env.schoolRepo.CreateTeacher(context.Background(), school.Teacher{UserID: usr.ID}); err != nil {
		t.Fatalf("CreateTeacher() failed, %v", err)
	}
	rec = env.get(t, "/teacher/dashboard", cookie)
	assertStatus(t, rec, http.StatusOK)
}
