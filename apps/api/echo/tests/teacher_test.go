package tests

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"testing"

	"github.com/trezcool/shule/core/school"
)

func TestTeacherCourses(t *testing.T) {
	env := setup(t)
	ctx := context.Background()
	cookie := sessionCookie(t, env.registerTeacher(t, "prof"))

	rec := env.get(t, "/teacher/courses", cookie)
	assertStatus(t, rec, http.StatusOK)

	rec = env.postForm(t, "/teacher/courses", url.Values{
		"name":        {"Algebra I"},
		"description": {"numbers and letters"},
	}, cookie)
	assertRedirect(t, rec, "/teacher/courses")

	rec = env.get(t, "/teacher/courses", cookie)
	assertStatus(t, rec, http.StatusOK)
	assertBodyContains(t, rec, "Algebra I")

	// blank name is rejected and the form re-rendered
	rec = env.postForm(t, "/teacher/courses", url.Values{"name": {"  "}}, cookie)
	assertStatus(t, rec, http.StatusBadRequest)
	assertBodyContains(t, rec, "this field is required")

	crss, err := env.schoolRepo.QueryCourses(ctx, nil)
	if err != nil {
		t.Fatalf("QueryCourses() failed, %v", err)
	}
	if len(crss) != 1 {
		t.Fatalf("len(courses) = %d, want 1", len(crss))
	}
	crs := crss[0]

	// edit
	rec = env.get(t, "/teacher/courses/"+crs.ID+"/edit", cookie)
	assertStatus(t, rec, http.StatusOK)
	rec = env.postForm(t, "/teacher/courses/"+crs.ID+"/edit", url.Values{"name": {"Algebra II"}}, cookie)
	assertRedirect(t, rec, "/teacher/courses")

	// delete, with a confirmation screen first
	rec = env.get(t, "/teacher/courses/"+crs.ID+"/delete", cookie)
	assertStatus(t, rec, http.StatusOK)
	assertBodyContains(t, rec, "Algebra II")
	rec = env.postForm(t, "/teacher/courses/"+crs.ID+"/delete", nil, cookie)
	assertRedirect(t, rec, "/teacher/courses")

	if crss, err = env.schoolRepo.QueryCourses(ctx, nil); err != nil || len(crss) != 0 {
		t.Errorf("QueryCourses() = %v, %v; want none", crss, err)
	}
}

func TestTeacherCourses_ownership(t *testing.T) {
	env := setup(t)
	ctx := context.Background()
	ownerCookie := sessionCookie(t, env.registerTeacher(t, "owner"))
	otherCookie := sessionCookie(t, env.registerTeacher(t, "other"))

	rec := env.postForm(t, "/teacher/courses", url.Values{"name": {"Algebra I"}}, ownerCookie)
	assertRedirect(t, rec, "/teacher/courses")

	crss, err := env.schoolRepo.QueryCourses(ctx, nil)
	if err != nil || len(crss) != 1 {
		t.Fatalf("QueryCourses() = %v, %v; want 1 course", crss, err)
	}
	crs := crss[0]

	// another teacher cannot see or touch it
	rec = env.get(t, "/teacher/courses", otherCookie)
	assertStatus(t, rec, http.StatusOK)
	if strings.Contains(rec.Body.String(), "Algebra I") {
		t.Error("course listed for a non-owner")
	}
	rec = env.get(t, "/teacher/courses/"+crs.ID+"/edit", otherCookie)
	assertStatus(t, rec, http.StatusNotFound)
	rec = env.postForm(t, "/teacher/courses/"+crs.ID+"/delete", nil, otherCookie)
	assertStatus(t, rec, http.StatusNotFound)
}

func TestTeacherExams(t *testing.T) {
	env := setup(t)
	ctx := context.Background()
	cookie := sessionCookie(t, env.registerTeacher(t, "prof"))

	crs, err := env.schoolRepo.CreateCourse(ctx, school.Course{Name: "Algebra"})
	if err != nil {
		t.Fatalf("CreateCourse() failed, %v", err)
	}

	rec := env.get(t, "/teacher/exams", cookie)
	assertStatus(t, rec, http.StatusOK)

	rec = env.postForm(t, "/teacher/exams", url.Values{
		"title":   {"Midterm Algebra"},
		"subject": {"math"},
		"date":    {"2030-06-01"},
		"type":    {"midterm"},
		"course":  {crs.ID},
	}, cookie)
	assertRedirect(t, rec, "/teacher/exams")

	rec = env.get(t, "/teacher/exams", cookie)
	assertStatus(t, rec, http.StatusOK)
	assertBodyContains(t, rec, "Midterm Algebra")

	// a bad date never reaches the store
	rec = env.postForm(t, "/teacher/exams", url.Values{
		"title":   {"Broken"},
		"subject": {"math"},
		"date":    {"01/06/2030"},
		"type":    {"midterm"},
		"course":  {crs.ID},
	}, cookie)
	assertStatus(t, rec, http.StatusBadRequest)
}

func TestTeacherAssignments(t *testing.T) {
	env := setup(t)
	ctx := context.Background()
	cookie := sessionCookie(t, env.registerTeacher(t, "prof"))

	crs, err := env.schoolRepo.CreateCourse(ctx, school.Course{Name: "Algebra"})
	if err != nil {
		t.Fatalf("CreateCourse() failed, %v", err)
	}

	rec := env.postForm(t, "/teacher/assignments", url.Values{
		"title":       {"Problem set 1"},
		"description": {"exercises 1 through 10"},
		"due_date":    {"2030-06-01"},
		"course":      {crs.ID},
	}, cookie)
	assertRedirect(t, rec, "/teacher/assignments")

	rec = env.get(t, "/teacher/assignments", cookie)
	assertStatus(t, rec, http.StatusOK)
	assertBodyContains(t, rec, "Problem set 1")
}

func TestTeacherStudents(t *testing.T) {
	env := setup(t)
	cookie := sessionCookie(t, env.registerTeacher(t, "prof"))
	env.registerStudent(t, "kid")

	rec := env.get(t, "/teacher/students", cookie)
	assertStatus(t, rec, http.StatusOK)
	assertBodyContains(t, rec, "Longomba")

	std, err := env.schoolRepo.GetStudent(context.Background(), school.StudentFilter{Email: "kid@test.cd"})
	if err != nil {
		t.Fatalf("GetStudent() failed, %v", err)
	}

	rec = env.get(t, "/teacher/students/"+std.ID+"/edit", cookie)
	assertStatus(t, rec, http.StatusOK)

	rec = env.postForm(t, "/teacher/students/"+std.ID+"/edit", url.Values{
		"first_name":   {"Awilo"},
		"last_name":    {"Longomba"},
		"age":          {"17"},
		"phone_number": {"+243970000000"},
		"gender":       {"male"},
		"email":        {"kid@test.cd"},
		"gpa":          {"3.5"},
	}, cookie)
	assertRedirect(t, rec, "/teacher/students")

	std, err = env.schoolRepo.GetStudent(context.Background(), school.StudentFilter{ID: std.ID})
	if err != nil {
		t.Fatalf("GetStudent() failed, %v", err)
	}
	if std.Age != 17 || std.GPA != 3.5 {
		t.Errorf("student not updated: %+v", std)
	}

	rec = env.get(t, "/teacher/students/4242b5e9-8740-40cd-8b5a-e52871aca2d9/edit", cookie)
	assertStatus(t, rec, http.StatusNotFound)
}

func TestStudentDashboard(t *testing.T) {
	env := setup(t)
	ctx := context.Background()
	usr := env.registerStudent(t, "kid")
	cookie := sessionCookie(t, usr)

	rec := env.get(t, "/student/dashboard", cookie)
	assertStatus(t, rec, http.StatusOK)

	// enroll the student in a course and show it on the dashboard
	crs, err := env.schoolRepo.CreateCourse(ctx, school.Course{Name: "Algebra"})
	if err != nil {
		t.Fatalf("CreateCourse() failed, %v", err)
	}
	std, err := env.schoolRepo.GetStudent(ctx, school.StudentFilter{UserID: usr.ID})
	if err != nil {
		t.Fatalf("GetStudent() failed, %v", err)
	}
	std.CourseIDs = []string{crs.ID}
	if _, err = env.schoolRepo.UpdateStudent(ctx, std); err != nil {
		t.Fatalf("UpdateStudent() failed, %v", err)
	}

	rec = env.get(t, "/student/dashboard", cookie)
	assertStatus(t, rec, http.StatusOK)
	assertBodyContains(t, rec, "Algebra")
}
