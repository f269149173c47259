package school_test

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/school"
	"github.com/trezcool/shule/core/user"
	emailsvc "github.com/trezcool/shule/services/email"
	dummydb "github.com/trezcool/shule/storage/database/dummy"
)

const goodPwd = "L0remIpsum#99"

func setupService(t *testing.T) (school.Service, school.Repository, user.Repository) {
	t.Helper()
	emailsvc.ClearSentMessages()

	db := dummydb.Open()
	repo := dummydb.NewSchoolRepository(db)
	usrRepo := dummydb.NewUserRepository(db)
	svc := school.NewService(nil, repo, usrRepo, emailsvc.NewMockService())
	return svc, repo, usrRepo
}

func assertFieldErrors(t *testing.T, err error, fields ...string) {
	t.Helper()

	if err == nil {
		t.Fatal("expected a validation error, got nil")
	}
	vErr, ok := errors.Cause(err).(*core.ValidationError)
	if !ok {
		t.Fatalf("expected *core.ValidationError, got %T: %v", errors.Cause(err), err)
	}
	fldMap := vErr.FieldMap()
	for _, fld := range fields {
		if _, ok := fldMap[fld]; !ok {
			t.Errorf("missing error for field %q in %v", fld, fldMap)
		}
	}
}

func examTitles(exams []school.Exam) []string {
	titles := make([]string, len(exams))
	for i, exam := range exams {
		titles[i] = exam.Title
	}
	return titles
}

func TestService_RegisterStudent(t *testing.T) {
	svc, repo, _ := setupService(t)
	ctx := context.Background()

	reg := school.StudentRegistration{
		Username:    " Hassan ",
		Password1:   goodPwd,
		Password2:   goodPwd,
		FirstName:   " Hassan ",
		LastName:    "Sebu",
		Email:       " Hassan.Sebu@Test.CD ",
		Age:         16,
		Gender:      school.GenderMale,
		PhoneNumber: "+243970000000",
	}
	usr, err := svc.RegisterStudent(ctx, reg)
	if err != nil {
		t.Fatalf("RegisterStudent() failed, %v", err)
	}

	if usr.Username != "hassan" {
		t.Errorf("Username = %q, want %q", usr.Username, "hassan")
	}
	if usr.Email != "hassan.sebu@test.cd" {
		t.Errorf("Email = %q, want %q", usr.Email, "hassan.sebu@test.cd")
	}
	if !usr.Active() {
		t.Error("new account should be active")
	}
	if err = usr.CheckPassword(goodPwd); err != nil {
		t.Errorf("CheckPassword() failed, %v", err)
	}

	std, err := repo.GetStudent(ctx, school.StudentFilter{UserID: usr.ID})
	if err != nil {
		t.Fatalf("GetStudent() failed, %v", err)
	}
	if std.FirstName != "Hassan" || std.LastName != "Sebu" {
		t.Errorf("student profile = %q %q, want %q %q", std.FirstName, std.LastName, "Hassan", "Sebu")
	}
	if std.GPA != 0 {
		t.Errorf("GPA = %v, want 0", std.GPA)
	}
	if len(std.CourseIDs) != 0 {
		t.Errorf("CourseIDs = %v, want none", std.CourseIDs)
	}

	role, err := svc.ResolveRole(ctx, &usr)
	if err != nil {
		t.Fatalf("ResolveRole() failed, %v", err)
	}
	if role != school.RoleStudent {
		t.Errorf("ResolveRole() = %v, want %v", role, school.RoleStudent)
	}

	if len(emailsvc.SentMessages) != 1 {
		t.Fatalf("len(SentMessages) = %d, want 1", len(emailsvc.SentMessages))
	}
	msg := emailsvc.SentMessages[0]
	if msg.TemplateName != "welcome" {
		t.Errorf("TemplateName = %q, want %q", msg.TemplateName, "welcome")
	}
	if len(msg.To) != 1 || msg.To[0].Address != usr.Email {
		t.Errorf("To = %v, want %q", msg.To, usr.Email)
	}
}

func TestService_RegisterStudent_validation(t *testing.T) {
	svc, repo, usrRepo := setupService(t)
	ctx := context.Background()

	newReg := func(uname, email string) school.StudentRegistration {
		return school.StudentRegistration{
			Username:    uname,
			Password1:   goodPwd,
			Password2:   goodPwd,
			FirstName:   "Awilo",
			LastName:    "Longomba",
			Email:       email,
			Age:         17,
			Gender:      school.GenderFemale,
			PhoneNumber: "+243970000001",
		}
	}

	// seed a registered account and an unlinked student record
	if _, err := svc.RegisterStudent(ctx, newReg("taken", "taken@test.cd")); err != nil {
		t.Fatalf("RegisterStudent() failed, %v", err)
	}
	if _, err := repo.CreateStudent(ctx, school.Student{Email: "legacy@test.cd"}); err != nil {
		t.Fatalf("CreateStudent() failed, %v", err)
	}

	tests := []struct {
		name       string
		reg        school.StudentRegistration
		wantFields []string
	}{
		{name: "missing fields", reg: school.StudentRegistration{}, wantFields: []string{"username", "password1", "first_name", "last_name", "email", "age", "gender", "phone_number"}},
		{name: "taken username", reg: newReg("taken", "new@test.cd"), wantFields: []string{"username"}},
		{name: "taken account email", reg: newReg("newkid", "taken@test.cd"), wantFields: []string{"email"}},
		{name: "existing student email", reg: newReg("newkid", "legacy@test.cd"), wantFields: []string{"email"}},
		{
			name: "password mismatch",
			reg: func() school.StudentRegistration {
				reg := newReg("newkid", "new@test.cd")
				reg.Password2 = "s0methingElse#"
				return reg
			}(),
			wantFields: []string{"password2"},
		},
		{
			name: "weak password",
			reg: func() school.StudentRegistration {
				reg := newReg("newkid", "new@test.cd")
				reg.Password1 = "password"
				reg.Password2 = "password"
				return reg
			}(),
			wantFields: []string{"password1"},
		},
		{
			name: "password too similar to username",
			reg: func() school.StudentRegistration {
				reg := newReg("chrysostome", "new@test.cd")
				reg.Password1 = "chrysostome1"
				reg.Password2 = "chrysostome1"
				return reg
			}(),
			wantFields: []string{"password1"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.RegisterStudent(ctx, tt.reg)
			assertFieldErrors(t, err, tt.wantFields...)
		})
	}

	// nothing was persisted for the failed attempts
	if _, err := usrRepo.GetUser(ctx, user.GetFilter{Username: "newkid"}); errors.Cause(err) != user.ErrNotFound {
		t.Errorf("GetUser() error = %v, want %v", err, user.ErrNotFound)
	}
	if _, err := repo.GetStudent(ctx, school.StudentFilter{Email: "new@test.cd"}); errors.Cause(err) != school.ErrNotFound {
		t.Errorf("GetStudent() error = %v, want %v", err, school.ErrNotFound)
	}
}

func TestService_RegisterTeacher(t *testing.T) {
	svc, _, _ := setupService(t)
	ctx := context.Background()

	reg := school.TeacherRegistration{
		Username:  "prof",
		Password1: goodPwd,
		Password2: goodPwd,
		Email:     "prof@test.cd",
	}
	usr, err := svc.RegisterTeacher(ctx, reg)
	if err != nil {
		t.Fatalf("RegisterTeacher() failed, %v", err)
	}

	tch, err := svc.TeacherForUser(ctx, usr)
	if err != nil {
		t.Fatalf("TeacherForUser() failed, %v", err)
	}
	if tch.UserID != usr.ID {
		t.Errorf("teacher UserID = %q, want %q", tch.UserID, usr.ID)
	}

	role, err := svc.ResolveRole(ctx, &usr)
	if err != nil {
		t.Fatalf("ResolveRole() failed, %v", err)
	}
	if role != school.RoleTeacher {
		t.Errorf("ResolveRole() = %v, want %v", role, school.RoleTeacher)
	}

	// duplicate account
	_, err = svc.RegisterTeacher(ctx, school.TeacherRegistration{
		Username:  "prof2",
		Password1: goodPwd,
		Password2: goodPwd,
		Email:     "prof@test.cd",
	})
	assertFieldErrors(t, err, "email")
}

func TestService_CourseOwnership(t *testing.T) {
	svc, repo, _ := setupService(t)
	ctx := context.Background()

	tch1, err := repo.CreateTeacher(ctx, school.Teacher{UserID: "33c0d8c3-2a14-4a35-8d74-3c9aafebcdf1"})
	if err != nil {
		t.Fatalf("CreateTeacher() failed, %v", err)
	}
	tch2, err := repo.CreateTeacher(ctx, school.Teacher{UserID: "d3b96cf0-1dca-4a06-a65a-8b01ab0a4f5c"})
	if err != nil {
		t.Fatalf("CreateTeacher() failed, %v", err)
	}

	crs, err := svc.CreateCourse(ctx, tch1, school.CourseInput{Name: " Algebra I ", Description: "numbers and letters"})
	if err != nil {
		t.Fatalf("CreateCourse() failed, %v", err)
	}
	if crs.Name != "Algebra I" {
		t.Errorf("Name = %q, want %q", crs.Name, "Algebra I")
	}
	if crs.CreatedByID != tch1.ID {
		t.Errorf("CreatedByID = %q, want %q", crs.CreatedByID, tch1.ID)
	}

	// the owner sees it; other teachers do not
	if _, err = svc.GetCourseBy(ctx, tch1, crs.ID); err != nil {
		t.Errorf("GetCourseBy() failed for owner, %v", err)
	}
	if _, err = svc.GetCourseBy(ctx, tch2, crs.ID); errors.Cause(err) != school.ErrNotFound {
		t.Errorf("GetCourseBy() error = %v, want %v", err, school.ErrNotFound)
	}

	if _, err = svc.UpdateCourse(ctx, tch2, crs.ID, school.CourseInput{Name: "Hijacked"}); errors.Cause(err) != school.ErrNotFound {
		t.Errorf("UpdateCourse() error = %v, want %v", err, school.ErrNotFound)
	}
	crs, err = svc.UpdateCourse(ctx, tch1, crs.ID, school.CourseInput{Name: "Algebra II"})
	if err != nil {
		t.Fatalf("UpdateCourse() failed, %v", err)
	}
	if crs.Name != "Algebra II" {
		t.Errorf("Name = %q, want %q", crs.Name, "Algebra II")
	}

	crss, err := svc.CoursesBy(ctx, tch2)
	if err != nil {
		t.Fatalf("CoursesBy() failed, %v", err)
	}
	if len(crss) != 0 {
		t.Errorf("CoursesBy() = %v, want none", crss)
	}

	if err = svc.DeleteCourse(ctx, tch2, crs.ID); errors.Cause(err) != school.ErrNotFound {
		t.Errorf("DeleteCourse() error = %v, want %v", err, school.ErrNotFound)
	}
	if err = svc.DeleteCourse(ctx, tch1, crs.ID); err != nil {
		t.Fatalf("DeleteCourse() failed, %v", err)
	}
	if _, err = svc.GetCourseBy(ctx, tch1, crs.ID); errors.Cause(err) != school.ErrNotFound {
		t.Errorf("GetCourseBy() error = %v, want %v", err, school.ErrNotFound)
	}
}

func TestService_ExamWindows(t *testing.T) {
	svc, repo, _ := setupService(t)
	ctx := context.Background()

	school.NowFunc = func() time.Time { return time.Date(2026, 3, 15, 10, 30, 0, 0, time.UTC) }
	defer func() { school.NowFunc = time.Now }()

	tch, err := repo.CreateTeacher(ctx, school.Teacher{UserID: "33c0d8c3-2a14-4a35-8d74-3c9aafebcdf1"})
	if err != nil {
		t.Fatalf("CreateTeacher() failed, %v", err)
	}
	std, err := repo.CreateStudent(ctx, school.Student{Email: "std@test.cd"})
	if err != nil {
		t.Fatalf("CreateStudent() failed, %v", err)
	}

	mkExam := func(title string, date time.Time, studentIDs ...string) {
		t.Helper()
		_, err := repo.CreateExam(ctx, school.Exam{
			Title:        title,
			Subject:      "math",
			Date:         date,
			Type:         school.ExamMidterm,
			AssignedByID: tch.ID,
			StudentIDs:   studentIDs,
		})
		if err != nil {
			t.Fatalf("CreateExam() failed, %v", err)
		}
	}
	mkExam("yesterday", time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC))
	mkExam("today", time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC), std.ID)
	mkExam("tomorrow", time.Date(2026, 3, 16, 0, 0, 0, 0, time.UTC))

	upcoming, err := svc.UpcomingExamsBy(ctx, tch)
	if err != nil {
		t.Fatalf("UpcomingExamsBy() failed, %v", err)
	}
	if len(upcoming) != 2 || upcoming[0].Title != "today" || upcoming[1].Title != "tomorrow" {
		t.Errorf("UpcomingExamsBy() = %v, want [today tomorrow]", examTitles(upcoming))
	}

	past, err := svc.PastExamsBy(ctx, tch)
	if err != nil {
		t.Fatalf("PastExamsBy() failed, %v", err)
	}
	if len(past) != 1 || past[0].Title != "yesterday" {
		t.Errorf("PastExamsBy() = %v, want [yesterday]", examTitles(past))
	}

	forStd, err := svc.UpcomingExamsFor(ctx, std)
	if err != nil {
		t.Fatalf("UpcomingExamsFor() failed, %v", err)
	}
	if len(forStd) != 1 || forStd[0].Title != "today" {
		t.Errorf("UpcomingExamsFor() = %v, want [today]", examTitles(forStd))
	}
}

func TestService_Assignments(t *testing.T) {
	svc, repo, _ := setupService(t)
	ctx := context.Background()

	school.NowFunc = func() time.Time { return time.Date(2026, 3, 15, 10, 30, 0, 0, time.UTC) }
	defer func() { school.NowFunc = time.Now }()

	tch, err := repo.CreateTeacher(ctx, school.Teacher{UserID: "33c0d8c3-2a14-4a35-8d74-3c9aafebcdf1"})
	if err != nil {
		t.Fatalf("CreateTeacher() failed, %v", err)
	}
	std, err := repo.CreateStudent(ctx, school.Student{Email: "std@test.cd"})
	if err != nil {
		t.Fatalf("CreateStudent() failed, %v", err)
	}

	mkAsg := func(title string, due time.Time, studentIDs ...string) {
		t.Helper()
		_, err := repo.CreateAssignment(ctx, school.Assignment{
			Title:        title,
			Description:  "do it",
			DueDate:      due,
			AssignedByID: tch.ID,
			StudentIDs:   studentIDs,
		})
		if err != nil {
			t.Fatalf("CreateAssignment() failed, %v", err)
		}
	}
	mkAsg("overdue", time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC), std.ID)
	mkAsg("pending", time.Date(2026, 3, 20, 0, 0, 0, 0, time.UTC), std.ID)

	// the teacher view keeps the full history
	all, err := svc.AssignmentsBy(ctx, tch)
	if err != nil {
		t.Fatalf("AssignmentsBy() failed, %v", err)
	}
	if len(all) != 2 || all[0].Title != "overdue" || all[1].Title != "pending" {
		t.Errorf("AssignmentsBy() returned %d assignments, want 2 in due order", len(all))
	}

	// the student view only shows what is still due
	upcoming, err := svc.UpcomingAssignmentsFor(ctx, std)
	if err != nil {
		t.Fatalf("UpcomingAssignmentsFor() failed, %v", err)
	}
	if len(upcoming) != 1 || upcoming[0].Title != "pending" {
		t.Errorf("UpcomingAssignmentsFor() returned %d assignments, want [pending]", len(upcoming))
	}
}

func TestService_StudentScreens(t *testing.T) {
	svc, repo, _ := setupService(t)
	ctx := context.Background()

	crs1, err := repo.CreateCourse(ctx, school.Course{Name: "Algebra"})
	if err != nil {
		t.Fatalf("CreateCourse() failed, %v", err)
	}
	if _, err = repo.CreateCourse(ctx, school.Course{Name: "Biology"}); err != nil {
		t.Fatalf("CreateCourse() failed, %v", err)
	}
	sch, err := repo.CreateSchedule(ctx, school.Schedule{CourseID: crs1.ID, Day: "monday", StartTime: "08:00", EndTime: "09:30"})
	if err != nil {
		t.Fatalf("CreateSchedule() failed, %v", err)
	}

	std := school.Student{ID: "5acfa0eb-2c96-424b-bd9a-8c8a2da712c1", CourseIDs: []string{crs1.ID}}

	crss, err := svc.StudentCourses(ctx, std)
	if err != nil {
		t.Fatalf("StudentCourses() failed, %v", err)
	}
	if len(crss) != 1 || crss[0].ID != crs1.ID {
		t.Errorf("StudentCourses() = %v, want [%s]", crss, crs1.Name)
	}

	schs, err := svc.StudentSchedules(ctx, std)
	if err != nil {
		t.Fatalf("StudentSchedules() failed, %v", err)
	}
	if len(schs) != 1 || schs[0].ID != sch.ID {
		t.Errorf("StudentSchedules() returned %d schedules, want 1", len(schs))
	}

	// no enrolled courses; empty screens without store round trips
	empty := school.Student{ID: "8f90f2b4-dd96-4a29-bc0e-3adcf0fc4a85"}
	if crss, err = svc.StudentCourses(ctx, empty); err != nil || len(crss) != 0 {
		t.Errorf("StudentCourses() = %v, %v; want none", crss, err)
	}
	if schs, err = svc.StudentSchedules(ctx, empty); err != nil || len(schs) != 0 {
		t.Errorf("StudentSchedules() = %v, %v; want none", schs, err)
	}
}

func TestService_UpdateStudent(t *testing.T) {
	svc, repo, _ := setupService(t)
	ctx := context.Background()

	std, err := repo.CreateStudent(ctx, school.Student{
		FirstName: "Awilo", LastName: "Longomba", Age: 15,
		PhoneNumber: "+243970000002", Gender: school.GenderMale, Email: "awilo@test.cd",
	})
	if err != nil {
		t.Fatalf("CreateStudent() failed, %v", err)
	}
	if _, err = repo.CreateStudent(ctx, school.Student{Email: "other@test.cd"}); err != nil {
		t.Fatalf("CreateStudent() failed, %v", err)
	}
	crs, err := repo.CreateCourse(ctx, school.Course{Name: "Algebra"})
	if err != nil {
		t.Fatalf("CreateCourse() failed, %v", err)
	}

	data := school.UpdateStudent{
		FirstName: "Awilo", LastName: "Longomba", Age: 16,
		PhoneNumber: "+243970000002", Gender: school.GenderMale, Email: "awilo@test.cd",
		GPA: 3.2, CourseIDs: []string{crs.ID},
	}
	std, err = svc.UpdateStudent(ctx, std.ID, data)
	if err != nil {
		t.Fatalf("UpdateStudent() failed, %v", err)
	}
	if std.Age != 16 || std.GPA != 3.2 || len(std.CourseIDs) != 1 {
		t.Errorf("UpdateStudent() = %+v, want updated age/gpa/courses", std)
	}

	// keeping one's own email is fine; stealing another student's is not
	data.Email = "other@test.cd"
	_, err = svc.UpdateStudent(ctx, std.ID, data)
	assertFieldErrors(t, err, "email")

	if _, err = svc.UpdateStudent(ctx, "4242b5e9-8740-40cd-8b5a-e52871aca2d9", data); errors.Cause(err) != school.ErrNotFound {
		t.Errorf("UpdateStudent() error = %v, want %v", err, school.ErrNotFound)
	}
}

func TestService_ScheduleWeekOrder(t *testing.T) {
	svc, repo, _ := setupService(t)
	ctx := context.Background()

	tch, err := repo.CreateTeacher(ctx, school.Teacher{UserID: "33c0d8c3-2a14-4a35-8d74-3c9aafebcdf1"})
	if err != nil {
		t.Fatalf("CreateTeacher() failed, %v", err)
	}
	crs, err := repo.CreateCourse(ctx, school.Course{Name: "Algebra", CreatedByID: tch.ID})
	if err != nil {
		t.Fatalf("CreateCourse() failed, %v", err)
	}

	mkSch := func(day, start string) {
		t.Helper()
		_, err := repo.CreateSchedule(ctx, school.Schedule{
			CourseID:  crs.ID,
			Day:       day,
			StartTime: start,
			EndTime:   "17:00",
			TeacherID: tch.ID,
		})
		if err != nil {
			t.Fatalf("CreateSchedule() failed, %v", err)
		}
	}
	// inserted out of order on purpose; alphabetical order would yield
	// friday, monday, saturday, saturday
	mkSch("friday", "08:00")
	mkSch("saturday", "10:00")
	mkSch("saturday", "08:00")
	mkSch("monday", "08:00")

	schs, err := svc.TeacherSchedules(ctx, tch)
	if err != nil {
		t.Fatalf("TeacherSchedules() failed, %v", err)
	}
	want := []string{"saturday 08:00", "saturday 10:00", "monday 08:00", "friday 08:00"}
	if len(schs) != len(want) {
		t.Fatalf("TeacherSchedules() returned %d schedules, want %d", len(schs), len(want))
	}
	for i, sch := range schs {
		if got := sch.Day + " " + sch.StartTime; got != want[i] {
			t.Errorf("schedule[%d] = %q, want %q", i, got, want[i])
		}
	}
}

func TestDayIndex(t *testing.T) {
	for i, day := range school.Days {
		if got := school.DayIndex(day); got != i {
			t.Errorf("DayIndex(%q) = %d, want %d", day, got, i)
		}
	}
	if got := school.DayIndex("someday"); got != len(school.Days) {
		t.Errorf("DayIndex(unknown) = %d, want %d", got, len(school.Days))
	}
}
