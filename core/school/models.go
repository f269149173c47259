package school

import (
	"context"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/user"
)

// Gender choices
const (
	GenderMale   = "male"
	GenderFemale = "female"
	GenderOther  = "other"
)

// Exam types
const (
	ExamMidterm = "midterm"
	ExamFinal   = "final"
)

// Days of the week, in the academy's order (week starts on Saturday).
var Days = []string{"saturday", "sunday", "monday", "tuesday", "wednesday", "thursday", "friday"}

// DayIndex reports day's position in Days; unknown days sort last.
func DayIndex(day string) int {
	for i, d := range Days {
		if d == day {
			return i
		}
	}
	return len(Days)
}

const dateLayout = "2006-01-02"

type Subject struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Teacher is the teacher role profile, linked 1:1 to a user.User.
type Teacher struct {
	ID          string   `json:"id"`
	UserID      string   `json:"user_id"`
	Age         int      `json:"age,omitempty"`
	Gender      string   `json:"gender,omitempty"`
	PhoneNumber string   `json:"phone_number,omitempty"`
	GPA         float64  `json:"gpa,omitempty"`
	SubjectIDs  []string `json:"subjects,omitempty"`
	StudentIDs  []string `json:"assigned_students,omitempty"`
}

// Student is the student role profile. UserID may be empty: student records
// can predate account linkage and are then matched by email.
type Student struct {
	ID          string   `json:"id"`
	UserID      string   `json:"user_id,omitempty"`
	FirstName   string   `json:"first_name"`
	LastName    string   `json:"last_name"`
	Age         int      `json:"age"`
	PhoneNumber string   `json:"phone_number"`
	Gender      string   `json:"gender"`
	Email       string   `json:"email"`
	GPA         float64  `json:"gpa"`
	CourseIDs   []string `json:"courses"`
}

func (s Student) FullName() string {
	return strings.TrimSpace(s.FirstName + " " + s.LastName)
}

type Course struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	SubjectID   string `json:"subject,omitempty"`
	CreatedByID string `json:"created_by,omitempty"`
}

type Exam struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Subject      string    `json:"subject"`
	Date         time.Time `json:"date"`
	Type         string    `json:"type"`
	CourseID     string    `json:"course"`
	AssignedByID string    `json:"assigned_by"`
	StudentIDs   []string  `json:"students,omitempty"`
}

type Assignment struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	DueDate      time.Time `json:"due_date"`
	CourseID     string    `json:"course"`
	AssignedByID string    `json:"assigned_by"`
	StudentIDs   []string  `json:"students,omitempty"`
}

type Schedule struct {
	ID        string `json:"id"`
	CourseID  string `json:"course"`
	Day       string `json:"day"`
	StartTime string `json:"start_time"` // "15:04"
	EndTime   string `json:"end_time"`   // "15:04"
	TeacherID string `json:"teacher"`
}

// StudentRegistration contains the information needed for a student to
// self-register: a new User and a linked Student profile.
type StudentRegistration struct {
	Username    string `json:"username" form:"username" validate:"required,max=150,alphanum_"`
	Password1   string `json:"password1" form:"password1" validate:"required"`
	Password2   string `json:"password2" form:"password2" validate:"required,eqfield=Password1"`
	FirstName   string `json:"first_name" form:"first_name" validate:"required,max=150"`
	LastName    string `json:"last_name" form:"last_name" validate:"required,max=150"`
	Email       string `json:"email" form:"email" validate:"required,email"`
	Age         int    `json:"age" form:"age" validate:"required,min=1"`
	Gender      string `json:"gender" form:"gender" validate:"required,oneof=male female other"`
	PhoneNumber string `json:"phone_number" form:"phone_number" validate:"required,max=20"`
}

func (sr *StudentRegistration) Validate(ctx context.Context, svc Service) error {
	sr.Username = core.CleanString(sr.Username, true /* lower */)
	sr.Email = core.CleanString(sr.Email, true /* lower */)
	sr.FirstName = core.CleanString(sr.FirstName)
	sr.LastName = core.CleanString(sr.LastName)
	sr.PhoneNumber = core.CleanString(sr.PhoneNumber)

	if err := core.Validate.Struct(sr); err != nil {
		return core.TranslateValidationErrors(err)
	}
	return svc.CheckRegistrationUniqueness(ctx, sr.Username, sr.Email)
}

// TeacherRegistration contains the information needed to sign up a teacher:
// a new User and a linked Teacher profile. Profile fields are optional.
type TeacherRegistration struct {
	Username    string   `json:"username" form:"username" validate:"required,max=150,alphanum_"`
	Password1   string   `json:"password1" form:"password1" validate:"required"`
	Password2   string   `json:"password2" form:"password2" validate:"required,eqfield=Password1"`
	FirstName   string   `json:"first_name" form:"first_name" validate:"omitempty,max=150"`
	LastName    string   `json:"last_name" form:"last_name" validate:"omitempty,max=150"`
	Email       string   `json:"email" form:"email" validate:"required,email"`
	Age         int      `json:"age" form:"age" validate:"omitempty,min=1"`
	Gender      string   `json:"gender" form:"gender" validate:"omitempty,oneof=male female other"`
	PhoneNumber string   `json:"phone_number" form:"phone_number" validate:"omitempty,max=20"`
	GPA         float64  `json:"gpa" form:"gpa" validate:"omitempty,min=0,max=4"`
	SubjectIDs  []string `json:"subjects" form:"subjects" validate:"omitempty,dive,uuid4"`
	StudentIDs  []string `json:"assigned_students" form:"assigned_students" validate:"omitempty,dive,uuid4"`
}

func (tr *TeacherRegistration) Validate(ctx context.Context, svc Service) error {
	tr.Username = core.CleanString(tr.Username, true /* lower */)
	tr.Email = core.CleanString(tr.Email, true /* lower */)
	tr.FirstName = core.CleanString(tr.FirstName)
	tr.LastName = core.CleanString(tr.LastName)
	tr.PhoneNumber = core.CleanString(tr.PhoneNumber)

	if err := core.Validate.Struct(tr); err != nil {
		return core.TranslateValidationErrors(err)
	}
	return svc.CheckAccountUniqueness(ctx, tr.Username, tr.Email)
}

// UpdateStudent defines what information may be provided to modify a Student.
type UpdateStudent struct {
	FirstName   string   `json:"first_name" form:"first_name" validate:"required,max=150"`
	LastName    string   `json:"last_name" form:"last_name" validate:"required,max=150"`
	Age         int      `json:"age" form:"age" validate:"required,min=1"`
	PhoneNumber string   `json:"phone_number" form:"phone_number" validate:"required,max=20"`
	Gender      string   `json:"gender" form:"gender" validate:"required,oneof=male female other"`
	Email       string   `json:"email" form:"email" validate:"required,email"`
	GPA         float64  `json:"gpa" form:"gpa" validate:"min=0,max=4"`
	CourseIDs   []string `json:"courses" form:"courses" validate:"omitempty,dive,uuid4"`
}

func (us *UpdateStudent) Validate(ctx context.Context, orig Student, svc Service) error {
	us.Email = core.CleanString(us.Email, true /* lower */)
	us.FirstName = core.CleanString(us.FirstName)
	us.LastName = core.CleanString(us.LastName)
	us.PhoneNumber = core.CleanString(us.PhoneNumber)

	if err := core.Validate.Struct(us); err != nil {
		return core.TranslateValidationErrors(err)
	}
	return svc.CheckStudentEmailUniqueness(ctx, us.Email, orig)
}

// CourseInput creates or updates a Course.
type CourseInput struct {
	Name        string `json:"name" form:"name" validate:"required,max=255"`
	Description string `json:"description" form:"description"`
	SubjectID   string `json:"subject" form:"subject" validate:"omitempty,uuid4"`
}

func (ci *CourseInput) Validate() error {
	ci.Name = core.CleanString(ci.Name)
	ci.Description = core.CleanString(ci.Description)

	if err := core.Validate.Struct(ci); err != nil {
		return core.TranslateValidationErrors(err)
	}
	return nil
}

type NewExam struct {
	Title      string   `json:"title" form:"title" validate:"required,max=255"`
	Subject    string   `json:"subject" form:"subject" validate:"required,max=255"`
	Date       string   `json:"date" form:"date" validate:"required,datetime=2006-01-02"`
	Type       string   `json:"type" form:"type" validate:"required,oneof=midterm final"`
	CourseID   string   `json:"course" form:"course" validate:"required,uuid4"`
	StudentIDs []string `json:"students" form:"students" validate:"omitempty,dive,uuid4"`
}

func (ne *NewExam) Validate() error {
	ne.Title = core.CleanString(ne.Title)
	ne.Subject = core.CleanString(ne.Subject)

	if err := core.Validate.Struct(ne); err != nil {
		return core.TranslateValidationErrors(err)
	}
	return nil
}

func (ne NewExam) date() time.Time {
	t, _ := time.Parse(dateLayout, ne.Date)
	return t
}

type NewAssignment struct {
	Title       string   `json:"title" form:"title" validate:"required,max=255"`
	Description string   `json:"description" form:"description" validate:"required"`
	DueDate     string   `json:"due_date" form:"due_date" validate:"required,datetime=2006-01-02"`
	CourseID    string   `json:"course" form:"course" validate:"required,uuid4"`
	StudentIDs  []string `json:"students" form:"students" validate:"omitempty,dive,uuid4"`
}

func (na *NewAssignment) Validate() error {
	na.Title = core.CleanString(na.Title)
	na.Description = core.CleanString(na.Description)

	if err := core.Validate.Struct(na); err != nil {
		return core.TranslateValidationErrors(err)
	}
	return nil
}

func (na NewAssignment) dueDate() time.Time {
	t, _ := time.Parse(dateLayout, na.DueDate)
	return t
}

func init() {
	core.Validate.RegisterStructValidation(registrationStructValidation, StudentRegistration{}, TeacherRegistration{})
}

// registrationStructValidation applies the password policy to registrations.
func registrationStructValidation(sl validator.StructLevel) {
	switch reg := sl.Current().Interface().(type) {
	case StudentRegistration:
		user.ValidatePassword(sl, "password1", "Password1", reg.Password1, reg.Username, reg.FirstName, reg.LastName, reg.Email)
	case TeacherRegistration:
		user.ValidatePassword(sl, "password1", "Password1", reg.Password1, reg.Username, reg.FirstName, reg.LastName, reg.Email)
	}
}
