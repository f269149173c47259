package school

import (
	"context"
	"net/mail"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/user"
)

var (
	// errors
	ErrNotFound           = errors.New("record not found")
	ErrStudentEmailExists = errors.New("a student with this email already exists")
)

type (
	TeacherFilter struct {
		ID     string
		UserID string
	}

	StudentFilter struct {
		ID     string
		UserID string
		Email  string
	}

	CourseFilter struct {
		ID          string
		IDs         []string
		CreatedByID string
	}

	ExamFilter struct {
		AssignedByID string
		StudentID    string
		DateFrom     time.Time
		DateTo       time.Time
	}

	AssignmentFilter struct {
		AssignedByID string
		StudentID    string
		DueFrom      time.Time
	}

	ScheduleFilter struct {
		TeacherID string
		CourseIDs []string
	}

	Repository interface {
		// teachers
		CreateTeacher(ctx context.Context, tch Teacher, exec ...core.DBExecutor) (Teacher, error)
		GetTeacher(ctx context.Context, filter TeacherFilter) (Teacher, error)

		// students
		CheckStudentEmailUniqueness(ctx context.Context, email string, excludedStudents []Student, exec ...core.DBExecutor) error
		CreateStudent(ctx context.Context, std Student, exec ...core.DBExecutor) (Student, error)
		GetStudent(ctx context.Context, filter StudentFilter) (Student, error)
		QueryStudents(ctx context.Context) ([]Student, error)
		QueryAssignedStudents(ctx context.Context, teacherID string) ([]Student, error)
		UpdateStudent(ctx context.Context, std Student, exec ...core.DBExecutor) (Student, error)

		// subjects
		QuerySubjects(ctx context.Context) ([]Subject, error)

		// courses
		CreateCourse(ctx context.Context, crs Course, exec ...core.DBExecutor) (Course, error)
		GetCourse(ctx context.Context, filter CourseFilter) (Course, error)
		QueryCourses(ctx context.Context, filter *CourseFilter) ([]Course, error)
		UpdateCourse(ctx context.Context, crs Course, exec ...core.DBExecutor) (Course, error)
		DeleteCourse(ctx context.Context, id string, exec ...core.DBExecutor) error

		// exams, assignments & schedules
		CreateExam(ctx context.Context, exam Exam, exec ...core.DBExecutor) (Exam, error)
		QueryExams(ctx context.Context, filter ExamFilter, ordering []core.DBOrdering) ([]Exam, error)
		CreateAssignment(ctx context.Context, asg Assignment, exec ...core.DBExecutor) (Assignment, error)
		QueryAssignments(ctx context.Context, filter AssignmentFilter, ordering []core.DBOrdering) ([]Assignment, error)
		CreateSchedule(ctx context.Context, sch Schedule, exec ...core.DBExecutor) (Schedule, error)
		QuerySchedules(ctx context.Context, filter ScheduleFilter, ordering []core.DBOrdering) ([]Schedule, error)
	}

	Service interface {
		ResolveRole(ctx context.Context, usr *user.User) (Role, error)
		TeacherForUser(ctx context.Context, usr user.User) (Teacher, error)
		StudentForUser(ctx context.Context, usr user.User) (Student, error)

		CheckRegistrationUniqueness(ctx context.Context, uname, email string) error
		CheckAccountUniqueness(ctx context.Context, uname, email string) error
		CheckStudentEmailUniqueness(ctx context.Context, email string, excludedStudents ...Student) error
		RegisterStudent(ctx context.Context, reg StudentRegistration) (user.User, error)
		RegisterTeacher(ctx context.Context, reg TeacherRegistration) (user.User, error)

		// teacher screens
		Students(ctx context.Context) ([]Student, error)
		AssignedStudents(ctx context.Context, tch Teacher) ([]Student, error)
		GetStudentByID(ctx context.Context, id string) (Student, error)
		UpdateStudent(ctx context.Context, id string, data UpdateStudent) (Student, error)
		Subjects(ctx context.Context) ([]Subject, error)
		Courses(ctx context.Context) ([]Course, error)
		CoursesBy(ctx context.Context, tch Teacher) ([]Course, error)
		GetCourseBy(ctx context.Context, tch Teacher, id string) (Course, error)
		CreateCourse(ctx context.Context, tch Teacher, data CourseInput) (Course, error)
		UpdateCourse(ctx context.Context, tch Teacher, id string, data CourseInput) (Course, error)
		DeleteCourse(ctx context.Context, tch Teacher, id string) error
		CreateExam(ctx context.Context, tch Teacher, data NewExam) (Exam, error)
		UpcomingExamsBy(ctx context.Context, tch Teacher) ([]Exam, error)
		PastExamsBy(ctx context.Context, tch Teacher) ([]Exam, error)
		CreateAssignment(ctx context.Context, tch Teacher, data NewAssignment) (Assignment, error)
		AssignmentsBy(ctx context.Context, tch Teacher) ([]Assignment, error)
		TeacherSchedules(ctx context.Context, tch Teacher) ([]Schedule, error)

		// student screens
		StudentCourses(ctx context.Context, std Student) ([]Course, error)
		UpcomingExamsFor(ctx context.Context, std Student) ([]Exam, error)
		UpcomingAssignmentsFor(ctx context.Context, std Student) ([]Assignment, error)
		StudentSchedules(ctx context.Context, std Student) ([]Schedule, error)
	}

	service struct {
		resolver *Resolver
		db       core.DB
		repo     Repository
		usrRepo  user.Repository
		mailSvc  core.EmailService
	}
)

var _ Service = (*service)(nil)

// NowFunc returns the current time; mockable for "upcoming vs past" queries.
var NowFunc = time.Now

func NewService(db core.DB, repo Repository, usrRepo user.Repository, mailSvc core.EmailService) Service {
	return &service{
		resolver: NewResolver(repo),
		db:       db,
		repo:     repo,
		usrRepo:  usrRepo,
		mailSvc:  mailSvc,
	}
}

func (svc *service) ResolveRole(ctx context.Context, usr *user.User) (Role, error) {
	return svc.resolver.Resolve(ctx, usr)
}

func (svc *service) TeacherForUser(ctx context.Context, usr user.User) (Teacher, error) {
	return svc.resolver.ResolveTeacher(ctx, usr)
}

func (svc *service) StudentForUser(ctx context.Context, usr user.User) (Student, error) {
	return svc.resolver.ResolveStudent(ctx, usr)
}

// begin opens a transaction when a DB handle is available; repos fall back on
// their own executor otherwise.
func (svc *service) begin(ctx context.Context) (core.DBTransactor, []core.DBExecutor, error) {
	if svc.db == nil {
		return nil, nil, nil
	}
	tx, err := svc.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, nil, errors.Wrap(err, "beginning transaction")
	}
	return tx, []core.DBExecutor{tx}, nil
}

func commit(tx core.DBTransactor) error {
	if tx == nil {
		return nil
	}
	return errors.Wrap(tx.Commit(), "committing transaction")
}

func rollback(tx core.DBTransactor) {
	if tx != nil {
		_ = tx.Rollback()
	}
}

func (svc *service) CheckAccountUniqueness(ctx context.Context, uname, email string) error {
	if err := svc.usrRepo.CheckUniqueness(ctx, uname, email, nil); err != nil {
		var field string
		switch errors.Cause(err) {
		case user.ErrUsernameExists:
			field = "username"
		case user.ErrEmailExists:
			field = "email"
		default:
			return err
		}
		return core.NewValidationError(err, core.FieldError{Field: field, Error: errors.Cause(err).Error()})
	}
	return nil
}

func (svc *service) CheckStudentEmailUniqueness(ctx context.Context, email string, excludedStudents ...Student) error {
	if err := svc.repo.CheckStudentEmailUniqueness(ctx, email, excludedStudents); err != nil {
		if errors.Cause(err) == ErrStudentEmailExists {
			return core.NewValidationError(err, core.FieldError{Field: "email", Error: errors.Cause(err).Error()})
		}
		return err
	}
	return nil
}

// CheckRegistrationUniqueness checks the username against the account store
// and the email against both the account and the student stores; an existing
// unlinked student record with that email blocks registration.
func (svc *service) CheckRegistrationUniqueness(ctx context.Context, uname, email string) error {
	if err := svc.CheckAccountUniqueness(ctx, uname, email); err != nil {
		return err
	}
	return svc.CheckStudentEmailUniqueness(ctx, email)
}

// RegisterStudent creates a User and its linked Student profile in a single
// all-or-nothing transaction. The new student starts with a 0.00 gpa and no
// courses.
func (svc *service) RegisterStudent(ctx context.Context, reg StudentRegistration) (user.User, error) {
	if err := reg.Validate(ctx, svc); err != nil {
		return user.User{}, err
	}

	now := time.Now().UTC()
	usr := user.User{
		Username:  reg.Username,
		FirstName: reg.FirstName,
		LastName:  reg.LastName,
		Email:     reg.Email,
		CreatedAt: now,
		UpdatedAt: now,
	}
	usr.SetActive(true)
	if err := usr.SetPassword(reg.Password1); err != nil {
		return user.User{}, errors.Wrap(err, "setting password")
	}

	tx, exec, err := svc.begin(ctx)
	if err != nil {
		return user.User{}, err
	}
	usr, err = svc.usrRepo.CreateUser(ctx, usr, exec...)
	if err != nil {
		rollback(tx)
		return user.User{}, errors.Wrap(err, "creating user")
	}
	std := Student{
		UserID:      usr.ID,
		FirstName:   reg.FirstName,
		LastName:    reg.LastName,
		Age:         reg.Age,
		PhoneNumber: reg.PhoneNumber,
		Gender:      reg.Gender,
		Email:       reg.Email,
		GPA:         0.00,
	}
	if _, err = svc.repo.CreateStudent(ctx, std, exec...); err != nil {
		rollback(tx)
		return user.User{}, errors.Wrap(err, "creating student profile")
	}
	if err = commit(tx); err != nil {
		return user.User{}, err
	}

	svc.sendWelcomeMail(usr)
	return usr, nil
}

// RegisterTeacher creates a User and its linked Teacher profile atomically.
func (svc *service) RegisterTeacher(ctx context.Context, reg TeacherRegistration) (user.User, error) {
	if err := reg.Validate(ctx, svc); err != nil {
		return user.User{}, err
	}

	now := time.Now().UTC()
	usr := user.User{
		Username:  reg.Username,
		FirstName: reg.FirstName,
		LastName:  reg.LastName,
		Email:     reg.Email,
		CreatedAt: now,
		UpdatedAt: now,
	}
	usr.SetActive(true)
	if err := usr.SetPassword(reg.Password1); err != nil {
		return user.User{}, errors.Wrap(err, "setting password")
	}

	tx, exec, err := svc.begin(ctx)
	if err != nil {
		return user.User{}, err
	}
	usr, err = svc.usrRepo.CreateUser(ctx, usr, exec...)
	if err != nil {
		rollback(tx)
		return user.User{}, errors.Wrap(err, "creating user")
	}
	tch := Teacher{
		UserID:      usr.ID,
		Age:         reg.Age,
		Gender:      reg.Gender,
		PhoneNumber: reg.PhoneNumber,
		GPA:         reg.GPA,
		SubjectIDs:  reg.SubjectIDs,
		StudentIDs:  reg.StudentIDs,
	}
	if _, err = svc.repo.CreateTeacher(ctx, tch, exec...); err != nil {
		rollback(tx)
		return user.User{}, errors.Wrap(err, "creating teacher profile")
	}
	if err = commit(tx); err != nil {
		return user.User{}, err
	}

	svc.sendWelcomeMail(usr)
	return usr, nil
}

func (svc *service) sendWelcomeMail(usr user.User) {
	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:           []mail.Address{{Name: usr.FullName(), Address: usr.Email}},
		Subject:      "Welcome to " + core.Conf.AppName,
		TemplateName: "welcome",
		TemplateData: struct{ User user.User }{usr},
	})
}

// Teacher screens

func (svc *service) Students(ctx context.Context) ([]Student, error) {
	return svc.repo.QueryStudents(ctx)
}

func (svc *service) AssignedStudents(ctx context.Context, tch Teacher) ([]Student, error) {
	return svc.repo.QueryAssignedStudents(ctx, tch.ID)
}

func (svc *service) GetStudentByID(ctx context.Context, id string) (Student, error) {
	return svc.repo.GetStudent(ctx, StudentFilter{ID: id})
}

func (svc *service) UpdateStudent(ctx context.Context, id string, data UpdateStudent) (Student, error) {
	std, err := svc.GetStudentByID(ctx, id)
	if err != nil {
		return Student{}, err
	}
	if err = data.Validate(ctx, std, svc); err != nil {
		return Student{}, err
	}

	std.FirstName = data.FirstName
	std.LastName = data.LastName
	std.Age = data.Age
	std.PhoneNumber = data.PhoneNumber
	std.Gender = data.Gender
	std.Email = data.Email
	std.GPA = data.GPA
	std.CourseIDs = data.CourseIDs
	return svc.repo.UpdateStudent(ctx, std)
}

func (svc *service) Subjects(ctx context.Context) ([]Subject, error) {
	return svc.repo.QuerySubjects(ctx)
}

func (svc *service) Courses(ctx context.Context) ([]Course, error) {
	return svc.repo.QueryCourses(ctx, nil)
}

func (svc *service) CoursesBy(ctx context.Context, tch Teacher) ([]Course, error) {
	return svc.repo.QueryCourses(ctx, &CourseFilter{CreatedByID: tch.ID})
}

// GetCourseBy fetches a course owned by tch; other teachers' courses resolve
// to ErrNotFound.
func (svc *service) GetCourseBy(ctx context.Context, tch Teacher, id string) (Course, error) {
	return svc.repo.GetCourse(ctx, CourseFilter{ID: id, CreatedByID: tch.ID})
}

func (svc *service) CreateCourse(ctx context.Context, tch Teacher, data CourseInput) (Course, error) {
	if err := data.Validate(); err != nil {
		return Course{}, err
	}
	crs := Course{
		Name:        data.Name,
		Description: data.Description,
		SubjectID:   data.SubjectID,
		CreatedByID: tch.ID,
	}
	return svc.repo.CreateCourse(ctx, crs)
}

func (svc *service) UpdateCourse(ctx context.Context, tch Teacher, id string, data CourseInput) (Course, error) {
	crs, err := svc.GetCourseBy(ctx, tch, id)
	if err != nil {
		return Course{}, err
	}
	if err = data.Validate(); err != nil {
		return Course{}, err
	}

	crs.Name = data.Name
	crs.Description = data.Description
	crs.SubjectID = data.SubjectID
	return svc.repo.UpdateCourse(ctx, crs)
}

func (svc *service) DeleteCourse(ctx context.Context, tch Teacher, id string) error {
	crs, err := svc.GetCourseBy(ctx, tch, id)
	if err != nil {
		return err
	}
	return svc.repo.DeleteCourse(ctx, crs.ID)
}

func (svc *service) CreateExam(ctx context.Context, tch Teacher, data NewExam) (Exam, error) {
	if err := data.Validate(); err != nil {
		return Exam{}, err
	}
	exam := Exam{
		Title:        data.Title,
		Subject:      data.Subject,
		Date:         data.date(),
		Type:         data.Type,
		CourseID:     data.CourseID,
		AssignedByID: tch.ID,
		StudentIDs:   data.StudentIDs,
	}
	return svc.repo.CreateExam(ctx, exam)
}

func (svc *service) UpcomingExamsBy(ctx context.Context, tch Teacher) ([]Exam, error) {
	return svc.repo.QueryExams(ctx,
		ExamFilter{AssignedByID: tch.ID, DateFrom: today()},
		[]core.DBOrdering{{Field: "date", Ascending: true}})
}

func (svc *service) PastExamsBy(ctx context.Context, tch Teacher) ([]Exam, error) {
	return svc.repo.QueryExams(ctx,
		ExamFilter{AssignedByID: tch.ID, DateTo: today()},
		[]core.DBOrdering{{Field: "date"}})
}

func (svc *service) CreateAssignment(ctx context.Context, tch Teacher, data NewAssignment) (Assignment, error) {
	if err := data.Validate(); err != nil {
		return Assignment{}, err
	}
	asg := Assignment{
		Title:        data.Title,
		Description:  data.Description,
		DueDate:      data.dueDate(),
		CourseID:     data.CourseID,
		AssignedByID: tch.ID,
		StudentIDs:   data.StudentIDs,
	}
	return svc.repo.CreateAssignment(ctx, asg)
}

func (svc *service) AssignmentsBy(ctx context.Context, tch Teacher) ([]Assignment, error) {
	return svc.repo.QueryAssignments(ctx,
		AssignmentFilter{AssignedByID: tch.ID},
		[]core.DBOrdering{{Field: "due_date", Ascending: true}})
}

func (svc *service) TeacherSchedules(ctx context.Context, tch Teacher) ([]Schedule, error) {
	return svc.repo.QuerySchedules(ctx,
		ScheduleFilter{TeacherID: tch.ID},
		[]core.DBOrdering{{Field: "day", Ascending: true}, {Field: "start_time", Ascending: true}})
}

// Student screens

func (svc *service) StudentCourses(ctx context.Context, std Student) ([]Course, error) {
	if len(std.CourseIDs) == 0 {
		return []Course{}, nil
	}
	return svc.repo.QueryCourses(ctx, &CourseFilter{IDs: std.CourseIDs})
}

func (svc *service) UpcomingExamsFor(ctx context.Context, std Student) ([]Exam, error) {
	return svc.repo.QueryExams(ctx,
		ExamFilter{StudentID: std.ID, DateFrom: today()},
		[]core.DBOrdering{{Field: "date", Ascending: true}})
}

func (svc *service) UpcomingAssignmentsFor(ctx context.Context, std Student) ([]Assignment, error) {
	return svc.repo.QueryAssignments(ctx,
		AssignmentFilter{StudentID: std.ID, DueFrom: today()},
		[]core.DBOrdering{{Field: "due_date", Ascending: true}})
}

func (svc *service) StudentSchedules(ctx context.Context, std Student) ([]Schedule, error) {
	if len(std.CourseIDs) == 0 {
		return []Schedule{}, nil
	}
	return svc.repo.QuerySchedules(ctx,
		ScheduleFilter{CourseIDs: std.CourseIDs},
		[]core.DBOrdering{{Field: "day", Ascending: true}, {Field: "start_time", Ascending: true}})
}

func today() time.Time {
	now := NowFunc().UTC()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}
