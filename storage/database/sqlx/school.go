package sqlxrepos

import (
	"context"
	"database/sql"
	"strconv"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/school"
)

var (
	teacherColumns  = []string{"id", "user_id", "age", "gender", "phone_number", "gpa"}
	studentColumns  = []string{"id", "user_id", "first_name", "last_name", "age", "phone_number", "gender", "email", "gpa"}
	courseColumns   = []string{"id", "name", "description", "subject_id", "created_by"}
	examColumns     = []string{"id", "title", "subject", "date", "type", "course_id", "assigned_by"}
	asgColumns      = []string{"id", "title", "description", "due_date", "course_id", "assigned_by"}
	scheduleColumns = []string{"id", "course_id", "day", "to_char(start_time, 'HH24:MI') AS start_time", "to_char(end_time, 'HH24:MI') AS end_time", "teacher_id"}
)

type teacherRow struct {
	ID          string       `db:"id"`
	UserID      string       `db:"user_id"`
	Age         null.Int     `db:"age"`
	Gender      null.String  `db:"gender"`
	PhoneNumber null.String  `db:"phone_number"`
	GPA         null.Float64 `db:"gpa"`
}

func (r teacherRow) unrow() school.Teacher {
	return school.Teacher{
		ID:          r.ID,
		UserID:      r.UserID,
		Age:         int(r.Age.Int),
		Gender:      r.Gender.String,
		PhoneNumber: r.PhoneNumber.String,
		GPA:         r.GPA.Float64,
	}
}

type studentRow struct {
	ID          string      `db:"id"`
	UserID      null.String `db:"user_id"`
	FirstName   string      `db:"first_name"`
	LastName    string      `db:"last_name"`
	Age         int         `db:"age"`
	PhoneNumber string      `db:"phone_number"`
	Gender      string      `db:"gender"`
	Email       string      `db:"email"`
	GPA         float64     `db:"gpa"`
}

func (r studentRow) unrow() school.Student {
	return school.Student{
		ID:          r.ID,
		UserID:      r.UserID.String,
		FirstName:   r.FirstName,
		LastName:    r.LastName,
		Age:         r.Age,
		PhoneNumber: r.PhoneNumber,
		Gender:      r.Gender,
		Email:       r.Email,
		GPA:         r.GPA,
	}
}

type courseRow struct {
	ID          string      `db:"id"`
	Name        string      `db:"name"`
	Description string      `db:"description"`
	SubjectID   null.String `db:"subject_id"`
	CreatedBy   null.String `db:"created_by"`
}

func (r courseRow) unrow() school.Course {
	return school.Course{
		ID:          r.ID,
		Name:        r.Name,
		Description: r.Description,
		SubjectID:   r.SubjectID.String,
		CreatedByID: r.CreatedBy.String,
	}
}

type examRow struct {
	ID         string    `db:"id"`
	Title      string    `db:"title"`
	Subject    string    `db:"subject"`
	Date       time.Time `db:"date"`
	Type       string    `db:"type"`
	CourseID   string    `db:"course_id"`
	AssignedBy string    `db:"assigned_by"`
}

func (r examRow) unrow() school.Exam {
	return school.Exam{
		ID:           r.ID,
		Title:        r.Title,
		Subject:      r.Subject,
		Date:         r.Date,
		Type:         r.Type,
		CourseID:     r.CourseID,
		AssignedByID: r.AssignedBy,
	}
}

type assignmentRow struct {
	ID          string    `db:"id"`
	Title       string    `db:"title"`
	Description string    `db:"description"`
	DueDate     time.Time `db:"due_date"`
	CourseID    string    `db:"course_id"`
	AssignedBy  string    `db:"assigned_by"`
}

func (r assignmentRow) unrow() school.Assignment {
	return school.Assignment{
		ID:           r.ID,
		Title:        r.Title,
		Description:  r.Description,
		DueDate:      r.DueDate,
		CourseID:     r.CourseID,
		AssignedByID: r.AssignedBy,
	}
}

type scheduleRow struct {
	ID        string `db:"id"`
	CourseID  string `db:"course_id"`
	Day       string `db:"day"`
	StartTime string `db:"start_time"`
	EndTime   string `db:"end_time"`
	TeacherID string `db:"teacher_id"`
}

func (r scheduleRow) unrow() school.Schedule {
	return school.Schedule{
		ID:        r.ID,
		CourseID:  r.CourseID,
		Day:       r.Day,
		StartTime: r.StartTime,
		EndTime:   r.EndTime,
		TeacherID: r.TeacherID,
	}
}

type schoolRepository struct {
	db *sqlx.DB
}

var _ school.Repository = (*schoolRepository)(nil) // interface compliance check

func NewSchoolRepository(db *sqlx.DB) *schoolRepository {
	return &schoolRepository{db: db}
}

func (repo schoolRepository) getExec(svcExec []core.DBExecutor) core.DBExecutor {
	if len(svcExec) > 0 {
		return svcExec[0]
	}
	return repo.db
}

func trapSchoolNoRowsErr(err error, msg string) error {
	if err == sql.ErrNoRows {
		return school.ErrNotFound
	}
	return errors.Wrap(err, msg)
}

// linkRows inserts (leftID, rightID) pairs into an M2M table.
func linkRows(ctx context.Context, exe core.DBExecutor, table, leftCol, rightCol, leftID string, rightIDs []string) error {
	if len(rightIDs) == 0 {
		return nil
	}
	qb := psql.Insert(table).Columns(leftCol, rightCol)
	for _, rightID := range rightIDs {
		qb = qb.Values(leftID, rightID)
	}
	q, args, err := qb.ToSql()
	if err != nil {
		return errors.Wrap(err, "building link query")
	}
	_, err = exe.ExecContext(ctx, q, args...)
	return errors.Wrapf(err, "linking %s", table)
}

func unlinkRows(ctx context.Context, exe core.DBExecutor, table, leftCol, leftID string) error {
	q, args, err := psql.Delete(table).Where(sq.Eq{leftCol: leftID}).ToSql()
	if err != nil {
		return errors.Wrap(err, "building unlink query")
	}
	_, err = exe.ExecContext(ctx, q, args...)
	return errors.Wrapf(err, "unlinking %s", table)
}

// selectIDs loads the rightCol values linked to leftID in an M2M table.
func (repo schoolRepository) selectIDs(ctx context.Context, table, leftCol, rightCol, leftID string) ([]string, error) {
	q, args, err := psql.Select(rightCol).From(table).Where(sq.Eq{leftCol: leftID}).ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "building link select query")
	}
	var ids []string
	if err = repo.db.SelectContext(ctx, &ids, q, args...); err != nil {
		return nil, errors.Wrapf(err, "loading %s links", table)
	}
	return ids, nil
}

// teachers

func (repo schoolRepository) CreateTeacher(ctx context.Context, tch school.Teacher, exec ...core.DBExecutor) (school.Teacher, error) {
	exe := repo.getExec(exec)

	tch.ID = uuid.New().String()
	q, args, err := psql.Insert("teacher").
		Columns(teacherColumns...).
		Values(
			tch.ID, tch.UserID,
			null.NewInt(tch.Age, tch.Age > 0),
			null.NewString(tch.Gender, tch.Gender != ""),
			null.NewString(tch.PhoneNumber, tch.PhoneNumber != ""),
			null.NewFloat64(tch.GPA, tch.GPA > 0),
		).ToSql()
	if err != nil {
		return school.Teacher{}, errors.Wrap(err, "building insert query")
	}
	if _, err = exe.ExecContext(ctx, q, args...); err != nil {
		return school.Teacher{}, errors.Wrap(err, "inserting teacher")
	}

	if err = linkRows(ctx, exe, "teacher_subject", "teacher_id", "subject_id", tch.ID, tch.SubjectIDs); err != nil {
		return school.Teacher{}, err
	}
	if err = linkRows(ctx, exe, "teacher_student", "teacher_id", "student_id", tch.ID, tch.StudentIDs); err != nil {
		return school.Teacher{}, err
	}
	return tch, nil
}

func (repo schoolRepository) GetTeacher(ctx context.Context, filter school.TeacherFilter) (school.Teacher, error) {
	qb := psql.Select(teacherColumns...).From("teacher")
	switch {
	case filter.ID != "":
		qb = qb.Where(sq.Eq{"id": filter.ID})
	case filter.UserID != "":
		qb = qb.Where(sq.Eq{"user_id": filter.UserID})
	default:
		return school.Teacher{}, school.ErrNotFound
	}

	q, args, err := qb.ToSql()
	if err != nil {
		return school.Teacher{}, errors.Wrap(err, "building select query")
	}
	var row teacherRow
	if err = repo.db.GetContext(ctx, &row, q, args...); err != nil {
		return school.Teacher{}, trapSchoolNoRowsErr(err, "finding teacher")
	}

	tch := row.unrow()
	if tch.SubjectIDs, err = repo.selectIDs(ctx, "teacher_subject", "teacher_id", "subject_id", tch.ID); err != nil {
		return school.Teacher{}, err
	}
	if tch.StudentIDs, err = repo.selectIDs(ctx, "teacher_student", "teacher_id", "student_id", tch.ID); err != nil {
		return school.Teacher{}, err
	}
	return tch, nil
}

// students

func (repo schoolRepository) CheckStudentEmailUniqueness(ctx context.Context, email string, excludedStudents []school.Student, exec ...core.DBExecutor) error {
	if email == "" {
		return nil
	}

	ids := make([]string, 0, len(excludedStudents))
	for _, std := range excludedStudents {
		ids = append(ids, std.ID)
	}
	qb := psql.Select("COUNT(*)").From("student").Where(sq.Eq{"email": email})
	if len(ids) > 0 {
		qb = qb.Where(sq.NotEq{"id": ids})
	}
	q, args, err := qb.ToSql()
	if err != nil {
		return errors.Wrap(err, "building uniqueness query")
	}
	var count int
	if err = repo.getExec(exec).QueryRowContext(ctx, q, args...).Scan(&count); err != nil {
		return errors.Wrap(err, "checking student email uniqueness")
	}
	if count > 0 {
		return school.ErrStudentEmailExists
	}
	return nil
}

func (repo schoolRepository) CreateStudent(ctx context.Context, std school.Student, exec ...core.DBExecutor) (school.Student, error) {
	exe := repo.getExec(exec)

	std.ID = uuid.New().String()
	q, args, err := psql.Insert("student").
		Columns(studentColumns...).
		Values(
			std.ID,
			null.NewString(std.UserID, std.UserID != ""),
			std.FirstName, std.LastName, std.Age, std.PhoneNumber, std.Gender, std.Email, std.GPA,
		).ToSql()
	if err != nil {
		return school.Student{}, errors.Wrap(err, "building insert query")
	}
	if _, err = exe.ExecContext(ctx, q, args...); err != nil {
		return school.Student{}, errors.Wrap(err, "inserting student")
	}

	if err = linkRows(ctx, exe, "student_course", "student_id", "course_id", std.ID, std.CourseIDs); err != nil {
		return school.Student{}, err
	}
	return std, nil
}

func (repo schoolRepository) GetStudent(ctx context.Context, filter school.StudentFilter) (school.Student, error) {
	qb := psql.Select(studentColumns...).From("student")
	switch {
	case filter.ID != "":
		qb = qb.Where(sq.Eq{"id": filter.ID})
	case filter.UserID != "":
		qb = qb.Where(sq.Eq{"user_id": filter.UserID})
	case filter.Email != "":
		qb = qb.Where(sq.Eq{"email": filter.Email})
	default:
		return school.Student{}, school.ErrNotFound
	}

	q, args, err := qb.ToSql()
	if err != nil {
		return school.Student{}, errors.Wrap(err, "building select query")
	}
	var row studentRow
	if err = repo.db.GetContext(ctx, &row, q, args...); err != nil {
		return school.Student{}, trapSchoolNoRowsErr(err, "finding student")
	}

	std := row.unrow()
	if std.CourseIDs, err = repo.selectIDs(ctx, "student_course", "student_id", "course_id", std.ID); err != nil {
		return school.Student{}, err
	}
	return std, nil
}

func (repo schoolRepository) queryStudents(ctx context.Context, qb sq.SelectBuilder) ([]school.Student, error) {
	q, args, err := qb.ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "building select query")
	}
	var rows []studentRow
	if err = repo.db.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, errors.Wrap(err, "querying students")
	}

	courseIDs, err := repo.studentCourseIDs(ctx, rows)
	if err != nil {
		return nil, err
	}
	stds := make([]school.Student, len(rows))
	for i, row := range rows {
		stds[i] = row.unrow()
		stds[i].CourseIDs = courseIDs[row.ID]
	}
	return stds, nil
}

// studentCourseIDs loads course links for a batch of students in one query.
func (repo schoolRepository) studentCourseIDs(ctx context.Context, rows []studentRow) (map[string][]string, error) {
	if len(rows) == 0 {
		return nil, nil
	}
	ids := make([]string, len(rows))
	for i, row := range rows {
		ids[i] = row.ID
	}

	q, args, err := psql.Select("student_id", "course_id").From("student_course").Where(sq.Eq{"student_id": ids}).ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "building link select query")
	}
	var links []struct {
		StudentID string `db:"student_id"`
		CourseID  string `db:"course_id"`
	}
	if err = repo.db.SelectContext(ctx, &links, q, args...); err != nil {
		return nil, errors.Wrap(err, "loading student_course links")
	}

	byStudent := make(map[string][]string, len(rows))
	for _, link := range links {
		byStudent[link.StudentID] = append(byStudent[link.StudentID], link.CourseID)
	}
	return byStudent, nil
}

func (repo schoolRepository) QueryStudents(ctx context.Context) ([]school.Student, error) {
	return repo.queryStudents(ctx, psql.Select(studentColumns...).From("student").OrderBy("last_name", "first_name"))
}

func (repo schoolRepository) QueryAssignedStudents(ctx context.Context, teacherID string) ([]school.Student, error) {
	qb := psql.Select(studentColumns...).From("student").
		Where("id IN (SELECT student_id FROM teacher_student WHERE teacher_id = ?)", teacherID).
		OrderBy("last_name", "first_name")
	return repo.queryStudents(ctx, qb)
}

func (repo schoolRepository) UpdateStudent(ctx context.Context, std school.Student, exec ...core.DBExecutor) (school.Student, error) {
	exe := repo.getExec(exec)

	q, args, err := psql.Update("student").
		SetMap(map[string]interface{}{
			"user_id":      null.NewString(std.UserID, std.UserID != ""),
			"first_name":   std.FirstName,
			"last_name":    std.LastName,
			"age":          std.Age,
			"phone_number": std.PhoneNumber,
			"gender":       std.Gender,
			"email":        std.Email,
			"gpa":          std.GPA,
		}).
		Where(sq.Eq{"id": std.ID}).ToSql()
	if err != nil {
		return school.Student{}, errors.Wrap(err, "building update query")
	}
	res, err := exe.ExecContext(ctx, q, args...)
	if err != nil {
		return school.Student{}, errors.Wrap(err, "updating student")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return school.Student{}, school.ErrNotFound
	}

	// replace course links
	if err = unlinkRows(ctx, exe, "student_course", "student_id", std.ID); err != nil {
		return school.Student{}, err
	}
	if err = linkRows(ctx, exe, "student_course", "student_id", "course_id", std.ID, std.CourseIDs); err != nil {
		return school.Student{}, err
	}
	return std, nil
}

// subjects

func (repo schoolRepository) QuerySubjects(ctx context.Context) ([]school.Subject, error) {
	q, args, err := psql.Select("id", "name").From("subject").OrderBy("name").ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "building select query")
	}
	var subs []school.Subject
	if err = repo.db.SelectContext(ctx, &subs, q, args...); err != nil {
		return nil, errors.Wrap(err, "querying subjects")
	}
	return subs, nil
}

// courses

func (repo schoolRepository) CreateCourse(ctx context.Context, crs school.Course, exec ...core.DBExecutor) (school.Course, error) {
	crs.ID = uuid.New().String()
	q, args, err := psql.Insert("course").
		Columns(courseColumns...).
		Values(
			crs.ID, crs.Name, crs.Description,
			null.NewString(crs.SubjectID, crs.SubjectID != ""),
			null.NewString(crs.CreatedByID, crs.CreatedByID != ""),
		).ToSql()
	if err != nil {
		return school.Course{}, errors.Wrap(err, "building insert query")
	}
	if _, err = repo.getExec(exec).ExecContext(ctx, q, args...); err != nil {
		return school.Course{}, errors.Wrap(err, "inserting course")
	}
	return crs, nil
}

func (repo schoolRepository) GetCourse(ctx context.Context, filter school.CourseFilter) (school.Course, error) {
	if filter.ID == "" {
		return school.Course{}, school.ErrNotFound
	}
	qb := psql.Select(courseColumns...).From("course").Where(sq.Eq{"id": filter.ID})
	if filter.CreatedByID != "" {
		qb = qb.Where(sq.Eq{"created_by": filter.CreatedByID})
	}

	q, args, err := qb.ToSql()
	if err != nil {
		return school.Course{}, errors.Wrap(err, "building select query")
	}
	var row courseRow
	if err = repo.db.GetContext(ctx, &row, q, args...); err != nil {
		return school.Course{}, trapSchoolNoRowsErr(err, "finding course")
	}
	return row.unrow(), nil
}

func (repo schoolRepository) QueryCourses(ctx context.Context, filter *school.CourseFilter) ([]school.Course, error) {
	qb := psql.Select(courseColumns...).From("course").OrderBy("name")
	if filter != nil {
		if len(filter.IDs) > 0 {
			qb = qb.Where(sq.Eq{"id": filter.IDs})
		}
		if filter.CreatedByID != "" {
			qb = qb.Where(sq.Eq{"created_by": filter.CreatedByID})
		}
	}

	q, args, err := qb.ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "building select query")
	}
	var rows []courseRow
	if err = repo.db.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, errors.Wrap(err, "querying courses")
	}
	crss := make([]school.Course, len(rows))
	for i, row := range rows {
		crss[i] = row.unrow()
	}
	return crss, nil
}

func (repo schoolRepository) UpdateCourse(ctx context.Context, crs school.Course, exec ...core.DBExecutor) (school.Course, error) {
	q, args, err := psql.Update("course").
		SetMap(map[string]interface{}{
			"name":        crs.Name,
			"description": crs.Description,
			"subject_id":  null.NewString(crs.SubjectID, crs.SubjectID != ""),
		}).
		Where(sq.Eq{"id": crs.ID}).ToSql()
	if err != nil {
		return school.Course{}, errors.Wrap(err, "building update query")
	}
	res, err := repo.getExec(exec).ExecContext(ctx, q, args...)
	if err != nil {
		return school.Course{}, errors.Wrap(err, "updating course")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return school.Course{}, school.ErrNotFound
	}
	return crs, nil
}

func (repo schoolRepository) DeleteCourse(ctx context.Context, id string, exec ...core.DBExecutor) error {
	q, args, err := psql.Delete("course").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return errors.Wrap(err, "building delete query")
	}
	res, err := repo.getExec(exec).ExecContext(ctx, q, args...)
	if err != nil {
		return errors.Wrap(err, "deleting course")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return school.ErrNotFound
	}
	return nil
}

// exams

func (repo schoolRepository) CreateExam(ctx context.Context, exam school.Exam, exec ...core.DBExecutor) (school.Exam, error) {
	exe := repo.getExec(exec)

	exam.ID = uuid.New().String()
	q, args, err := psql.Insert("exam").
		Columns(examColumns...).
		Values(exam.ID, exam.Title, exam.Subject, exam.Date, exam.Type, exam.CourseID, exam.AssignedByID).ToSql()
	if err != nil {
		return school.Exam{}, errors.Wrap(err, "building insert query")
	}
	if _, err = exe.ExecContext(ctx, q, args...); err != nil {
		return school.Exam{}, errors.Wrap(err, "inserting exam")
	}

	if err = linkRows(ctx, exe, "exam_student", "exam_id", "student_id", exam.ID, exam.StudentIDs); err != nil {
		return school.Exam{}, err
	}
	return exam, nil
}

// QueryExams lists exams matching filter; student links are not loaded.
func (repo schoolRepository) QueryExams(ctx context.Context, filter school.ExamFilter, ordering []core.DBOrdering) ([]school.Exam, error) {
	qb := psql.Select(examColumns...).From("exam")
	if filter.AssignedByID != "" {
		qb = qb.Where(sq.Eq{"assigned_by": filter.AssignedByID})
	}
	if filter.StudentID != "" {
		qb = qb.Where("id IN (SELECT exam_id FROM exam_student WHERE student_id = ?)", filter.StudentID)
	}
	if !filter.DateFrom.IsZero() {
		qb = qb.Where(sq.GtOrEq{"date": filter.DateFrom})
	}
	if !filter.DateTo.IsZero() {
		qb = qb.Where(sq.Lt{"date": filter.DateTo})
	}
	qb = qb.OrderBy(orderClauses(ordering)...)

	q, args, err := qb.ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "building select query")
	}
	var rows []examRow
	if err = repo.db.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, errors.Wrap(err, "querying exams")
	}
	exams := make([]school.Exam, len(rows))
	for i, row := range rows {
		exams[i] = row.unrow()
	}
	return exams, nil
}

// assignments

func (repo schoolRepository) CreateAssignment(ctx context.Context, asg school.Assignment, exec ...core.DBExecutor) (school.Assignment, error) {
	exe := repo.getExec(exec)

	asg.ID = uuid.New().String()
	q, args, err := psql.Insert("assignment").
		Columns(asgColumns...).
		Values(asg.ID, asg.Title, asg.Description, asg.DueDate, asg.CourseID, asg.AssignedByID).ToSql()
	if err != nil {
		return school.Assignment{}, errors.Wrap(err, "building insert query")
	}
	if _, err = exe.ExecContext(ctx, q, args...); err != nil {
		return school.Assignment{}, errors.Wrap(err, "inserting assignment")
	}

	if err = linkRows(ctx, exe, "assignment_student", "assignment_id", "student_id", asg.ID, asg.StudentIDs); err != nil {
		return school.Assignment{}, err
	}
	return asg, nil
}

// QueryAssignments lists assignments matching filter; student links are not loaded.
func (repo schoolRepository) QueryAssignments(ctx context.Context, filter school.AssignmentFilter, ordering []core.DBOrdering) ([]school.Assignment, error) {
	qb := psql.Select(asgColumns...).From("assignment")
	if filter.AssignedByID != "" {
		qb = qb.Where(sq.Eq{"assigned_by": filter.AssignedByID})
	}
	if filter.StudentID != "" {
		qb = qb.Where("id IN (SELECT assignment_id FROM assignment_student WHERE student_id = ?)", filter.StudentID)
	}
	if !filter.DueFrom.IsZero() {
		qb = qb.Where(sq.GtOrEq{"due_date": filter.DueFrom})
	}
	qb = qb.OrderBy(orderClauses(ordering)...)

	q, args, err := qb.ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "building select query")
	}
	var rows []assignmentRow
	if err = repo.db.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, errors.Wrap(err, "querying assignments")
	}
	asgs := make([]school.Assignment, len(rows))
	for i, row := range rows {
		asgs[i] = row.unrow()
	}
	return asgs, nil
}

// schedules

func (repo schoolRepository) CreateSchedule(ctx context.Context, sch school.Schedule, exec ...core.DBExecutor) (school.Schedule, error) {
	sch.ID = uuid.New().String()
	q, args, err := psql.Insert("schedule").
		Columns("id", "course_id", "day", "start_time", "end_time", "teacher_id").
		Values(sch.ID, sch.CourseID, sch.Day, sch.StartTime, sch.EndTime, sch.TeacherID).ToSql()
	if err != nil {
		return school.Schedule{}, errors.Wrap(err, "building insert query")
	}
	if _, err = repo.getExec(exec).ExecContext(ctx, q, args...); err != nil {
		return school.Schedule{}, errors.Wrap(err, "inserting schedule")
	}
	return sch, nil
}

func (repo schoolRepository) QuerySchedules(ctx context.Context, filter school.ScheduleFilter, ordering []core.DBOrdering) ([]school.Schedule, error) {
	qb := psql.Select(scheduleColumns...).From("schedule")
	if filter.TeacherID != "" {
		qb = qb.Where(sq.Eq{"teacher_id": filter.TeacherID})
	}
	if len(filter.CourseIDs) > 0 {
		qb = qb.Where(sq.Eq{"course_id": filter.CourseIDs})
	}
	qb = qb.OrderBy(scheduleOrderClauses(ordering)...)

	q, args, err := qb.ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "building select query")
	}
	var rows []scheduleRow
	if err = repo.db.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, errors.Wrap(err, "querying schedules")
	}
	schs := make([]school.Schedule, len(rows))
	for i, row := range rows {
		schs[i] = row.unrow()
	}
	return schs, nil
}

func orderClauses(ordering []core.DBOrdering) []string {
	clauses := make([]string, len(ordering))
	for i, ord := range ordering {
		clauses[i] = ord.String()
	}
	return clauses
}

// dayOrderExpr ranks the textual day column by the academy's week
// (school.Days) instead of alphabetically.
var dayOrderExpr = func() string {
	expr := "CASE day"
	for i, d := range school.Days {
		expr += " WHEN '" + d + "' THEN " + strconv.Itoa(i)
	}
	return expr + " ELSE " + strconv.Itoa(len(school.Days)) + " END"
}()

func scheduleOrderClauses(ordering []core.DBOrdering) []string {
	clauses := make([]string, len(ordering))
	for i, ord := range ordering {
		if ord.Field == "day" {
			ord.Field = dayOrderExpr
		}
		clauses[i] = ord.String()
	}
	return clauses
}
