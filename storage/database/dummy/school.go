package dummydb

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/school"
)

type schoolRepository struct {
	db *schoolTables
}

var _ school.Repository = (*schoolRepository)(nil) // interface compliance check

func NewSchoolRepository(db *DB) *schoolRepository {
	return &schoolRepository{db: db.school}
}

// AddSubject seeds a subject; test helper.
func (repo *schoolRepository) AddSubject(name string) school.Subject {
	repo.db.Lock()
	defer repo.db.Unlock()

	sub := school.Subject{ID: uuid.New().String(), Name: name}
	repo.db.subjects[sub.ID] = &sub
	return sub
}

// AddSchedule seeds a schedule; test helper.
func (repo *schoolRepository) AddSchedule(sch school.Schedule) school.Schedule {
	sch, _ = repo.CreateSchedule(context.Background(), sch)
	return sch
}

// teachers

func (repo *schoolRepository) CreateTeacher(_ context.Context, tch school.Teacher, _ ...core.DBExecutor) (school.Teacher, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	tch.ID = uuid.New().String()
	repo.db.teachers[tch.ID] = &tch
	return tch, nil
}

func (repo *schoolRepository) GetTeacher(_ context.Context, filter school.TeacherFilter) (school.Teacher, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	for _, tch := range repo.db.teachers {
		if (filter.ID != "" && tch.ID == filter.ID) ||
			(filter.UserID != "" && tch.UserID == filter.UserID) {
			return *tch, nil
		}
	}
	return school.Teacher{}, school.ErrNotFound
}

// students

func (repo *schoolRepository) CheckStudentEmailUniqueness(_ context.Context, email string, excludedStudents []school.Student, _ ...core.DBExecutor) error {
	repo.db.RLock()
	defer repo.db.RUnlock()

	excluded := make(map[string]struct{}, len(excludedStudents))
	for _, std := range excludedStudents {
		excluded[std.ID] = struct{}{}
	}

	for _, std := range repo.db.students {
		if _, ok := excluded[std.ID]; ok {
			continue
		}
		if email != "" && std.Email == email {
			return school.ErrStudentEmailExists
		}
	}
	return nil
}

func (repo *schoolRepository) CreateStudent(_ context.Context, std school.Student, _ ...core.DBExecutor) (school.Student, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	std.ID = uuid.New().String()
	repo.db.students[std.ID] = &std
	return std, nil
}

func (repo *schoolRepository) GetStudent(_ context.Context, filter school.StudentFilter) (school.Student, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	for _, std := range repo.db.students {
		if (filter.ID != "" && std.ID == filter.ID) ||
			(filter.UserID != "" && std.UserID == filter.UserID) ||
			(filter.Email != "" && std.Email == filter.Email) {
			return *std, nil
		}
	}
	return school.Student{}, school.ErrNotFound
}

func (repo *schoolRepository) QueryStudents(_ context.Context) ([]school.Student, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	stds := make([]school.Student, 0, len(repo.db.students))
	for _, std := range repo.db.students {
		stds = append(stds, *std)
	}
	sortStudents(stds)
	return stds, nil
}

func (repo *schoolRepository) QueryAssignedStudents(ctx context.Context, teacherID string) ([]school.Student, error) {
	tch, err := repo.GetTeacher(ctx, school.TeacherFilter{ID: teacherID})
	if err != nil {
		return nil, err
	}

	repo.db.RLock()
	defer repo.db.RUnlock()

	var stds []school.Student
	for _, id := range tch.StudentIDs {
		if std, ok := repo.db.students[id]; ok {
			stds = append(stds, *std)
		}
	}
	sortStudents(stds)
	return stds, nil
}

func (repo *schoolRepository) UpdateStudent(_ context.Context, std school.Student, _ ...core.DBExecutor) (school.Student, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.students[std.ID]; !ok {
		return school.Student{}, school.ErrNotFound
	}
	repo.db.students[std.ID] = &std
	return std, nil
}

// subjects

func (repo *schoolRepository) QuerySubjects(_ context.Context) ([]school.Subject, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	subs := make([]school.Subject, 0, len(repo.db.subjects))
	for _, sub := range repo.db.subjects {
		subs = append(subs, *sub)
	}
	sort.Slice(subs, func(i, j int) bool { return subs[i].Name < subs[j].Name })
	return subs, nil
}

// courses

func (repo *schoolRepository) CreateCourse(_ context.Context, crs school.Course, _ ...core.DBExecutor) (school.Course, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	crs.ID = uuid.New().String()
	repo.db.courses[crs.ID] = &crs
	return crs, nil
}

func (repo *schoolRepository) GetCourse(_ context.Context, filter school.CourseFilter) (school.Course, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	crs, ok := repo.db.courses[filter.ID]
	if !ok {
		return school.Course{}, school.ErrNotFound
	}
	if filter.CreatedByID != "" && crs.CreatedByID != filter.CreatedByID {
		return school.Course{}, school.ErrNotFound
	}
	return *crs, nil
}

func (repo *schoolRepository) QueryCourses(_ context.Context, filter *school.CourseFilter) ([]school.Course, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var wantedIDs map[string]struct{}
	if filter != nil && len(filter.IDs) > 0 {
		wantedIDs = make(map[string]struct{}, len(filter.IDs))
		for _, id := range filter.IDs {
			wantedIDs[id] = struct{}{}
		}
	}

	var crss []school.Course
	for _, crs := range repo.db.courses {
		if wantedIDs != nil {
			if _, ok := wantedIDs[crs.ID]; !ok {
				continue
			}
		}
		if filter != nil && filter.CreatedByID != "" && crs.CreatedByID != filter.CreatedByID {
			continue
		}
		crss = append(crss, *crs)
	}
	sort.Slice(crss, func(i, j int) bool { return crss[i].Name < crss[j].Name })
	return crss, nil
}

func (repo *schoolRepository) UpdateCourse(_ context.Context, crs school.Course, _ ...core.DBExecutor) (school.Course, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.courses[crs.ID]; !ok {
		return school.Course{}, school.ErrNotFound
	}
	repo.db.courses[crs.ID] = &crs
	return crs, nil
}

func (repo *schoolRepository) DeleteCourse(_ context.Context, id string, _ ...core.DBExecutor) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.courses[id]; !ok {
		return school.ErrNotFound
	}
	delete(repo.db.courses, id)
	return nil
}

// exams

func (repo *schoolRepository) CreateExam(_ context.Context, exam school.Exam, _ ...core.DBExecutor) (school.Exam, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	exam.ID = uuid.New().String()
	repo.db.exams[exam.ID] = &exam
	return exam, nil
}

func (repo *schoolRepository) QueryExams(_ context.Context, filter school.ExamFilter, ordering []core.DBOrdering) ([]school.Exam, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var exams []school.Exam
	for _, exam := range repo.db.exams {
		if filter.AssignedByID != "" && exam.AssignedByID != filter.AssignedByID {
			continue
		}
		if filter.StudentID != "" && !contains(exam.StudentIDs, filter.StudentID) {
			continue
		}
		if !filter.DateFrom.IsZero() && exam.Date.Before(filter.DateFrom) {
			continue
		}
		if !filter.DateTo.IsZero() && !exam.Date.Before(filter.DateTo) {
			continue
		}
		exams = append(exams, *exam)
	}

	asc := len(ordering) > 0 && ordering[0].Ascending
	sort.Slice(exams, func(i, j int) bool {
		if asc {
			return exams[i].Date.Before(exams[j].Date)
		}
		return exams[j].Date.Before(exams[i].Date)
	})
	return exams, nil
}

// assignments

func (repo *schoolRepository) CreateAssignment(_ context.Context, asg school.Assignment, _ ...core.DBExecutor) (school.Assignment, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	asg.ID = uuid.New().String()
	repo.db.assignments[asg.ID] = &asg
	return asg, nil
}

func (repo *schoolRepository) QueryAssignments(_ context.Context, filter school.AssignmentFilter, ordering []core.DBOrdering) ([]school.Assignment, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var asgs []school.Assignment
	for _, asg := range repo.db.assignments {
		if filter.AssignedByID != "" && asg.AssignedByID != filter.AssignedByID {
			continue
		}
		if filter.StudentID != "" && !contains(asg.StudentIDs, filter.StudentID) {
			continue
		}
		if !filter.DueFrom.IsZero() && asg.DueDate.Before(filter.DueFrom) {
			continue
		}
		asgs = append(asgs, *asg)
	}

	asc := len(ordering) > 0 && ordering[0].Ascending
	sort.Slice(asgs, func(i, j int) bool {
		if asc {
			return asgs[i].DueDate.Before(asgs[j].DueDate)
		}
		return asgs[j].DueDate.Before(asgs[i].DueDate)
	})
	return asgs, nil
}

// schedules

func (repo *schoolRepository) CreateSchedule(_ context.Context, sch school.Schedule, _ ...core.DBExecutor) (school.Schedule, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	sch.ID = uuid.New().String()
	repo.db.schedules[sch.ID] = &sch
	return sch, nil
}

func (repo *schoolRepository) QuerySchedules(_ context.Context, filter school.ScheduleFilter, _ []core.DBOrdering) ([]school.Schedule, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var schs []school.Schedule
	for _, sch := range repo.db.schedules {
		if filter.TeacherID != "" && sch.TeacherID != filter.TeacherID {
			continue
		}
		if len(filter.CourseIDs) > 0 && !contains(filter.CourseIDs, sch.CourseID) {
			continue
		}
		schs = append(schs, *sch)
	}
	sort.Slice(schs, func(i, j int) bool {
		if di, dj := school.DayIndex(schs[i].Day), school.DayIndex(schs[j].Day); di != dj {
			return di < dj
		}
		return schs[i].StartTime < schs[j].StartTime
	})
	return schs, nil
}

func sortStudents(stds []school.Student) {
	sort.Slice(stds, func(i, j int) bool {
		if stds[i].LastName != stds[j].LastName {
			return stds[i].LastName < stds[j].LastName
		}
		return stds[i].FirstName < stds[j].FirstName
	})
}

func contains(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
