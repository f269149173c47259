package school

import (
	"context"

	"github.com/pkg/errors"

	"github.com/trezcool/shule/core/user"
)

// Role is the authoritative role a User resolves to for authorization
// purposes. The store does not prevent an account from having both a Teacher
// and a Student profile; resolution order defines precedence: Teacher wins.
type Role int

const (
	RoleAnonymous Role = iota
	RoleUnassigned
	RoleStudent
	RoleTeacher
)

func (r Role) String() string {
	switch r {
	case RoleTeacher:
		return "teacher"
	case RoleStudent:
		return "student"
	case RoleUnassigned:
		return "unassigned"
	default:
		return "anonymous"
	}
}

// Resolver maps a User to its Role by probing the profile stores.
type Resolver struct {
	repo Repository
}

func NewResolver(repo Repository) *Resolver {
	return &Resolver{repo: repo}
}

// Resolve returns the Role of usr. A missing profile is a normal branch
// outcome; any other repository error propagates so that a store fault is
// never mistaken for "no role".
func (r *Resolver) Resolve(ctx context.Context, usr *user.User) (Role, error) {
	if usr == nil {
		return RoleAnonymous, nil
	}

	// teacher profile wins over a student profile
	if _, err := r.repo.GetTeacher(ctx, TeacherFilter{UserID: usr.ID}); err == nil {
		return RoleTeacher, nil
	} else if errors.Cause(err) != ErrNotFound {
		return RoleAnonymous, errors.Wrap(err, "looking up teacher profile")
	}

	if _, err := r.ResolveStudent(ctx, *usr); err == nil {
		return RoleStudent, nil
	} else if errors.Cause(err) != ErrNotFound {
		return RoleAnonymous, errors.Wrap(err, "looking up student profile")
	}

	return RoleUnassigned, nil
}

// ResolveStudent finds the Student profile of usr: first by direct account
// binding, then by matching email for records that predate account linkage.
func (r *Resolver) ResolveStudent(ctx context.Context, usr user.User) (Student, error) {
	std, err := r.repo.GetStudent(ctx, StudentFilter{UserID: usr.ID})
	if err == nil {
		return std, nil
	}
	if errors.Cause(err) != ErrNotFound {
		return Student{}, err
	}
	return r.repo.GetStudent(ctx, StudentFilter{Email: usr.Email})
}

// ResolveTeacher finds the Teacher profile of usr.
func (r *Resolver) ResolveTeacher(ctx context.Context, usr user.User) (Teacher, error) {
	return r.repo.GetTeacher(ctx, TeacherFilter{UserID: usr.ID})
}
