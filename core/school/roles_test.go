package school_test

import (
	"context"
	"testing"

	"github.com/trezcool/shule/core/school"
	"github.com/trezcool/shule/core/user"
	dummydb "github.com/trezcool/shule/storage/database/dummy"
)

func TestResolver_Resolve(t *testing.T) {
	db := dummydb.Open()
	repo := dummydb.NewSchoolRepository(db)
	resolver := school.NewResolver(repo)
	ctx := context.Background()

	plainUsr := user.User{ID: "0a67bbb3-47cb-4386-b8f5-0888c2adaf42", Email: "plain@test.cd"}

	tchUsr := user.User{ID: "f0a87c31-9e12-4779-afd3-2a35a3bb678a", Email: "tch@test.cd"}
	if _, err := repo.CreateTeacher(ctx, school.Teacher{UserID: tchUsr.ID}); err != nil {
		t.Fatalf("CreateTeacher() failed, %v", err)
	}

	stdUsr := user.User{ID: "61a0a4ac-23dc-4baa-bbef-f08b4dbd1be4", Email: "std@test.cd"}
	if _, err := repo.CreateStudent(ctx, school.Student{UserID: stdUsr.ID, Email: stdUsr.Email}); err != nil {
		t.Fatalf("CreateStudent() failed, %v", err)
	}

	// student record predating account linkage; matched by email only
	legacyUsr := user.User{ID: "7dffca29-c9ac-4b8a-8c63-9a5d609b34c9", Email: "legacy@test.cd"}
	if _, err := repo.CreateStudent(ctx, school.Student{Email: legacyUsr.Email}); err != nil {
		t.Fatalf("CreateStudent() failed, %v", err)
	}

	// both profiles; teacher wins
	bothUsr := user.User{ID: "9b8cf5c1-7a86-44a5-bf91-7a20a30be0e7", Email: "both@test.cd"}
	if _, err := repo.CreateTeacher(ctx, school.Teacher{UserID: bothUsr.ID}); err != nil {
		t.Fatalf("CreateTeacher() failed, %v", err)
	}
	if _, err := repo.CreateStudent(ctx, school.Student{UserID: bothUsr.ID, Email: bothUsr.Email}); err != nil {
		t.Fatalf("CreateStudent() failed, %v", err)
	}

	tests := []struct {
		name string
		usr  *user.User
		want school.Role
	}{
		{name: "nil user", usr: nil, want: school.RoleAnonymous},
		{name: "no profile", usr: &plainUsr, want: school.RoleUnassigned},
		{name: "teacher profile", usr: &tchUsr, want: school.RoleTeacher},
		{name: "student profile by account", usr: &stdUsr, want: school.RoleStudent},
		{name: "student profile by email", usr: &legacyUsr, want: school.RoleStudent},
		{name: "both profiles", usr: &bothUsr, want: school.RoleTeacher},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := resolver.Resolve(ctx, tt.usr)
			if err != nil {
				t.Fatalf("Resolve() failed, %v", err)
			}
			if got != tt.want {
				t.Errorf("Resolve() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestResolver_ResolveStudent(t *testing.T) {
	db := dummydb.Open()
	repo := dummydb.NewSchoolRepository(db)
	resolver := school.NewResolver(repo)
	ctx := context.Background()

	usr := user.User{ID: "61a0a4ac-23dc-4baa-bbef-f08b4dbd1be4", Email: "std@test.cd"}

	// email match kicks in while the record is unlinked
	unlinked, err := repo.CreateStudent(ctx, school.Student{Email: usr.Email})
	if err != nil {
		t.Fatalf("CreateStudent() failed, %v", err)
	}
	std, err := resolver.ResolveStudent(ctx, usr)
	if err != nil {
		t.Fatalf("ResolveStudent() failed, %v", err)
	}
	if std.ID != unlinked.ID {
		t.Errorf("ResolveStudent() = %s, want %s", std.ID, unlinked.ID)
	}

	// direct account binding takes precedence
	linked, err := repo.CreateStudent(ctx, school.Student{UserID: usr.ID, Email: "other@test.cd"})
	if err != nil {
		t.Fatalf("CreateStudent() failed, %v", err)
	}
	if std, err = resolver.ResolveStudent(ctx, usr); err != nil {
		t.Fatalf("ResolveStudent() failed, %v", err)
	}
	if std.ID != linked.ID {
		t.Errorf("ResolveStudent() = %s, want %s", std.ID, linked.ID)
	}
}
