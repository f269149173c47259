package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/user"
)

// psql builds queries with Postgres-style positional placeholders.
var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

const userTable = `"user"`

var userColumns = []string{"id", "username", "first_name", "last_name", "email", "is_active", "password_hash", "created_at", "updated_at", "last_login"}

type userRow struct {
	ID           string    `db:"id"`
	Username     string    `db:"username"`
	FirstName    string    `db:"first_name"`
	LastName     string    `db:"last_name"`
	Email        string    `db:"email"`
	IsActive     bool      `db:"is_active"`
	PasswordHash []byte    `db:"password_hash"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
	LastLogin    null.Time `db:"last_login"`
}

func (r userRow) unrow() user.User {
	isActive := r.IsActive
	return user.User{
		ID:           r.ID,
		Username:     r.Username,
		FirstName:    r.FirstName,
		LastName:     r.LastName,
		Email:        r.Email,
		IsActive:     &isActive,
		PasswordHash: r.PasswordHash,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
		LastLogin:    r.LastLogin.Time,
	}
}

type userRepository struct {
	db *sqlx.DB
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository(db *sqlx.DB) *userRepository {
	return &userRepository{db: db}
}

func (repo userRepository) getExec(svcExec []core.DBExecutor) core.DBExecutor {
	if len(svcExec) > 0 {
		return svcExec[0]
	}
	return repo.db
}

// trapNoRowsErr maps psql "no rows" err to user.ErrNotFound
func trapNoRowsErr(err error, msg string) error {
	if err == sql.ErrNoRows {
		return user.ErrNotFound
	}
	return errors.Wrap(err, msg)
}

func (repo userRepository) CheckUniqueness(ctx context.Context, username, email string, excludedUsers []user.User, exec ...core.DBExecutor) error {
	exe := repo.getExec(exec)

	ids := make([]string, 0, len(excludedUsers))
	for _, u := range excludedUsers {
		ids = append(ids, u.ID)
	}

	check := func(field, value string, conflictErr error) error {
		if value == "" {
			return nil
		}
		qb := psql.Select("COUNT(*)").From(userTable).Where(sq.Eq{field: value})
		if len(ids) > 0 {
			qb = qb.Where(sq.NotEq{"id": ids})
		}
		q, args, err := qb.ToSql()
		if err != nil {
			return errors.Wrap(err, "building uniqueness query")
		}
		var count int
		if err = exe.QueryRowContext(ctx, q, args...).Scan(&count); err != nil {
			return errors.Wrap(err, "checking user uniqueness")
		}
		if count > 0 {
			return conflictErr
		}
		return nil
	}

	if err := check("username", username, user.ErrUsernameExists); err != nil {
		return err
	}
	return check("email", email, user.ErrEmailExists)
}

func (repo userRepository) CreateUser(ctx context.Context, usr user.User, exec ...core.DBExecutor) (user.User, error) {
	usr.ID = uuid.New().String()
	q, args, err := psql.Insert(userTable).
		Columns(userColumns...).
		Values(
			usr.ID, usr.Username, usr.FirstName, usr.LastName, usr.Email, usr.Active(),
			usr.PasswordHash, usr.CreatedAt.UTC(), usr.UpdatedAt.UTC(),
			null.NewTime(usr.LastLogin.UTC(), !usr.LastLogin.IsZero()),
		).ToSql()
	if err != nil {
		return user.User{}, errors.Wrap(err, "building insert query")
	}
	if _, err = repo.getExec(exec).ExecContext(ctx, q, args...); err != nil {
		return user.User{}, errors.Wrap(err, "inserting user")
	}
	return usr, nil
}

func (repo userRepository) GetUser(ctx context.Context, filter user.GetFilter) (user.User, error) {
	qb := psql.Select(userColumns...).From(userTable)

	switch {
	case filter.ID != "":
		if _, err := uuid.Parse(filter.ID); err != nil {
			return user.User{}, user.ErrNotFound
		}
		qb = qb.Where(sq.Eq{"id": filter.ID})
	case filter.Username != "":
		qb = qb.Where(sq.Eq{"username": filter.Username})
	case filter.Email != "":
		qb = qb.Where(sq.Eq{"email": filter.Email})
	case filter.UsernameOrEmail != nil:
		var email string
		uname := filter.UsernameOrEmail[0]
		if len(filter.UsernameOrEmail) == 2 {
			email = filter.UsernameOrEmail[1]
		}
		if email == "" {
			email = uname
		} else if uname == "" {
			uname = email
		}
		if uname == "" {
			return user.User{}, user.ErrNotFound
		}
		qb = qb.Where(sq.Or{sq.Eq{"username": uname}, sq.Eq{"email": email}})
	default:
		return user.User{}, user.ErrNotFound
	}

	q, args, err := qb.ToSql()
	if err != nil {
		return user.User{}, errors.Wrap(err, "building select query")
	}
	var row userRow
	if err = repo.db.GetContext(ctx, &row, q, args...); err != nil {
		return user.User{}, trapNoRowsErr(err, "finding user")
	}
	return row.unrow(), nil
}

func (repo userRepository) UpdateUser(ctx context.Context, usr user.User, exec ...core.DBExecutor) (user.User, error) {
	q, args, err := psql.Update(userTable).
		SetMap(map[string]interface{}{
			"username":      usr.Username,
			"first_name":    usr.FirstName,
			"last_name":     usr.LastName,
			"email":         usr.Email,
			"is_active":     usr.Active(),
			"password_hash": usr.PasswordHash,
			"updated_at":    usr.UpdatedAt.UTC(),
			"last_login":    null.NewTime(usr.LastLogin.UTC(), !usr.LastLogin.IsZero()),
		}).
		Where(sq.Eq{"id": usr.ID}).ToSql()
	if err != nil {
		return user.User{}, errors.Wrap(err, "building update query")
	}

	res, err := repo.getExec(exec).ExecContext(ctx, q, args...)
	if err != nil {
		return user.User{}, errors.Wrap(err, "updating user")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return user.User{}, user.ErrNotFound
	}
	return usr, nil
}

func (repo userRepository) UpdateOrCreateUser(ctx context.Context, usr user.User, exec ...core.DBExecutor) (user.User, error) {
	if usr.ID == "" {
		return repo.CreateUser(ctx, usr, exec...)
	}
	return repo.UpdateUser(ctx, usr, exec...)
}
