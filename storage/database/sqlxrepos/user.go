package sqlxrepos

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/yardimel/yardimel/core"
	"github.com/yardimel/yardimel/core/user"
)

type userRow struct {
	ID           string    `db:"id"`
	Name         string    `db:"name"`
	Username     string    `db:"username"`
	Email        string    `db:"email"`
	Phone        string    `db:"phone"`
	IsActive     null.Bool `db:"is_active"`
	Roles        string    `db:"roles"`
	PasswordHash []byte    `db:"password_hash"`
	LastLogin    null.Time `db:"last_login"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}

func (r *userRow) load(usr user.User) {
	r.ID = usr.ID
	r.Name = usr.Name
	r.Username = usr.Username
	r.Email = usr.Email
	r.Phone = usr.Phone
	r.IsActive = null.BoolFromPtr(usr.IsActive)
	r.Roles = strings.Join(usr.Roles, ",")
	r.PasswordHash = usr.PasswordHash
	r.LastLogin = null.NewTime(usr.LastLogin.UTC(), !usr.LastLogin.IsZero())
	r.CreatedAt = usr.CreatedAt.UTC()
	r.UpdatedAt = usr.UpdatedAt.UTC()
}

func (r *userRow) user() user.User {
	usr := user.User{
		ID:           r.ID,
		Name:         r.Name,
		Username:     r.Username,
		Email:        r.Email,
		Phone:        r.Phone,
		IsActive:     r.IsActive.Ptr(),
		PasswordHash: r.PasswordHash,
		LastLogin:    r.LastLogin.Time,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
	if r.Roles != "" {
		usr.Roles = strings.Split(r.Roles, ",")
	}
	return usr
}

type userRepository struct {
	db *sqlx.DB
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository(db *sqlx.DB) *userRepository {
	return &userRepository{db: db}
}

func (repo userRepository) trapNoRowsErr(err error, msg string) error {
	if err == sql.ErrNoRows {
		return user.ErrNotFound
	}
	return errors.Wrap(err, msg)
}

func (repo userRepository) getUser(ctx context.Context, query string, args ...interface{}) (user.User, error) {
	var row userRow
	if err := repo.db.GetContext(ctx, &row, repo.db.Rebind(query), args...); err != nil {
		return user.User{}, repo.trapNoRowsErr(err, "finding user")
	}
	return row.user(), nil
}

func (repo userRepository) CheckUsernameUniqueness(ctx context.Context, username, email string, excludedUsers ...user.User) error {
	cond := "LOWER(username) = ?"
	args := []interface{}{strings.ToLower(username)}
	if email != "" {
		cond += " OR LOWER(email) = ?"
		args = append(args, strings.ToLower(email))
	}
	query := "SELECT username, email FROM users WHERE (" + cond + ")"
	if len(excludedUsers) > 0 {
		query += " AND id NOT IN (" + placeholders(len(excludedUsers)) + ")"
		for _, u := range excludedUsers {
			args = append(args, u.ID)
		}
	}

	var rows []userRow
	if err := repo.db.SelectContext(ctx, &rows, repo.db.Rebind(query), args...); err != nil {
		return errors.Wrap(err, "checking user uniqueness")
	}
	for _, row := range rows {
		if strings.EqualFold(row.Username, username) {
			return user.ErrUsernameExists
		}
		if email != "" && strings.EqualFold(row.Email, email) {
			return user.ErrEmailExists
		}
	}
	return nil
}

func (repo userRepository) CreateUser(ctx context.Context, usr user.User) (user.User, error) {
	usr.ID = uuid.New().String()
	now := time.Now().UTC()
	if usr.CreatedAt.IsZero() {
		usr.CreatedAt = now
	}
	if usr.UpdatedAt.IsZero() {
		usr.UpdatedAt = now
	}

	var row userRow
	row.load(usr)
	_, err := repo.db.NamedExecContext(ctx, `
		INSERT INTO users (id, name, username, email, phone, is_active, roles, password_hash, last_login, created_at, updated_at)
		VALUES (:id, :name, :username, :email, :phone, :is_active, :roles, :password_hash, :last_login, :created_at, :updated_at)`,
		&row,
	)
	if err != nil {
		return user.User{}, errors.Wrap(err, "inserting user")
	}
	return row.user(), nil
}

func (repo userRepository) GetUserByID(ctx context.Context, id string) (user.User, error) {
	if _, err := uuid.Parse(id); err != nil {
		return user.User{}, user.ErrNotFound
	}
	return repo.getUser(ctx, "SELECT * FROM users WHERE id = ?", id)
}

func (repo userRepository) GetUserByUsername(ctx context.Context, username string) (user.User, error) {
	return repo.getUser(ctx, "SELECT * FROM users WHERE LOWER(username) = ?", strings.ToLower(username))
}

func (repo userRepository) GetUserByEmail(ctx context.Context, email string) (user.User, error) {
	return repo.getUser(ctx, "SELECT * FROM users WHERE LOWER(email) = ?", strings.ToLower(email))
}

func (repo userRepository) GetUserByUsernameOrEmail(ctx context.Context, username string) (user.User, error) {
	val := strings.ToLower(username)
	return repo.getUser(ctx, "SELECT * FROM users WHERE LOWER(username) = ? OR LOWER(email) = ?", val, val)
}

func (repo userRepository) FilterUsers(ctx context.Context, filter user.QueryFilter, ordering []core.DBOrdering) ([]user.User, error) {
	query := "SELECT * FROM users WHERE 1=1"
	var args []interface{}

	if filter.Search != "" {
		query += " AND (LOWER(name) LIKE ? OR LOWER(username) LIKE ? OR LOWER(email) LIKE ?)"
		val := contains(filter.Search)
		args = append(args, val, val, val)
	}
	if len(filter.Roles) > 0 {
		conds := make([]string, 0, len(filter.Roles))
		for _, role := range filter.Roles {
			conds = append(conds, "roles LIKE ?")
			args = append(args, "%"+role+"%")
		}
		query += " AND (" + strings.Join(conds, " OR ") + ")"
	}
	if filter.IsActive != nil {
		query += " AND is_active = ?"
		args = append(args, *filter.IsActive)
	}
	if !filter.CreatedFrom.IsZero() {
		query += " AND created_at >= ?"
		args = append(args, filter.CreatedFrom.UTC())
	}
	if !filter.CreatedTo.IsZero() {
		query += " AND created_at <= ?"
		args = append(args, filter.CreatedTo.UTC())
	}
	query += orderClause(ordering)

	var rows []userRow
	if err := repo.db.SelectContext(ctx, &rows, repo.db.Rebind(query), args...); err != nil {
		return nil, errors.Wrap(err, "querying users")
	}
	users := make([]user.User, 0, len(rows))
	for i := range rows {
		users = append(users, rows[i].user())
	}
	return users, nil
}

// UpdateUser updates the non-zero fields of usr only; untouched columns keep
// their stored values.
func (repo userRepository) UpdateUser(ctx context.Context, usr user.User) (user.User, error) {
	sets := make([]string, 0, 8)
	var args []interface{}

	if usr.Name != "" {
		sets = append(sets, "name = ?")
		args = append(args, usr.Name)
	}
	if usr.Username != "" {
		sets = append(sets, "username = ?")
		args = append(args, usr.Username)
	}
	if usr.Email != "" {
		sets = append(sets, "email = ?")
		args = append(args, usr.Email)
	}
	if usr.Phone != "" {
		sets = append(sets, "phone = ?")
		args = append(args, usr.Phone)
	}
	if usr.IsActive != nil {
		sets = append(sets, "is_active = ?")
		args = append(args, *usr.IsActive)
	}
	if len(usr.Roles) > 0 {
		sets = append(sets, "roles = ?")
		args = append(args, strings.Join(usr.Roles, ","))
	}
	if len(usr.PasswordHash) > 0 {
		sets = append(sets, "password_hash = ?")
		args = append(args, usr.PasswordHash)
	}
	if !usr.LastLogin.IsZero() {
		sets = append(sets, "last_login = ?")
		args = append(args, usr.LastLogin.UTC())
	}
	if len(sets) == 0 {
		return repo.GetUserByID(ctx, usr.ID)
	}
	sets = append(sets, "updated_at = ?")
	args = append(args, time.Now().UTC())
	args = append(args, usr.ID)

	query := "UPDATE users SET " + strings.Join(sets, ", ") + " WHERE id = ?"
	if _, err := repo.db.ExecContext(ctx, repo.db.Rebind(query), args...); err != nil {
		return user.User{}, errors.Wrap(err, "updating user")
	}
	return repo.GetUserByID(ctx, usr.ID)
}

func (repo userRepository) UpdateOrCreateUser(ctx context.Context, usr user.User) (user.User, error) {
	if usr.ID == "" {
		return repo.CreateUser(ctx, usr)
	}
	return repo.UpdateUser(ctx, usr)
}

func (repo userRepository) DeleteUsersByID(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	args := make([]interface{}, 0, len(ids))
	for _, id := range ids {
		args = append(args, id)
	}
	query := "DELETE FROM users WHERE id IN (" + placeholders(len(ids)) + ")"
	if _, err := repo.db.ExecContext(ctx, repo.db.Rebind(query), args...); err != nil {
		return errors.Wrap(err, "deleting users")
	}
	return nil
}
