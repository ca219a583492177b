package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jdholdren/chatter/internal/chatter"
)

func (r Repo) User(ctx context.Context, id int64) (chatter.User, error) {
	q := r.db.Rebind(`SELECT * FROM users WHERE id = ?;`)

	var usr chatter.User
	err := r.db.GetContext(ctx, &usr, q, id)
	if errors.Is(err, sql.ErrNoRows) {
		return chatter.User{}, fmt.Errorf("user %d: %w", id, chatter.ErrNotFound)
	}
	if err != nil {
		return chatter.User{}, fmt.Errorf("error fetching user: %w", err)
	}

	return usr, nil
}

// Users returns a page of users, newest first.
func (r Repo) Users(ctx context.Context, offset, limit int) ([]chatter.User, error) {
	q := r.db.Rebind(`SELECT * FROM users ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?;`)

	users := []chatter.User{}
	if err := r.db.SelectContext(ctx, &users, q, limit, offset); err != nil {
		return nil, fmt.Errorf("error selecting users: %w", err)
	}

	return users, nil
}

func (r Repo) InsertUser(ctx context.Context, usr chatter.User) (chatter.User, error) {
	usr.CreatedAt = now()
	usr.UpdatedAt = usr.CreatedAt

	query, args, err := r.builder.Insert("users").
		Columns("first_name", "last_name", "email", "created_at", "updated_at").
		Values(usr.FirstName, usr.LastName, usr.Email, usr.CreatedAt, usr.UpdatedAt).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return chatter.User{}, fmt.Errorf("error constructing sql: %w", err)
	}

	err = r.db.QueryRowxContext(ctx, query, args...).Scan(&usr.ID)
	if isUniqueViolation(err) {
		return chatter.User{}, fmt.Errorf("email already registered: %w", chatter.ErrConflict)
	}
	if err != nil {
		return chatter.User{}, fmt.Errorf("error inserting user: %w", err)
	}

	return r.User(ctx, usr.ID)
}

func (r Repo) UpdateUser(ctx context.Context, id int64, args chatter.UpdateUserArgs) (chatter.User, error) {
	q := r.builder.Update("users").Set("updated_at", now())
	if args.FirstName != "" {
		q = q.Set("first_name", args.FirstName)
	}
	if args.LastName != "" {
		q = q.Set("last_name", args.LastName)
	}
	if args.Email != "" {
		q = q.Set("email", args.Email)
	}

	query, qArgs, err := q.Where("id = ?", id).ToSql()
	if err != nil {
		return chatter.User{}, fmt.Errorf("error constructing sql: %w", err)
	}

	res, err := r.db.ExecContext(ctx, query, qArgs...)
	if isUniqueViolation(err) {
		return chatter.User{}, fmt.Errorf("email already registered: %w", chatter.ErrConflict)
	}
	if err != nil {
		return chatter.User{}, fmt.Errorf("error updating user: %w", err)
	}
	if err := affectedOne(res, "user", id); err != nil {
		return chatter.User{}, err
	}

	return r.User(ctx, id)
}

func (r Repo) DeleteUser(ctx context.Context, id int64) error {
	q := r.db.Rebind(`DELETE FROM users WHERE id = ?;`)

	res, err := r.db.ExecContext(ctx, q, id)
	if err != nil {
		return fmt.Errorf("error deleting user: %w", err)
	}

	return affectedOne(res, "user", id)
}

// affectedOne turns an update or delete that matched nothing into ErrNotFound.
func affectedOne(res sql.Result, kind string, id int64) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("error reading affected rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%s %d: %w", kind, id, chatter.ErrNotFound)
	}

	return nil
}
