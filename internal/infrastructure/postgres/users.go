package postgres

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/oksasatya/uptrade-api/internal/domain/entity"
	"github.com/oksasatya/uptrade-api/internal/domain/repository"
)

const userColumns = `id, name, email, password_hash, role, status, created_at, updated_at`

func scanUser(row rowScanner) (*entity.User, error) {
	u := &entity.User{}
	if err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, (*string)(&u.Role), (*string)(&u.Status), &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, err
	}
	return u, nil
}

func userWhere(f entity.UserFilter) *whereBuilder {
	w := &whereBuilder{}
	if f.Status != "" {
		w.add("status = ?", string(f.Status))
	}
	if f.Role != "" {
		w.add("role = ?", string(f.Role))
	}
	return w
}

func (s *Store) ListUsers(ctx context.Context, f entity.UserFilter) ([]*entity.User, error) {
	out := make([]*entity.User, 0)
	err := s.withConn(ctx, func(conn *pgxpool.Conn) error {
		w := userWhere(f)
		q := "SELECT " + userColumns + " FROM users" + w.sql() + " ORDER BY created_at DESC, id DESC"
		q += w.page(f.Limit, f.Offset)
		rows, err := conn.Query(ctx, q, w.args...)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			u, err := scanUser(rows)
			if err != nil {
				return err
			}
			out = append(out, u)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return out, nil
}

func (s *Store) CountUsers(ctx context.Context, f entity.UserFilter) (int, error) {
	var n int
	err := s.withConn(ctx, func(conn *pgxpool.Conn) error {
		w := userWhere(f)
		return conn.QueryRow(ctx, "SELECT COUNT(*) FROM users"+w.sql(), w.args...).Scan(&n)
	})
	if err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return n, nil
}

func (s *Store) GetUser(ctx context.Context, id string) (*entity.User, error) {
	return s.getUserBy(ctx, "id", id)
}

func (s *Store) FindUserByEmail(ctx context.Context, email string) (*entity.User, error) {
	return s.getUserBy(ctx, "LOWER(email)", entity.NormalizeEmail(email))
}

func (s *Store) getUserBy(ctx context.Context, column, value string) (*entity.User, error) {
	var u *entity.User
	err := s.withConn(ctx, func(conn *pgxpool.Conn) error {
		var err error
		u, err = scanUser(conn.QueryRow(ctx, "SELECT "+userColumns+" FROM users WHERE "+column+" = $1", value))
		return err
	})
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user by %s: %w", column, err)
	}
	return u, nil
}

func (s *Store) CreateUser(ctx context.Context, u *entity.User) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	u.Email = entity.NormalizeEmail(u.Email)
	now := time.Now().UTC()
	u.CreatedAt, u.UpdatedAt = now, now
	err := s.withConn(ctx, func(conn *pgxpool.Conn) error {
		_, err := conn.Exec(ctx,
			`INSERT INTO users (id, name, email, password_hash, role, status, created_at, updated_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			u.ID, u.Name, u.Email, u.PasswordHash, string(u.Role), string(u.Status), u.CreatedAt, u.UpdatedAt)
		return err
	})
	if isUniqueViolation(err) {
		return repository.ErrDuplicateEmail
	}
	if err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

func (s *Store) UpdateUser(ctx context.Context, id string, p entity.UserPatch) (*entity.User, error) {
	if p.Empty() {
		return nil, repository.ErrNoUpdatableFields
	}
	var sets []string
	var args []any
	set := func(col string, v any) {
		args = append(args, v)
		sets = append(sets, col+" = $"+strconv.Itoa(len(args)))
	}
	if p.Name != nil {
		set("name", *p.Name)
	}
	if p.Role != nil {
		set("role", string(*p.Role))
	}
	if p.Status != nil {
		set("status", string(*p.Status))
	}
	if p.PasswordHash != nil {
		set("password_hash", *p.PasswordHash)
	}
	args = append(args, id)
	q := fmt.Sprintf("UPDATE users SET %s, updated_at = NOW() WHERE id = $%d RETURNING %s",
		strings.Join(sets, ", "), len(args), userColumns)

	var u *entity.User
	err := s.withConn(ctx, func(conn *pgxpool.Conn) error {
		var err error
		u, err = scanUser(conn.QueryRow(ctx, q, args...))
		return err
	})
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}
	return u, nil
}

func (s *Store) DeleteUser(ctx context.Context, id string) (bool, error) {
	var affected int64
	err := s.withConn(ctx, func(conn *pgxpool.Conn) error {
		tag, err := conn.Exec(ctx, "DELETE FROM users WHERE id = $1", id)
		affected = tag.RowsAffected()
		return err
	})
	if err != nil {
		return false, fmt.Errorf("delete user: %w", err)
	}
	return affected > 0, nil
}
