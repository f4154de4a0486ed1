package postgres

import (
	"context"
	"errors"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/pdffeed/pdffeed/internal/domain"
)

const uniqueViolation = "23505"

// mapRowErr переводит ошибки драйвера в доменные
func mapRowErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return domain.ErrConflict
	}
	return err
}

const userCols = "id, username, email, pass_hash, is_active, created_at, updated_at"

func scanUser(row pgx.Row) (domain.User, error) {
	var u domain.User
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PassHash, &u.IsActive, &u.CreatedAt, &u.UpdatedAt)
	return u, mapRowErr(err)
}

func (r *PGRepo) CreateUser(ctx context.Context, username, email, passHash string) (domain.User, error) {
	q := r.qb().Insert(r.tbl("users")).
		Columns("username", "email", "pass_hash").
		Values(username, email, passHash).
		Suffix("RETURNING " + userCols)

	sqlStr, args, _ := q.ToSql()
	r.logSQL("CreateUser", sqlStr, args)

	start := time.Now()
	u, err := scanUser(r.pool.QueryRow(ctx, sqlStr, args...))
	if err != nil {
		r.logger.Printf("CreateUser scan error after %s: %v", time.Since(start), err)
		return domain.User{}, err
	}
	r.logger.Printf("CreateUser ok in %s id=%d username=%s", time.Since(start), u.ID, u.Username)
	return u, nil
}

func (r *PGRepo) userBy(ctx context.Context, op string, pred sq.Eq) (domain.User, error) {
	q := r.qb().Select(userCols).From(r.tbl("users")).Where(pred)

	sqlStr, args, _ := q.ToSql()
	r.logSQL(op, sqlStr, args)

	start := time.Now()
	u, err := scanUser(r.pool.QueryRow(ctx, sqlStr, args...))
	if err != nil {
		r.logger.Printf("%s scan error after %s: %v", op, time.Since(start), err)
		return domain.User{}, err
	}
	r.logger.Printf("%s ok in %s id=%d", op, time.Since(start), u.ID)
	return u, nil
}

func (r *PGRepo) UserByUsername(ctx context.Context, username string) (domain.User, error) {
	return r.userBy(ctx, "UserByUsername", sq.Eq{"username": username})
}

func (r *PGRepo) UserByEmail(ctx context.Context, email string) (domain.User, error) {
	return r.userBy(ctx, "UserByEmail", sq.Eq{"email": email})
}

func (r *PGRepo) UserByID(ctx context.Context, id domain.UserID) (domain.User, error) {
	return r.userBy(ctx, "UserByID", sq.Eq{"id": id})
}
