package postgres

import (
	"context"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"github.com/pdffeed/pdffeed/internal/domain"
)

// ---------- PUBLIC SHARES ----------

func (r *PGRepo) CreatePublicShare(ctx context.Context, s domain.PublicShare) (domain.PublicShare, error) {
	q := r.qb().Insert(r.tbl("public_shares")).
		Columns("feed_id", "share_token", "created_by", "expires_at").
		Values(s.FeedID, s.ShareToken, s.CreatedBy, s.ExpiresAt).
		Suffix("RETURNING id, created_at, is_active")

	sqlStr, args, _ := q.ToSql()
	r.logSQL("CreatePublicShare", sqlStr, args)

	start := time.Now()
	out := s
	if err := r.pool.QueryRow(ctx, sqlStr, args...).
		Scan(&out.ID, &out.CreatedAt, &out.IsActive); err != nil {
		r.logger.Printf("CreatePublicShare scan error after %s: %v", time.Since(start), err)
		return domain.PublicShare{}, mapRowErr(err)
	}
	r.logger.Printf("CreatePublicShare ok in %s id=%d feed_id=%d", time.Since(start), out.ID, out.FeedID)
	return out, nil
}

func (r *PGRepo) PublicShareByToken(ctx context.Context, token string) (domain.PublicShare, error) {
	q := r.qb().Select(
		"id", "feed_id", "share_token", "created_by", "created_at", "expires_at", "is_active",
	).From(r.tbl("public_shares")).
		Where(sq.Eq{"share_token": token})

	sqlStr, args, _ := q.ToSql()
	r.logSQL("PublicShareByToken", sqlStr, args)

	start := time.Now()
	var s domain.PublicShare
	if err := r.pool.QueryRow(ctx, sqlStr, args...).Scan(
		&s.ID, &s.FeedID, &s.ShareToken, &s.CreatedBy, &s.CreatedAt, &s.ExpiresAt, &s.IsActive,
	); err != nil {
		r.logger.Printf("PublicShareByToken scan error after %s: %v", time.Since(start), err)
		return domain.PublicShare{}, mapRowErr(err)
	}
	r.logger.Printf("PublicShareByToken ok in %s id=%d feed_id=%d", time.Since(start), s.ID, s.FeedID)
	return s, nil
}

// ---------- USER SHARES ----------

// Грант всегда читается с denormalized-блоками shared_by/shared_with
func (r *PGRepo) userShareSelect() sq.SelectBuilder {
	return r.qb().Select(
		"s.id", "s.feed_id", "s.shared_by_id", "s.shared_with_id", "s.is_active", "s.created_at",
		"ub.username", "ub.email", "uw.username", "uw.email",
	).From(r.tbl("user_shares") + " s").
		Join(r.tbl("users") + " ub ON ub.id = s.shared_by_id").
		Join(r.tbl("users") + " uw ON uw.id = s.shared_with_id")
}

func scanUserShare(row pgx.Row) (domain.UserShare, error) {
	var s domain.UserShare
	err := row.Scan(
		&s.ID, &s.FeedID, &s.SharedByID, &s.SharedWithID, &s.IsActive, &s.CreatedAt,
		&s.SharedBy.Username, &s.SharedBy.Email, &s.SharedWith.Username, &s.SharedWith.Email,
	)
	if err != nil {
		return domain.UserShare{}, mapRowErr(err)
	}
	return s, nil
}

func (r *PGRepo) CreateUserShare(ctx context.Context, s domain.UserShare) (domain.UserShare, error) {
	q := r.qb().Insert(r.tbl("user_shares")).
		Columns("feed_id", "shared_by_id", "shared_with_id").
		Values(s.FeedID, s.SharedByID, s.SharedWithID).
		Suffix("RETURNING id")

	sqlStr, args, _ := q.ToSql()
	r.logSQL("CreateUserShare", sqlStr, args)

	start := time.Now()
	var id int64
	if err := r.pool.QueryRow(ctx, sqlStr, args...).Scan(&id); err != nil {
		r.logger.Printf("CreateUserShare scan error after %s: %v", time.Since(start), err)
		return domain.UserShare{}, mapRowErr(err)
	}
	r.logger.Printf("CreateUserShare ok in %s id=%d feed_id=%d", time.Since(start), id, s.FeedID)
	return r.UserShareByID(ctx, id)
}

func (r *PGRepo) ActiveUserShare(ctx context.Context, feed domain.FeedID, user domain.UserID) (domain.UserShare, error) {
	q := r.userShareSelect().Where(sq.Eq{
		"s.feed_id":        feed,
		"s.shared_with_id": user,
		"s.is_active":      true,
	})

	sqlStr, args, _ := q.ToSql()
	r.logSQL("ActiveUserShare", sqlStr, args)

	start := time.Now()
	s, err := scanUserShare(r.pool.QueryRow(ctx, sqlStr, args...))
	if err != nil {
		r.logger.Printf("ActiveUserShare miss in %s feed_id=%d user_id=%d: %v", time.Since(start), feed, user, err)
		return domain.UserShare{}, err
	}
	r.logger.Printf("ActiveUserShare ok in %s id=%d", time.Since(start), s.ID)
	return s, nil
}

func (r *PGRepo) UserShareByID(ctx context.Context, id int64) (domain.UserShare, error) {
	q := r.userShareSelect().Where(sq.Eq{"s.id": id})

	sqlStr, args, _ := q.ToSql()
	r.logSQL("UserShareByID", sqlStr, args)

	start := time.Now()
	s, err := scanUserShare(r.pool.QueryRow(ctx, sqlStr, args...))
	if err != nil {
		r.logger.Printf("UserShareByID scan error after %s: %v", time.Since(start), err)
		return domain.UserShare{}, err
	}
	r.logger.Printf("UserShareByID ok in %s id=%d", time.Since(start), s.ID)
	return s, nil
}

func (r *PGRepo) DeactivateUserShare(ctx context.Context, id int64) error {
	q := r.qb().Update(r.tbl("user_shares")).
		Set("is_active", false).
		Where(sq.Eq{"id": id})

	sqlStr, args, _ := q.ToSql()
	r.logSQL("DeactivateUserShare", sqlStr, args)

	start := time.Now()
	tag, err := r.pool.Exec(ctx, sqlStr, args...)
	if err != nil {
		r.logger.Printf("DeactivateUserShare exec error after %s: %v", time.Since(start), err)
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	r.logger.Printf("DeactivateUserShare ok in %s id=%d", time.Since(start), id)
	return nil
}

func (r *PGRepo) UserSharesByFeed(ctx context.Context, feed domain.FeedID) ([]domain.UserShare, error) {
	q := r.userShareSelect().
		Where(sq.Eq{"s.feed_id": feed, "s.is_active": true}).
		OrderBy("s.created_at DESC")

	sqlStr, args, _ := q.ToSql()
	r.logSQL("UserSharesByFeed", sqlStr, args)

	start := time.Now()
	rows, err := r.pool.Query(ctx, sqlStr, args...)
	if err != nil {
		r.logger.Printf("UserSharesByFeed query error after %s: %v", time.Since(start), err)
		return nil, err
	}
	defer rows.Close()

	res := make([]domain.UserShare, 0)
	for rows.Next() {
		s, err := scanUserShare(rows)
		if err != nil {
			r.logger.Printf("UserSharesByFeed scan error: %v", err)
			return nil, err
		}
		res = append(res, s)
	}
	if err := rows.Err(); err != nil {
		r.logger.Printf("UserSharesByFeed rows error: %v", err)
		return nil, err
	}
	r.logger.Printf("UserSharesByFeed ok in %s count=%d", time.Since(start), len(res))
	return res, nil
}
