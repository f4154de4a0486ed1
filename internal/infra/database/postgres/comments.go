package postgres

import (
	"context"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/pdffeed/pdffeed/internal/domain"
)

func (r *PGRepo) CreateComment(ctx context.Context, c domain.Comment) (domain.Comment, error) {
	var name *string
	if c.CommenterName != "" {
		name = &c.CommenterName
	}
	q := r.qb().Insert(r.tbl("comments")).
		Columns("feed_id", "user_id", "commenter_name", "comment_body").
		Values(c.FeedID, c.UserID, name, c.Body).
		Suffix("RETURNING id, created_at, updated_at")

	sqlStr, args, _ := q.ToSql()
	r.logSQL("CreateComment", sqlStr, args)

	start := time.Now()
	out := c
	if err := r.pool.QueryRow(ctx, sqlStr, args...).
		Scan(&out.ID, &out.CreatedAt, &out.UpdatedAt); err != nil {
		r.logger.Printf("CreateComment scan error after %s: %v", time.Since(start), err)
		return domain.Comment{}, mapRowErr(err)
	}

	// авторизованному автору подставляем username для выдачи
	if out.UserID != nil {
		u, err := r.UserByID(ctx, *out.UserID)
		if err == nil {
			out.CommenterName = u.Username
		}
	}
	r.logger.Printf("CreateComment ok in %s id=%d feed_id=%d", time.Since(start), out.ID, out.FeedID)
	return out, nil
}

func (r *PGRepo) CommentsByFeed(ctx context.Context, feed domain.FeedID) ([]domain.Comment, error) {
	q := r.qb().Select(
		"c.id", "c.feed_id", "c.user_id",
		"COALESCE(u.username, c.commenter_name, '')",
		"c.comment_body", "c.created_at", "c.updated_at",
	).From(r.tbl("comments") + " c").
		LeftJoin(r.tbl("users") + " u ON u.id = c.user_id").
		Where(sq.Eq{"c.feed_id": feed}).
		OrderBy("c.updated_at DESC", "c.created_at DESC")

	sqlStr, args, _ := q.ToSql()
	r.logSQL("CommentsByFeed", sqlStr, args)

	start := time.Now()
	rows, err := r.pool.Query(ctx, sqlStr, args...)
	if err != nil {
		r.logger.Printf("CommentsByFeed query error after %s: %v", time.Since(start), err)
		return nil, err
	}
	defer rows.Close()

	res := make([]domain.Comment, 0)
	for rows.Next() {
		var c domain.Comment
		if err := rows.Scan(
			&c.ID, &c.FeedID, &c.UserID, &c.CommenterName,
			&c.Body, &c.CreatedAt, &c.UpdatedAt,
		); err != nil {
			r.logger.Printf("CommentsByFeed scan error: %v", err)
			return nil, err
		}
		res = append(res, c)
	}
	if err := rows.Err(); err != nil {
		r.logger.Printf("CommentsByFeed rows error: %v", err)
		return nil, err
	}
	r.logger.Printf("CommentsByFeed ok in %s count=%d", time.Since(start), len(res))
	return res, nil
}
