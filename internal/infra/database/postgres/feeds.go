package postgres

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"github.com/pdffeed/pdffeed/internal/domain"
)

// Выборка фида всегда с host и comment_count: счётчик считается по
// фактическим строкам comments, рассинхрон исключён.
func (r *PGRepo) feedSelect() sq.SelectBuilder {
	comments := r.tbl("comments")
	return r.qb().Select(
		"f.id", "f.host_id", "f.title", "f.description", "f.mime_type",
		"f.size_bytes", "f.storage_key", "f.content_sha256",
		"f.created_at", "f.updated_at",
		"u.username", "u.email",
		"(SELECT COUNT(*) FROM "+comments+" c WHERE c.feed_id = f.id) AS comment_count",
	).From(r.tbl("feeds") + " f").
		Join(r.tbl("users") + " u ON u.id = f.host_id")
}

func scanFeed(row pgx.Row) (domain.Feed, error) {
	var (
		f    domain.Feed
		desc *string
	)
	err := row.Scan(
		&f.ID, &f.HostID, &f.Title, &desc, &f.MIME,
		&f.SizeBytes, &f.StorageKey, &f.SHA256,
		&f.CreatedAt, &f.UpdatedAt,
		&f.Host.Username, &f.Host.Email,
		&f.CommentCount,
	)
	if err != nil {
		return domain.Feed{}, mapRowErr(err)
	}
	if desc != nil {
		f.Description = *desc
	}
	return f, nil
}

func (r *PGRepo) queryFeeds(ctx context.Context, op string, q sq.SelectBuilder) ([]domain.Feed, error) {
	sqlStr, args, _ := q.ToSql()
	r.logSQL(op, sqlStr, args)

	start := time.Now()
	rows, err := r.pool.Query(ctx, sqlStr, args...)
	if err != nil {
		r.logger.Printf("%s query error after %s: %v", op, time.Since(start), err)
		return nil, err
	}
	defer rows.Close()

	res := make([]domain.Feed, 0)
	for rows.Next() {
		f, err := scanFeed(rows)
		if err != nil {
			r.logger.Printf("%s scan error: %v", op, err)
			return nil, err
		}
		res = append(res, f)
	}
	if err := rows.Err(); err != nil {
		r.logger.Printf("%s rows error: %v", op, err)
		return nil, err
	}
	r.logger.Printf("%s ok in %s count=%d", op, time.Since(start), len(res))
	return res, nil
}

func (r *PGRepo) CreateFeed(ctx context.Context, f domain.Feed) (domain.Feed, error) {
	var desc *string
	if f.Description != "" {
		desc = &f.Description
	}
	q := r.qb().Insert(r.tbl("feeds")).
		Columns("host_id", "title", "description", "mime_type", "size_bytes", "storage_key", "content_sha256").
		Values(f.HostID, f.Title, desc, f.MIME, f.SizeBytes, f.StorageKey, f.SHA256).
		Suffix("RETURNING id")

	sqlStr, args, _ := q.ToSql()
	r.logSQL("CreateFeed", sqlStr, args)

	start := time.Now()
	var id domain.FeedID
	if err := r.pool.QueryRow(ctx, sqlStr, args...).Scan(&id); err != nil {
		r.logger.Printf("CreateFeed scan error after %s: %v", time.Since(start), err)
		return domain.Feed{}, mapRowErr(err)
	}
	r.logger.Printf("CreateFeed ok in %s id=%d title=%q", time.Since(start), id, f.Title)

	// перечитываем с host/comment_count для ответа
	return r.FeedByID(ctx, id)
}

func (r *PGRepo) FeedByID(ctx context.Context, id domain.FeedID) (domain.Feed, error) {
	q := r.feedSelect().Where(sq.Eq{"f.id": id})

	sqlStr, args, _ := q.ToSql()
	r.logSQL("FeedByID", sqlStr, args)

	start := time.Now()
	f, err := scanFeed(r.pool.QueryRow(ctx, sqlStr, args...))
	if err != nil {
		r.logger.Printf("FeedByID scan error after %s: %v", time.Since(start), err)
		return domain.Feed{}, err
	}
	r.logger.Printf("FeedByID ok in %s id=%d", time.Since(start), f.ID)
	return f, nil
}

func (r *PGRepo) FeedsByHost(ctx context.Context, host domain.UserID) ([]domain.Feed, error) {
	q := r.feedSelect().
		Where(sq.Eq{"f.host_id": host}).
		OrderBy("f.updated_at DESC", "f.created_at DESC")
	return r.queryFeeds(ctx, "FeedsByHost", q)
}

func (r *PGRepo) FeedsSharedWith(ctx context.Context, user domain.UserID) ([]domain.Feed, error) {
	shares := r.tbl("user_shares")
	q := r.feedSelect().
		Where(sq.Expr(
			"EXISTS (SELECT 1 FROM "+shares+" s WHERE s.feed_id = f.id AND s.shared_with_id = ? AND s.is_active)",
			user,
		)).
		OrderBy("f.updated_at DESC", "f.created_at DESC")
	return r.queryFeeds(ctx, "FeedsSharedWith", q)
}

func (r *PGRepo) SearchFeeds(ctx context.Context, host domain.UserID, query string) ([]domain.Feed, error) {
	pattern := "%" + query + "%"
	q := r.feedSelect().
		Where(sq.Eq{"f.host_id": host}).
		Where(sq.Or{
			sq.ILike{"f.title": pattern},
			sq.ILike{"f.description": pattern},
		}).
		OrderBy("f.updated_at DESC", "f.created_at DESC")
	return r.queryFeeds(ctx, "SearchFeeds", q)
}

func (r *PGRepo) DeleteFeed(ctx context.Context, id domain.FeedID, host domain.UserID) error {
	q := r.qb().Delete(r.tbl("feeds")).
		Where(sq.And{sq.Eq{"id": id}, sq.Eq{"host_id": host}})
	sqlStr, args, _ := q.ToSql()
	r.logSQL("DeleteFeed", sqlStr, args)

	start := time.Now()
	tag, err := r.pool.Exec(ctx, sqlStr, args...)
	if err != nil {
		r.logger.Printf("DeleteFeed exec error after %s: %v", time.Since(start), err)
		return err
	}
	if tag.RowsAffected() == 0 {
		r.logger.Printf("DeleteFeed no rows affected in %s (feed not found or not owner)", time.Since(start))
		return fmt.Errorf("feed %d: %w", id, domain.ErrNotFound)
	}
	r.logger.Printf("DeleteFeed ok in %s id=%d", time.Since(start), id)
	return nil
}
