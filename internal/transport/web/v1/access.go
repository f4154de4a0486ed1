package v1

import (
	"context"
	"errors"
	"time"

	"github.com/pdffeed/pdffeed/internal/domain"
)

// AccessDeps загружает строки для решения о доступе и вызывает ResolveAccess.
// Вся I/O-часть здесь, сама матрица прав — чистая функция в domain.
type AccessDeps struct {
	Feeds  domain.FeedsRepo
	Shares domain.SharesRepo
}

// Resolve возвращает решение и сам фид (для дальнейшей отдачи).
// Отсутствующие строки не ошибка на этом уровне: ResolveAccess сам
// схлопывает их в not_found.
func (d AccessDeps) Resolve(ctx context.Context, ref domain.AccessRef, user *domain.User) (domain.AccessDecision, domain.Feed, error) {
	in := domain.AccessInput{Ref: ref, User: user, Now: time.Now().UTC()}

	if ref.Token != "" {
		share, err := d.Shares.PublicShareByToken(ctx, ref.Token)
		switch {
		case err == nil:
			in.Share = &share
		case errors.Is(err, domain.ErrNotFound):
			// нет ссылки — Resolve вернёт not_found
		default:
			return domain.AccessDecision{}, domain.Feed{}, err
		}
		if in.Share != nil {
			feed, err := d.Feeds.FeedByID(ctx, in.Share.FeedID)
			switch {
			case err == nil:
				in.Feed = &feed
			case errors.Is(err, domain.ErrNotFound):
			default:
				return domain.AccessDecision{}, domain.Feed{}, err
			}
		}
	} else {
		feed, err := d.Feeds.FeedByID(ctx, ref.FeedID)
		switch {
		case err == nil:
			in.Feed = &feed
		case errors.Is(err, domain.ErrNotFound):
		default:
			return domain.AccessDecision{}, domain.Feed{}, err
		}
		if in.Feed != nil && user != nil && in.Feed.HostID != user.ID {
			grant, err := d.Shares.ActiveUserShare(ctx, in.Feed.ID, user.ID)
			switch {
			case err == nil:
				in.Grant = &grant
			case errors.Is(err, domain.ErrNotFound):
			default:
				return domain.AccessDecision{}, domain.Feed{}, err
			}
		}
	}

	dec, err := domain.ResolveAccess(in)
	if err != nil {
		return domain.AccessDecision{}, domain.Feed{}, err
	}
	if in.Feed == nil {
		return domain.AccessDecision{}, domain.Feed{}, domain.ErrNotFound
	}
	return dec, *in.Feed, nil
}
