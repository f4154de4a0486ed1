package domain

import "context"

type UsersRepo interface {
	Close()
	Ping(context.Context) error
	// ErrConflict при дубликате username/email
	CreateUser(ctx context.Context, username, email, passHash string) (User, error)
	UserByUsername(ctx context.Context, username string) (User, error)
	UserByEmail(ctx context.Context, email string) (User, error)
	UserByID(ctx context.Context, id UserID) (User, error)
}

type FeedsRepo interface {
	CreateFeed(ctx context.Context, f Feed) (Feed, error)
	// Метаданные с host и comment_count; без ACL — доступ решает ResolveAccess
	FeedByID(ctx context.Context, id FeedID) (Feed, error)
	// Собственные фиды пользователя, свежие сверху
	FeedsByHost(ctx context.Context, host UserID) ([]Feed, error)
	// Фиды, расшаренные пользователю активными грантами
	FeedsSharedWith(ctx context.Context, user UserID) ([]Feed, error)
	// Подстрочный поиск по title/description собственных фидов
	SearchFeeds(ctx context.Context, host UserID, query string) ([]Feed, error)
	DeleteFeed(ctx context.Context, id FeedID, host UserID) error
}

type CommentsRepo interface {
	CreateComment(ctx context.Context, c Comment) (Comment, error)
	// Свежие сверху; commenter_name подставляется из users для авторизованных
	CommentsByFeed(ctx context.Context, feed FeedID) ([]Comment, error)
}

type SharesRepo interface {
	CreatePublicShare(ctx context.Context, s PublicShare) (PublicShare, error)
	PublicShareByToken(ctx context.Context, token string) (PublicShare, error)

	CreateUserShare(ctx context.Context, s UserShare) (UserShare, error)
	// Активный грант для пары (фид, получатель); ErrNotFound, если нет
	ActiveUserShare(ctx context.Context, feed FeedID, user UserID) (UserShare, error)
	UserShareByID(ctx context.Context, id int64) (UserShare, error)
	// Ревокация: is_active=false, запись остаётся
	DeactivateUserShare(ctx context.Context, id int64) error
	// Активные гранты фида (кому расшарен)
	UserSharesByFeed(ctx context.Context, feed FeedID) ([]UserShare, error)
}
