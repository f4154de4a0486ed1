package domain

import (
	"strings"
	"time"
)

// Модель доступа к фиду. Три непересекающихся пути:
// владелец, получатель персонального гранта, держатель публичного токена.
// Приоритет разбора: токен (самодостаточен, сессия для чтения игнорируется),
// затем владение, затем грант. Ни один путь не подошёл — not_found: наружу
// нельзя отличать «нет такого фида» от «есть, но чужой».

type AccessPath int

const (
	PathNone AccessPath = iota
	PathOwner
	PathUserShare
	PathPublicToken
)

func (p AccessPath) String() string {
	switch p {
	case PathOwner:
		return "owner"
	case PathUserShare:
		return "user_share"
	case PathPublicToken:
		return "public_token"
	default:
		return "none"
	}
}

// AccessRef — как запросили документ: по id либо по публичному токену.
type AccessRef struct {
	FeedID FeedID
	Token  string
}

// AccessInput — уже загруженные строки; Resolve не делает I/O.
// Share — публичная ссылка, найденная по Ref.Token (nil, если не нашлась).
// Grant — активный user-share для пары (фид, пользователь), если есть.
type AccessInput struct {
	Ref   AccessRef
	User  *User
	Feed  *Feed
	Share *PublicShare
	Grant *UserShare
	Now   time.Time
}

type AccessDecision struct {
	Path       AccessPath
	CanRead    bool
	CanComment bool
}

// ResolveAccess кодирует матрицу прав. Чистая функция, без побочных эффектов.
func ResolveAccess(in AccessInput) (AccessDecision, error) {
	if in.Ref.Token != "" {
		return resolveByToken(in)
	}
	return resolveByID(in)
}

func resolveByToken(in AccessInput) (AccessDecision, error) {
	s := in.Share
	if s == nil || s.ShareToken != in.Ref.Token || !s.IsActive || s.Expired(in.Now) {
		// просроченный токен неотличим от несуществующего, даже для владельца
		return AccessDecision{}, ErrNotFound
	}
	if in.Feed == nil || in.Feed.ID != s.FeedID {
		return AccessDecision{}, ErrNotFound
	}
	return AccessDecision{Path: PathPublicToken, CanRead: true, CanComment: true}, nil
}

func resolveByID(in AccessInput) (AccessDecision, error) {
	if in.Feed == nil || in.Feed.ID != in.Ref.FeedID {
		return AccessDecision{}, ErrNotFound
	}
	if in.User == nil {
		return AccessDecision{}, ErrUnauth
	}
	if in.Feed.HostID == in.User.ID {
		return AccessDecision{Path: PathOwner, CanRead: true, CanComment: true}, nil
	}
	if in.Grant != nil && in.Grant.Grants(in.Feed.ID, in.User.ID) {
		return AccessDecision{Path: PathUserShare, CanRead: true, CanComment: true}, nil
	}
	return AccessDecision{}, ErrNotFound
}

// Потолок длины свободного имени комментатора, в рунах.
const maxCommenterName = 120

// CommentIdentity — правило авторства: активная сессия всегда побеждает
// переданное свободное имя; аноним обязан представиться; ни того ни
// другого, либо имя длиннее лимита — bad_params. Возвращает
// (user_id, commenter_name) для записи, ровно одно из двух заполнено.
func CommentIdentity(user *User, commenterName string) (*UserID, string, error) {
	if user != nil {
		id := user.ID
		return &id, "", nil
	}
	name := strings.TrimSpace(commenterName)
	if name == "" || len([]rune(name)) > maxCommenterName {
		return nil, "", ErrBadParams
	}
	return nil, name, nil
}
