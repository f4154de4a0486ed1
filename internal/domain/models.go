package domain

import "time"

// Базовые идентификаторы
type UserID = int64
type FeedID = int64

// Пользователь
type User struct {
	ID        UserID    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	PassHash  string    `json:"-"` // никогда не отдаём наружу
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Краткий блок идентичности для вложенных ответов (host, shared_by, ...)
type UserRef struct {
	Username string `json:"username"`
	Email    string `json:"email"`
}

func (u User) Ref() UserRef { return UserRef{Username: u.Username, Email: u.Email} }

// Фид — один загруженный PDF и его метаданные
type Feed struct {
	ID          FeedID    `json:"id"`
	HostID      UserID    `json:"host_id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	MIME        string    `json:"mime"`
	SizeBytes   int64     `json:"size_bytes"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	// Денормализация для выдачи
	CommentCount int     `json:"comment_count"`
	Host         UserRef `json:"host"`

	// Где лежит контент (S3/MinIO)
	StorageKey string `json:"-"`
	SHA256     []byte `json:"-"`
}

// Комментарий. Автор — либо зарегистрированный пользователь (UserID),
// либо свободное имя (CommenterName); ровно одно из двух.
type Comment struct {
	ID            int64     `json:"id"`
	FeedID        FeedID    `json:"feed_id"`
	UserID        *UserID   `json:"user_id,omitempty"`
	CommenterName string    `json:"commenter_name"`
	Body          string    `json:"comment_body"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Публичная ссылка: токен-capability, открывает фид без аутентификации
type PublicShare struct {
	ID         int64      `json:"id"`
	FeedID     FeedID     `json:"feed_id"`
	ShareToken string     `json:"share_token"`
	CreatedBy  UserID     `json:"-"`
	CreatedAt  time.Time  `json:"created_at"`
	ExpiresAt  *time.Time `json:"expires_at,omitempty"`
	IsActive   bool       `json:"-"`
}

// Expired — срок действия истёк к моменту now. Отсутствие ExpiresAt = бессрочно.
func (s *PublicShare) Expired(now time.Time) bool {
	return s.ExpiresAt != nil && s.ExpiresAt.Before(now)
}

// Персональный грант: доступ конкретному пользователю, отзываемый
type UserShare struct {
	ID           int64     `json:"id"`
	FeedID       FeedID    `json:"feed_id"`
	SharedByID   UserID    `json:"-"`
	SharedWithID UserID    `json:"-"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`

	SharedBy   UserRef `json:"shared_by"`
	SharedWith UserRef `json:"shared_with"`
}

// Grants — действующий ли это грант для пользователя uid на фид fid.
func (g *UserShare) Grants(fid FeedID, uid UserID) bool {
	return g.IsActive && g.FeedID == fid && g.SharedWithID == uid
}
