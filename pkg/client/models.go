package client

import "time"

// Модели ответов сервера. Намеренно продублированы, а не импортированы
// из internal: клиент зависит только от wire-контракта.

type User struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type UserRef struct {
	Username string `json:"username"`
	Email    string `json:"email"`
}

type Feed struct {
	ID           int64     `json:"id"`
	HostID       int64     `json:"host_id"`
	Title        string    `json:"title"`
	Description  string    `json:"description,omitempty"`
	MIME         string    `json:"mime"`
	SizeBytes    int64     `json:"size_bytes"`
	CommentCount int       `json:"comment_count"`
	Host         UserRef   `json:"host"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type Comment struct {
	ID            int64     `json:"id"`
	FeedID        int64     `json:"feed_id"`
	UserID        *int64    `json:"user_id,omitempty"`
	CommenterName string    `json:"commenter_name"`
	Body          string    `json:"comment_body"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

type PublicShare struct {
	ID         int64      `json:"id"`
	FeedID     int64      `json:"feed_id"`
	ShareToken string     `json:"share_token"`
	CreatedAt  time.Time  `json:"created_at"`
	ExpiresAt  *time.Time `json:"expires_at,omitempty"`
	ShareURL   string     `json:"share_url,omitempty"`
}

type UserShare struct {
	ID         int64     `json:"id"`
	FeedID     int64     `json:"feed_id"`
	IsActive   bool      `json:"is_active"`
	CreatedAt  time.Time `json:"created_at"`
	SharedBy   UserRef   `json:"shared_by"`
	SharedWith UserRef   `json:"shared_with"`
}

type SharedFeed struct {
	Feed      Feed       `json:"feed"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

// AuthResult — ответ login/register
type AuthResult struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	User        User   `json:"user"`
}
