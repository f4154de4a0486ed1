package client

import (
	"context"
	"io"
	"sync"
)

type State int

const (
	StateAnonymous State = iota
	StateAuthenticated
)

func (s State) String() string {
	if s == StateAuthenticated {
		return "authenticated"
	}
	return "anonymous"
}

// Listener получает уведомление о каждом переходе состояния.
type Listener func(State, User)

// Session — контроллер поверх Client: ведёт текущее состояние
// (кто залогинен), синхронизирует его с хранилищем учётных данных
// и самовосстанавливается при протухшей сессии.
//
// Восстановление из хранилища оптимистично: валидирующего похода в
// сеть при создании нет, первая же привилегированная операция с
// AuthError чистит хранилище и роняет сессию в Anonymous.
type Session struct {
	client *Client
	store  Store

	mu       sync.Mutex
	state    State
	user     User
	subs     map[int]Listener
	nextSub  int
	inflight map[string]bool
}

func NewSession(c *Client, store Store) *Session {
	s := &Session{
		client:   c,
		store:    store,
		state:    StateAnonymous,
		subs:     map[int]Listener{},
		inflight: map[string]bool{},
	}
	if creds, ok, _ := store.Load(); ok {
		s.state, s.user = StateAuthenticated, creds.User
	}
	return s
}

func (s *Session) State() (State, User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state, s.user
}

// Subscribe регистрирует слушателя переходов; возвращает отписку.
// Слушатель тут же получает текущее состояние.
func (s *Session) Subscribe(fn Listener) func() {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	state, user := s.state, s.user
	s.mu.Unlock()

	fn(state, user)
	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

func (s *Session) transition(state State, user User) {
	s.mu.Lock()
	if s.state == state && s.user.ID == user.ID {
		s.mu.Unlock()
		return
	}
	s.state, s.user = state, user
	listeners := make([]Listener, 0, len(s.subs))
	for _, fn := range s.subs {
		listeners = append(listeners, fn)
	}
	s.mu.Unlock()

	for _, fn := range listeners {
		fn(state, user)
	}
}

// begin захватывает именованный слот действия; false — такое же действие
// уже в полёте, дубль не отправляем.
func (s *Session) begin(action string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.inflight[action] {
		return false
	}
	s.inflight[action] = true
	return true
}

func (s *Session) end(action string) {
	s.mu.Lock()
	delete(s.inflight, action)
	s.mu.Unlock()
}

var errInFlight = errValidation("action already in progress")

// heal — самолечение: AuthError от привилегированного вызова означает,
// что токен мёртв; чистим хранилище и падаем в Anonymous.
func (s *Session) heal(err error) error {
	if err != nil && IsAuth(err) {
		_ = s.store.Clear()
		s.transition(StateAnonymous, User{})
	}
	return err
}

// --- переходы ---

func (s *Session) Login(ctx context.Context, username, password string) error {
	if !s.begin("login") {
		return errInFlight
	}
	defer s.end("login")

	res, err := s.client.Login(ctx, username, password)
	if err != nil {
		return err
	}
	if err := s.store.Save(Credentials{AccessToken: res.AccessToken, User: res.User}); err != nil {
		return errNetwork("persist credentials").WithCause(err)
	}
	s.transition(StateAuthenticated, res.User)
	return nil
}

func (s *Session) Register(ctx context.Context, username, email, password string) error {
	if !s.begin("register") {
		return errInFlight
	}
	defer s.end("register")

	res, err := s.client.Register(ctx, username, email, password)
	if err != nil {
		return err
	}
	if err := s.store.Save(Credentials{AccessToken: res.AccessToken, User: res.User}); err != nil {
		return errNetwork("persist credentials").WithCause(err)
	}
	s.transition(StateAuthenticated, res.User)
	return nil
}

// Logout чистит локальное состояние даже если сервер недоступен:
// локальная сессия важнее судьбы серверного токена.
func (s *Session) Logout(ctx context.Context) error {
	if !s.begin("logout") {
		return errInFlight
	}
	defer s.end("logout")

	err := s.client.Logout(ctx)
	_ = s.store.Clear()
	s.transition(StateAnonymous, User{})
	if err != nil && !IsAuth(err) {
		return err
	}
	return nil
}

// --- привилегированные операции (с самолечением) ---

// Feeds деградирует до пустого списка только здесь, не в Client:
// UI переживёт пустую ленту, но не nil-панику.
func (s *Session) Feeds(ctx context.Context) ([]Feed, error) {
	feeds, err := s.client.Feeds(ctx)
	if err != nil {
		return []Feed{}, s.heal(err)
	}
	if feeds == nil {
		feeds = []Feed{}
	}
	return feeds, nil
}

func (s *Session) SearchFeeds(ctx context.Context, query string) ([]Feed, error) {
	feeds, err := s.client.SearchFeeds(ctx, query)
	if err != nil {
		return []Feed{}, s.heal(err)
	}
	if feeds == nil {
		feeds = []Feed{}
	}
	return feeds, nil
}

func (s *Session) SharedWithMe(ctx context.Context) ([]Feed, error) {
	feeds, err := s.client.SharedWithMe(ctx)
	if err != nil {
		return []Feed{}, s.heal(err)
	}
	if feeds == nil {
		feeds = []Feed{}
	}
	return feeds, nil
}

func (s *Session) UploadFeed(ctx context.Context, title, description, filename string, content io.Reader) (Feed, error) {
	if !s.begin("upload") {
		return Feed{}, errInFlight
	}
	defer s.end("upload")

	fd, err := s.client.UploadFeed(ctx, title, description, filename, content)
	return fd, s.heal(err)
}

func (s *Session) DeleteFeed(ctx context.Context, id int64) error {
	if !s.begin("delete") {
		return errInFlight
	}
	defer s.end("delete")
	return s.heal(s.client.DeleteFeed(ctx, id))
}

func (s *Session) Feed(ctx context.Context, id int64) (Feed, error) {
	fd, err := s.client.Feed(ctx, id)
	return fd, s.heal(err)
}

func (s *Session) DownloadFeed(ctx context.Context, id int64) (io.ReadCloser, string, error) {
	rc, ct, err := s.client.DownloadFeed(ctx, id)
	return rc, ct, s.heal(err)
}

func (s *Session) CreatePublicShare(ctx context.Context, feedID int64, expiresInDays int) (PublicShare, error) {
	if !s.begin("share_public") {
		return PublicShare{}, errInFlight
	}
	defer s.end("share_public")

	sh, err := s.client.CreatePublicShare(ctx, feedID, expiresInDays)
	return sh, s.heal(err)
}

func (s *Session) ShareWithUser(ctx context.Context, feedID int64, email string) (UserShare, error) {
	if !s.begin("share_user") {
		return UserShare{}, errInFlight
	}
	defer s.end("share_user")

	sh, err := s.client.ShareWithUser(ctx, feedID, email)
	return sh, s.heal(err)
}

func (s *Session) RevokeUserShare(ctx context.Context, shareID int64) error {
	if !s.begin("revoke") {
		return errInFlight
	}
	defer s.end("revoke")
	return s.heal(s.client.RevokeUserShare(ctx, shareID))
}

func (s *Session) FeedGrantees(ctx context.Context, feedID int64) ([]UserShare, error) {
	shares, err := s.client.FeedGrantees(ctx, feedID)
	if err != nil {
		return []UserShare{}, s.heal(err)
	}
	if shares == nil {
		shares = []UserShare{}
	}
	return shares, nil
}

func (s *Session) Comments(ctx context.Context, feedID int64) ([]Comment, error) {
	comments, err := s.client.Comments(ctx, feedID)
	if err != nil {
		return []Comment{}, s.heal(err)
	}
	if comments == nil {
		comments = []Comment{}
	}
	return comments, nil
}

func (s *Session) PostComment(ctx context.Context, feedID int64, body string) (Comment, error) {
	if !s.begin("comment") {
		return Comment{}, errInFlight
	}
	defer s.end("comment")

	c, err := s.client.PostComment(ctx, feedID, body)
	return c, s.heal(err)
}

// --- публичные ссылки: токен = право, сессия не нужна и не лечится ---

func (s *Session) ResolveShare(ctx context.Context, token string) (SharedFeed, error) {
	return s.client.ResolveShare(ctx, token)
}

func (s *Session) ShareComments(ctx context.Context, token string) ([]Comment, error) {
	comments, err := s.client.ShareComments(ctx, token)
	if err != nil {
		return []Comment{}, err
	}
	if comments == nil {
		comments = []Comment{}
	}
	return comments, nil
}

func (s *Session) PostShareComment(ctx context.Context, token, body, commenterName string) (Comment, error) {
	if !s.begin("share_comment") {
		return Comment{}, errInFlight
	}
	defer s.end("share_comment")

	return s.client.PostShareComment(ctx, token, body, commenterName)
}

func (s *Session) DownloadShared(ctx context.Context, token string) (io.ReadCloser, string, error) {
	return s.client.DownloadShared(ctx, token)
}
