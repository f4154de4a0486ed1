// Package client — типизированный REST-клиент pdffeed.
// Client ходит в API один-в-один по контракту; Session поверх него
// ведёт состояние (кто залогинен) и хранилище учётных данных.
package client

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

type Client struct {
	base  string
	http  *http.Client
	store Store
}

type Option func(*Client)

func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

func New(baseURL string, store Store, opts ...Option) *Client {
	c := &Client{
		base:  strings.TrimRight(baseURL, "/"),
		http:  &http.Client{Timeout: 60 * time.Second},
		store: store,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// --- транспортный низ ---

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader, contentType string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, body)
	if err != nil {
		return nil, errNetwork("build request").WithCause(err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if creds, ok, _ := c.store.Load(); ok {
		req.Header.Set("Authorization", "Bearer "+creds.AccessToken)
	}
	return req, nil
}

// do выполняет запрос и декодирует JSON-ответ в out (nil — тело не нужно).
// Ошибки сервера приходят как {"error":{"code","text"}} и мапятся в Kind.
func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return errNetwork("request failed").WithCause(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return decodeError(resp)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errNetwork("malformed response body").WithCause(err)
	}
	return nil
}

func (c *Client) doJSON(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	contentType := ""
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return errNetwork("encode request").WithCause(err)
		}
		body = bytes.NewReader(raw)
		contentType = "application/json"
	}
	req, err := c.newRequest(ctx, method, path, body, contentType)
	if err != nil {
		return err
	}
	return c.do(req, out)
}

// doForm — POST с form-urlencoded телом; так ходят только auth-ручки,
// остальной контракт — JSON.
func (c *Client) doForm(ctx context.Context, path string, form url.Values, out any) error {
	req, err := c.newRequest(ctx, http.MethodPost, path, strings.NewReader(form.Encode()), "application/x-www-form-urlencoded")
	if err != nil {
		return err
	}
	return c.do(req, out)
}

func decodeError(resp *http.Response) error {
	var wire struct {
		Error struct {
			Code string `json:"code"`
			Text string `json:"text"`
		} `json:"error"`
	}
	msg := resp.Status
	code := ""
	if err := json.NewDecoder(resp.Body).Decode(&wire); err == nil && wire.Error.Code != "" {
		code, msg = wire.Error.Code, wire.Error.Text
	}
	return &APIError{
		Kind:   kindForStatus(resp.StatusCode),
		Status: resp.StatusCode,
		Code:   code,
		msg:    msg,
	}
}

// --- auth ---

func (c *Client) Login(ctx context.Context, username, password string) (AuthResult, error) {
	if strings.TrimSpace(username) == "" || password == "" {
		return AuthResult{}, errValidation("username and password are required")
	}
	var out AuthResult
	form := url.Values{"username": {username}, "password": {password}}
	if err := c.doForm(ctx, "/api/auth/login", form, &out); err != nil {
		return AuthResult{}, err
	}
	return out, nil
}

func (c *Client) Register(ctx context.Context, username, email, password string) (AuthResult, error) {
	if strings.TrimSpace(username) == "" || strings.TrimSpace(email) == "" || password == "" {
		return AuthResult{}, errValidation("username, email and password are required")
	}
	var out AuthResult
	form := url.Values{"username": {username}, "email": {email}, "password": {password}}
	if err := c.doForm(ctx, "/api/auth/register", form, &out); err != nil {
		return AuthResult{}, err
	}
	return out, nil
}

func (c *Client) Logout(ctx context.Context) error {
	return c.doJSON(ctx, http.MethodDelete, "/api/auth/logout", nil, nil)
}

func (c *Client) Me(ctx context.Context) (User, error) {
	var out User
	if err := c.doJSON(ctx, http.MethodGet, "/api/auth/user/me", nil, &out); err != nil {
		return User{}, err
	}
	return out, nil
}

// --- feeds ---

type feedList struct {
	Feeds []Feed `json:"feeds"`
	Total int    `json:"total"`
}

func (c *Client) Feeds(ctx context.Context) ([]Feed, error) {
	var out feedList
	if err := c.doJSON(ctx, http.MethodGet, "/api/feeds", nil, &out); err != nil {
		return nil, err
	}
	return out.Feeds, nil
}

func (c *Client) SearchFeeds(ctx context.Context, query string) ([]Feed, error) {
	if strings.TrimSpace(query) == "" {
		return nil, errValidation("search query is empty")
	}
	var out feedList
	path := "/api/feeds/search?q=" + url.QueryEscape(query)
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out.Feeds, nil
}

var pdfMagic = []byte("%PDF-")

// UploadFeed валидирует вход до единого байта в сети: файл обязателен,
// заголовок непуст, контент начинается с PDF-сигнатуры.
func (c *Client) UploadFeed(ctx context.Context, title, description, filename string, content io.Reader) (Feed, error) {
	if strings.TrimSpace(title) == "" {
		return Feed{}, errValidation("title is required")
	}
	if content == nil {
		return Feed{}, errValidation("file is required")
	}
	buf := bufio.NewReader(content)
	head, err := buf.Peek(len(pdfMagic))
	if err != nil || !bytes.Equal(head, pdfMagic) {
		return Feed{}, errValidation("file is not a PDF")
	}

	pr, pw := io.Pipe()
	mp := multipart.NewWriter(pw)
	go func() {
		part, err := mp.CreateFormFile("file", filename)
		if err == nil {
			_, err = io.Copy(part, buf)
		}
		if err == nil {
			err = mp.WriteField("title", title)
		}
		if err == nil && description != "" {
			err = mp.WriteField("description", description)
		}
		if err == nil {
			err = mp.Close()
		}
		pw.CloseWithError(err)
	}()

	req, err := c.newRequest(ctx, http.MethodPost, "/api/feeds", pr, mp.FormDataContentType())
	if err != nil {
		return Feed{}, err
	}
	var out Feed
	if err := c.do(req, &out); err != nil {
		return Feed{}, err
	}
	return out, nil
}

func (c *Client) Feed(ctx context.Context, id int64) (Feed, error) {
	var out Feed
	if err := c.doJSON(ctx, http.MethodGet, "/api/feeds/"+strconv.FormatInt(id, 10), nil, &out); err != nil {
		return Feed{}, err
	}
	return out, nil
}

// DownloadFeed возвращает поток контента; закрыть его — забота вызывающего.
func (c *Client) DownloadFeed(ctx context.Context, id int64) (io.ReadCloser, string, error) {
	return c.download(ctx, "/api/feeds/"+strconv.FormatInt(id, 10)+"/download")
}

func (c *Client) download(ctx context.Context, path string) (io.ReadCloser, string, error) {
	req, err := c.newRequest(ctx, http.MethodGet, path, nil, "")
	if err != nil {
		return nil, "", err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, "", errNetwork("request failed").WithCause(err)
	}
	if resp.StatusCode >= 400 {
		defer resp.Body.Close()
		return nil, "", decodeError(resp)
	}
	return resp.Body, resp.Header.Get("Content-Type"), nil
}

func (c *Client) DeleteFeed(ctx context.Context, id int64) error {
	return c.doJSON(ctx, http.MethodDelete, "/api/feeds/"+strconv.FormatInt(id, 10), nil, nil)
}

// --- public shares ---

func (c *Client) CreatePublicShare(ctx context.Context, feedID int64, expiresInDays int) (PublicShare, error) {
	if expiresInDays < 0 {
		return PublicShare{}, errValidation("expires_in_days must not be negative")
	}
	var out PublicShare
	in := map[string]any{"feed_id": feedID, "expires_in_days": expiresInDays}
	if err := c.doJSON(ctx, http.MethodPost, "/api/share/public", in, &out); err != nil {
		return PublicShare{}, err
	}
	return out, nil
}

func (c *Client) ResolveShare(ctx context.Context, token string) (SharedFeed, error) {
	var out SharedFeed
	if err := c.doJSON(ctx, http.MethodGet, "/api/share/public/"+url.PathEscape(token), nil, &out); err != nil {
		return SharedFeed{}, err
	}
	return out, nil
}

func (c *Client) DownloadShared(ctx context.Context, token string) (io.ReadCloser, string, error) {
	return c.download(ctx, "/api/share/public/"+url.PathEscape(token)+"/download")
}

type commentList struct {
	Comments []Comment `json:"comments"`
	Total    int       `json:"total"`
}

func (c *Client) ShareComments(ctx context.Context, token string) ([]Comment, error) {
	var out commentList
	path := "/api/share/public/" + url.PathEscape(token) + "/comments"
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out.Comments, nil
}

// PostShareComment — комментарий по публичной ссылке. commenterName
// обязателен только для анонимов: если в хранилище есть сессия,
// сервер возьмёт автора из неё.
func (c *Client) PostShareComment(ctx context.Context, token, body, commenterName string) (Comment, error) {
	if strings.TrimSpace(body) == "" {
		return Comment{}, errValidation("comment body is empty")
	}
	if _, ok, _ := c.store.Load(); !ok && strings.TrimSpace(commenterName) == "" {
		return Comment{}, errValidation("commenter name is required for anonymous comments")
	}
	var out Comment
	in := map[string]string{"comment_body": body, "commenter_name": commenterName}
	path := "/api/share/public/" + url.PathEscape(token) + "/comments"
	if err := c.doJSON(ctx, http.MethodPost, path, in, &out); err != nil {
		return Comment{}, err
	}
	return out, nil
}

// --- user shares ---

func (c *Client) ShareWithUser(ctx context.Context, feedID int64, email string) (UserShare, error) {
	if strings.TrimSpace(email) == "" {
		return UserShare{}, errValidation("recipient email is required")
	}
	var out UserShare
	in := map[string]any{"feed_id": feedID, "email": email}
	if err := c.doJSON(ctx, http.MethodPost, "/api/share/user", in, &out); err != nil {
		return UserShare{}, err
	}
	return out, nil
}

func (c *Client) SharedWithMe(ctx context.Context) ([]Feed, error) {
	var out feedList
	if err := c.doJSON(ctx, http.MethodGet, "/api/share/user", nil, &out); err != nil {
		return nil, err
	}
	return out.Feeds, nil
}

func (c *Client) RevokeUserShare(ctx context.Context, shareID int64) error {
	return c.doJSON(ctx, http.MethodDelete, "/api/share/user/"+strconv.FormatInt(shareID, 10), nil, nil)
}

type shareList struct {
	Shares []UserShare `json:"shares"`
	Total  int         `json:"total"`
}

func (c *Client) FeedGrantees(ctx context.Context, feedID int64) ([]UserShare, error) {
	var out shareList
	path := "/api/share/user/feed/" + strconv.FormatInt(feedID, 10)
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out.Shares, nil
}

// --- comments ---

func (c *Client) Comments(ctx context.Context, feedID int64) ([]Comment, error) {
	var out commentList
	path := fmt.Sprintf("/api/comments?feed_id=%d", feedID)
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out.Comments, nil
}

func (c *Client) PostComment(ctx context.Context, feedID int64, body string) (Comment, error) {
	if strings.TrimSpace(body) == "" {
		return Comment{}, errValidation("comment body is empty")
	}
	var out Comment
	in := map[string]any{"feed_id": feedID, "comment_body": body}
	if err := c.doJSON(ctx, http.MethodPost, "/api/comments", in, &out); err != nil {
		return Comment{}, err
	}
	return out, nil
}
