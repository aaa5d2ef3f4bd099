// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Penwright Contributors

package web_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/samber/oops"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/penwright/penwright/internal/access"
	"github.com/penwright/penwright/internal/auth"
	"github.com/penwright/penwright/internal/blog"
	"github.com/penwright/penwright/internal/observability"
	"github.com/penwright/penwright/internal/web"
	"github.com/penwright/penwright/internal/web/mocks"
)

const testToken = "session-token"

type webFixture struct {
	auth      *mocks.MockAuthService
	blog      *mocks.MockBlogService
	directory *mocks.MockDirectoryService
	metrics   *observability.Metrics
	logs      *bytes.Buffer
	server    *web.Server
}

func newWebFixture(t *testing.T, opts ...func(*web.Config)) *webFixture {
	t.Helper()
	f := &webFixture{
		auth:      mocks.NewMockAuthService(t),
		blog:      mocks.NewMockBlogService(t),
		directory: mocks.NewMockDirectoryService(t),
		metrics:   observability.NewMetrics(prometheus.NewRegistry()),
		logs:      &bytes.Buffer{},
	}
	cfg := web.Config{
		Addr:      "127.0.0.1:0",
		SecretKey: []byte("0123456789abcdef0123"),
		Auth:      f.auth,
		Blog:      f.blog,
		Directory: f.directory,
		Metrics:   f.metrics,
		Logger:    slog.New(slog.NewJSONHandler(f.logs, &slog.HandlerOptions{Level: slog.LevelDebug})),
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	srv, err := web.NewServer(cfg)
	require.NoError(t, err)
	f.server = srv
	return f
}

var member = &auth.Identity{UserID: 2, Email: "a@x.com", FirstName: "Ada", LastName: "Lovelace", Role: auth.RoleMember, SessionID: ulid.Make()}

func (f *webFixture) signedIn(ident *auth.Identity) {
	f.auth.On("Authenticate", mock.Anything, testToken).Return(ident, nil)
}

func (f *webFixture) do(method, target string, form url.Values, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	var req *http.Request
	if form != nil {
		req = httptest.NewRequest(method, target, strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	f.server.Handler().ServeHTTP(rec, req)
	return rec
}

func sessionCookie() *http.Cookie {
	return &http.Cookie{Name: "penwright_session", Value: testToken}
}

func responseCookie(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())
	return body
}

// logEntry returns the first JSON log line whose msg is msg.
func logEntry(t *testing.T, logs *bytes.Buffer, msg string) map[string]any {
	t.Helper()
	for _, line := range bytes.Split(logs.Bytes(), []byte("\n")) {
		if len(line) == 0 {
			continue
		}
		var entry map[string]any
		require.NoError(t, json.Unmarshal(line, &entry))
		if entry["msg"] == msg {
			return entry
		}
	}
	t.Fatalf("no %q log entry in:\n%s", msg, logs.String())
	return nil
}

func loginResult(user *auth.User) *auth.LoginResult {
	return &auth.LoginResult{
		User:    user,
		Session: &auth.Session{ID: ulid.Make(), UserID: user.ID, ExpiresAt: time.Now().Add(time.Hour)},
		Token:   "fresh-token",
	}
}

func TestNewServer_RequiresDependencies(t *testing.T) {
	_, err := web.NewServer(web.Config{})
	require.Error(t, err)

	f := newWebFixture(t)
	_, err = web.NewServer(web.Config{Auth: f.auth, Blog: f.blog, Directory: f.directory, SecretKey: []byte("short")})
	assert.ErrorContains(t, err, "secret key")
}

func TestHome_ListsPosts(t *testing.T) {
	f := newWebFixture(t)
	f.blog.On("ListPosts", mock.Anything).Return([]*blog.Post{{ID: 1, Title: "T1", Date: "March 05, 2026"}}, nil)

	rec := f.do(http.MethodGet, "/", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	posts := body["posts"].([]any)
	require.Len(t, posts, 1)
	assert.Equal(t, "T1", posts[0].(map[string]any)["title"])
	assert.Nil(t, body["current_user"])
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.RequestsTotal.WithLabelValues("GET", "GET /{$}", "2xx")))
}

func TestUnknownRoute(t *testing.T) {
	f := newWebFixture(t)
	rec := f.do(http.MethodGet, "/nope", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRegister(t *testing.T) {
	form := url.Values{"f_name": {"Ada"}, "l_name": {"Lovelace"}, "email": {" a@x.com "}, "password": {"pw123"}}
	wantInput := auth.RegisterInput{FirstName: "Ada", LastName: "Lovelace", Email: "a@x.com", Password: "pw123"}

	t.Run("success logs in and flashes", func(t *testing.T) {
		f := newWebFixture(t)
		f.auth.On("Register", mock.Anything, wantInput, mock.AnythingOfType("auth.ClientInfo")).
			Return(loginResult(&auth.User{ID: 2, Email: "a@x.com"}), nil)

		rec := f.do(http.MethodPost, "/register", form)
		assert.Equal(t, http.StatusSeeOther, rec.Code)
		assert.Equal(t, "/", rec.Header().Get("Location"))

		session := responseCookie(rec, "penwright_session")
		require.NotNil(t, session)
		assert.Equal(t, "fresh-token", session.Value)
		assert.True(t, session.HttpOnly)
		assert.Equal(t, http.SameSiteLaxMode, session.SameSite)

		flash := responseCookie(rec, "penwright_flash")
		require.NotNil(t, flash)
		assert.Equal(t, 600, flash.MaxAge)
		assert.False(t, session.Secure)

		// The next view shows the notice once and clears it.
		f.blog.On("ListPosts", mock.Anything).Return([]*blog.Post{}, nil)
		home := f.do(http.MethodGet, "/", nil, flash)
		flashes := decode(t, home)["flashes"].([]any)
		require.Len(t, flashes, 1)
		assert.Equal(t, "success", flashes[0].(map[string]any)["category"])
		assert.Equal(t, "User registered successfully.", flashes[0].(map[string]any)["message"])
		cleared := responseCookie(home, "penwright_flash")
		require.NotNil(t, cleared)
		assert.Negative(t, cleared.MaxAge)
	})

	t.Run("secure cookies when configured", func(t *testing.T) {
		f := newWebFixture(t, func(c *web.Config) { c.SecureCookies = true })
		f.auth.On("Register", mock.Anything, wantInput, mock.Anything).
			Return(loginResult(&auth.User{ID: 2, Email: "a@x.com"}), nil)

		rec := f.do(http.MethodPost, "/register", form)
		require.Equal(t, http.StatusSeeOther, rec.Code)
		assert.True(t, responseCookie(rec, "penwright_session").Secure)
		assert.True(t, responseCookie(rec, "penwright_flash").Secure)
	})

	t.Run("session records the forwarded client address", func(t *testing.T) {
		f := newWebFixture(t)
		f.auth.On("Register", mock.Anything, wantInput, mock.MatchedBy(func(c auth.ClientInfo) bool {
			return c.IPAddress == "203.0.113.9"
		})).Return(loginResult(&auth.User{ID: 2, Email: "a@x.com"}), nil)

		req := httptest.NewRequest(http.MethodPost, "/register", strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		req.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
		rec := httptest.NewRecorder()
		f.server.Handler().ServeHTTP(rec, req)
		assert.Equal(t, http.StatusSeeOther, rec.Code)
	})

	t.Run("duplicate email redirects to login", func(t *testing.T) {
		f := newWebFixture(t)
		f.auth.On("Register", mock.Anything, wantInput, mock.Anything).
			Return(nil, oops.Code(auth.CodeDuplicateEmail).Errorf("taken"))

		rec := f.do(http.MethodPost, "/register", form)
		assert.Equal(t, http.StatusSeeOther, rec.Code)
		assert.Equal(t, "/login", rec.Header().Get("Location"))
		assert.Nil(t, responseCookie(rec, "penwright_session"))

		f.auth.AssertExpectations(t)
		loginView := f.do(http.MethodGet, "/login", nil, responseCookie(rec, "penwright_flash"))
		flashes := decode(t, loginView)["flashes"].([]any)
		require.Len(t, flashes, 1)
		assert.Equal(t, "User with email (a@x.com) exists.", flashes[0].(map[string]any)["message"])
	})

	t.Run("invalid input is a bad request", func(t *testing.T) {
		f := newWebFixture(t)
		f.auth.On("Register", mock.Anything, mock.Anything, mock.Anything).
			Return(nil, oops.Code(auth.CodeInvalidInput).With("field", "email").Errorf("email is not a valid address"))

		rec := f.do(http.MethodPost, "/register", form)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "email", decode(t, rec)["field"])
	})
}

func TestLogin(t *testing.T) {
	form := url.Values{"email": {"a@x.com"}, "password": {"pw123"}}

	tests := []struct {
		name     string
		err      error
		location string
		message  string
	}{
		{"unknown user", oops.Code(auth.CodeUnknownUser).Errorf("no user"), "/register", "User with email (a@x.com) does not exist. Register user."},
		{"wrong password", oops.Code(auth.CodeWrongPassword).Errorf("bad"), "/login", "Wrong password! Try again."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newWebFixture(t)
			f.auth.On("Login", mock.Anything, "a@x.com", "pw123", mock.Anything).Return(nil, tt.err)

			rec := f.do(http.MethodPost, "/login", form)
			assert.Equal(t, http.StatusSeeOther, rec.Code)
			assert.Equal(t, tt.location, rec.Header().Get("Location"))
			assert.Nil(t, responseCookie(rec, "penwright_session"), "no session on failure")

			view := f.do(http.MethodGet, "/login", nil, responseCookie(rec, "penwright_flash"))
			flashes := decode(t, view)["flashes"].([]any)
			require.Len(t, flashes, 1)
			assert.Equal(t, "danger", flashes[0].(map[string]any)["category"])
			assert.Equal(t, tt.message, flashes[0].(map[string]any)["message"])
		})
	}

	t.Run("success sets the session cookie", func(t *testing.T) {
		f := newWebFixture(t)
		f.auth.On("Login", mock.Anything, "a@x.com", "pw123", mock.Anything).
			Return(loginResult(&auth.User{ID: 2}), nil)

		rec := f.do(http.MethodPost, "/login", form)
		assert.Equal(t, http.StatusSeeOther, rec.Code)
		assert.Equal(t, "/", rec.Header().Get("Location"))
		require.NotNil(t, responseCookie(rec, "penwright_session"))
	})

	t.Run("store failure is a server error", func(t *testing.T) {
		f := newWebFixture(t)
		f.auth.On("Login", mock.Anything, "a@x.com", "pw123", mock.Anything).
			Return(nil, oops.Code("AUTH_SESSION_CREATE_FAILED").Errorf("db down"))

		rec := f.do(http.MethodPost, "/login", form)
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Contains(t, f.logs.String(), "request failed")
	})
}

func TestLogout(t *testing.T) {
	f := newWebFixture(t)
	f.signedIn(member)
	f.auth.On("Logout", mock.Anything, member.SessionID).Return(nil)

	rec := f.do(http.MethodGet, "/logout", nil, sessionCookie())
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	cleared := responseCookie(rec, "penwright_session")
	require.NotNil(t, cleared)
	assert.Negative(t, cleared.MaxAge)
}

func TestExpiredSessionClearsCookie(t *testing.T) {
	f := newWebFixture(t)
	f.auth.On("Authenticate", mock.Anything, testToken).Return(nil, oops.Code(auth.CodeSessionExpired).Errorf("expired"))
	f.blog.On("ListPosts", mock.Anything).Return([]*blog.Post{}, nil)

	rec := f.do(http.MethodGet, "/", nil, sessionCookie())
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Nil(t, decode(t, rec)["current_user"])
	cleared := responseCookie(rec, "penwright_session")
	require.NotNil(t, cleared)
	assert.Negative(t, cleared.MaxAge)
}

func TestShowPost(t *testing.T) {
	t.Run("anonymous is sent to login", func(t *testing.T) {
		f := newWebFixture(t)
		rec := f.do(http.MethodGet, "/post/1", nil)
		assert.Equal(t, http.StatusSeeOther, rec.Code)
		assert.Equal(t, "/login", rec.Header().Get("Location"))
	})

	t.Run("signed in sees post and comments", func(t *testing.T) {
		f := newWebFixture(t)
		f.signedIn(member)
		f.blog.On("GetPost", mock.Anything, int64(1)).Return(&blog.Post{ID: 1, Title: "T1"}, nil)
		f.blog.On("ListComments", mock.Anything, int64(1)).Return([]*blog.Comment{{ID: 3, PostID: 1, Text: "nice", AuthorName: "Ada Lovelace"}}, nil)

		rec := f.do(http.MethodGet, "/post/1", nil, sessionCookie())
		require.Equal(t, http.StatusOK, rec.Code)
		body := decode(t, rec)
		assert.Equal(t, "T1", body["post"].(map[string]any)["title"])
		comments := body["comments"].([]any)
		require.Len(t, comments, 1)
		assert.Equal(t, "nice", comments[0].(map[string]any)["text"])
		assert.Equal(t, "a@x.com", body["current_user"].(map[string]any)["email"])
	})

	t.Run("missing post is 404", func(t *testing.T) {
		f := newWebFixture(t)
		f.signedIn(member)
		f.blog.On("GetPost", mock.Anything, int64(9)).
			Return(nil, oops.Code(blog.CodePostNotFound).Wrap(blog.ErrNotFound))

		rec := f.do(http.MethodGet, "/post/9", nil, sessionCookie())
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, blog.CodePostNotFound, decode(t, rec)["code"])
	})

	t.Run("non-numeric id is 404", func(t *testing.T) {
		f := newWebFixture(t)
		f.signedIn(member)
		rec := f.do(http.MethodGet, "/post/abc", nil, sessionCookie())
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestAddComment(t *testing.T) {
	f := newWebFixture(t)
	f.signedIn(member)
	f.blog.On("AddComment", mock.Anything, int64(1), "<p>nice</p>").Return(&blog.Comment{ID: 3}, nil)

	rec := f.do(http.MethodPost, "/post/1", url.Values{"text": {"<p>nice</p>"}}, sessionCookie())
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/post/1", rec.Header().Get("Location"))

	call := f.blog.Calls[0]
	assert.Equal(t, member, auth.IdentityFrom(call.Arguments.Get(0).(context.Context)))
}

func TestCreatePost(t *testing.T) {
	form := url.Values{"title": {"T1"}, "subtitle": {"S"}, "img_url": {"https://example.com/a.png"}, "body": {"<p>B</p>"}}
	in := blog.PostInput{Title: "T1", Subtitle: "S", ImgURL: "https://example.com/a.png", Body: "<p>B</p>"}

	t.Run("anonymous may create", func(t *testing.T) {
		f := newWebFixture(t)
		f.blog.On("CreatePost", mock.Anything, in).Return(&blog.Post{ID: 1}, nil)

		rec := f.do(http.MethodPost, "/new-post", form)
		assert.Equal(t, http.StatusSeeOther, rec.Code)
		assert.Equal(t, "/", rec.Header().Get("Location"))
	})

	t.Run("duplicate title returns to the form", func(t *testing.T) {
		f := newWebFixture(t)
		f.blog.On("CreatePost", mock.Anything, in).Return(nil, oops.Code(blog.CodeDuplicateTitle).Errorf("dup"))

		rec := f.do(http.MethodPost, "/new-post", form)
		assert.Equal(t, http.StatusSeeOther, rec.Code)
		assert.Equal(t, "/new-post", rec.Header().Get("Location"))
		require.NotNil(t, responseCookie(rec, "penwright_flash"))
	})

	t.Run("validation error names the field", func(t *testing.T) {
		f := newWebFixture(t)
		bad := url.Values{"title": {"T1"}, "subtitle": {"S"}, "img_url": {"/x.png"}, "body": {"B"}}
		f.blog.On("CreatePost", mock.Anything, mock.Anything).Return(nil, (blog.PostInput{Title: "T1", Subtitle: "S", ImgURL: "/x.png", Body: "B"}).Validate())

		rec := f.do(http.MethodPost, "/new-post", bad)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		body := decode(t, rec)
		assert.Equal(t, "img_url", body["field"])
		assert.Equal(t, blog.CodeInvalidInput, body["code"])
	})
}

func TestEditPost(t *testing.T) {
	f := newWebFixture(t)
	f.blog.On("GetPost", mock.Anything, int64(4)).Return(&blog.Post{ID: 4, Title: "Old", Subtitle: "S", ImgURL: "https://example.com/a.png", Body: "B"}, nil)

	rec := f.do(http.MethodGet, "/edit-post/4", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, true, body["is_edit"])
	assert.Equal(t, "Old", body["values"].(map[string]any)["title"])

	in := blog.PostInput{Title: "New", Subtitle: "S", ImgURL: "https://example.com/a.png", Body: "B"}
	f.blog.On("EditPost", mock.Anything, int64(4), in).Return(&blog.Post{ID: 4}, nil)
	rec = f.do(http.MethodPost, "/edit-post/4", url.Values{"title": {"New"}, "subtitle": {"S"}, "img_url": {"https://example.com/a.png"}, "body": {"B"}})
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/post/4", rec.Header().Get("Location"))
}

func TestDeletePost(t *testing.T) {
	t.Run("forbidden", func(t *testing.T) {
		f := newWebFixture(t)
		f.signedIn(member)
		f.blog.On("DeletePost", mock.Anything, int64(4)).
			Return(oops.Code(access.CodeForbidden).Wrap(access.ErrForbidden))

		rec := f.do(http.MethodGet, "/delete/4", nil, sessionCookie())
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("deleted", func(t *testing.T) {
		f := newWebFixture(t)
		f.blog.On("DeletePost", mock.Anything, int64(4)).Return(nil)

		rec := f.do(http.MethodGet, "/delete/4", nil)
		assert.Equal(t, http.StatusSeeOther, rec.Code)
		assert.Equal(t, "/", rec.Header().Get("Location"))
	})

	t.Run("missing", func(t *testing.T) {
		f := newWebFixture(t)
		f.blog.On("DeletePost", mock.Anything, int64(4)).Return(oops.Code(blog.CodePostNotFound).Wrap(blog.ErrNotFound))

		rec := f.do(http.MethodGet, "/delete/4", nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestUsers_OmitsPasswordHashes(t *testing.T) {
	f := newWebFixture(t)
	f.directory.On("ListUsers", mock.Anything).Return([]*auth.User{
		{ID: 1, Email: "admin@x.com", PasswordHash: "scrypt:32768:8:1$salt$abc", Role: auth.RoleAdmin},
	}, nil)

	rec := f.do(http.MethodGet, "/users", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "scrypt")
	users := decode(t, rec)["users"].([]any)
	require.Len(t, users, 1)
	assert.Equal(t, "admin@x.com", users[0].(map[string]any)["email"])
}

func TestPurgeDatabase(t *testing.T) {
	f := newWebFixture(t)
	f.directory.On("PurgeAllUsers", mock.Anything).Return(3, nil)

	rec := f.do(http.MethodGet, "/purge-database", nil)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))
	assert.Contains(t, f.logs.String(), "user directory purged over http")
}

func TestStaticPages(t *testing.T) {
	f := newWebFixture(t)
	for _, page := range []string{"about", "contact"} {
		rec := f.do(http.MethodGet, "/"+page, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, page, decode(t, rec)["page"])
	}
}

func TestPanicRecovery(t *testing.T) {
	f := newWebFixture(t)
	f.blog.On("ListPosts", mock.Anything).Run(func(mock.Arguments) { panic("boom") }).Return(nil, nil)

	rec := f.do(http.MethodGet, "/", nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	entry := logEntry(t, f.logs, "panic serving request")
	assert.Equal(t, "ERROR", entry["level"])
	assert.Contains(t, entry["error"], "boom")
	assert.NotEmpty(t, entry["stack"])
	assert.Equal(t, float64(http.StatusInternalServerError), logEntry(t, f.logs, "http request")["status"])
}

func TestRequestLog(t *testing.T) {
	f := newWebFixture(t)
	f.blog.On("ListPosts", mock.Anything).Return([]*blog.Post{}, nil)

	rec := f.do(http.MethodGet, "/", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	entry := logEntry(t, f.logs, "http request")
	assert.Equal(t, "GET", entry["method"])
	assert.Equal(t, "GET /{$}", entry["route"])
	assert.Equal(t, float64(http.StatusOK), entry["status"])
	assert.NotEmpty(t, entry["request_id"])
}
