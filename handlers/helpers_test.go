package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"viral-event-system/attribution"
	"viral-event-system/handlers"
	"viral-event-system/middleware"
	"viral-event-system/services"
	"viral-event-system/store"
	"viral-event-system/testutil"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const (
	jwtSecret    = "handler-test-secret"
	serviceToken = "internal-token"
)

type fakeIdentity struct {
	users map[string]services.IdentityUser // by email
	// pending emails sign up without a session
	pending  map[string]bool
	signOuts int
}

func (f *fakeIdentity) SignUp(_ context.Context, email, _ string) (*services.Session, error) {
	user := services.IdentityUser{ID: "user-" + email, Email: email}
	f.users[email] = user
	if f.pending[email] {
		return &services.Session{User: user}, nil
	}
	return &services.Session{AccessToken: "token-" + email, User: user}, nil
}

func (f *fakeIdentity) SignIn(_ context.Context, email, password string) (*services.Session, error) {
	user, ok := f.users[email]
	if !ok || password != "password" {
		return nil, &services.IdentityError{Status: http.StatusBadRequest, Message: "Invalid login credentials"}
	}
	return &services.Session{AccessToken: "token-" + email, User: user}, nil
}

func (f *fakeIdentity) SignOut(context.Context, string) error {
	f.signOuts++
	return nil
}

type sentMail struct {
	To, EventName, Link string
}

type fakeMailer struct {
	mu   sync.Mutex
	sent []sentMail
	err  error
}

func (m *fakeMailer) SendInvite(_ context.Context, to, eventName, link string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, sentMail{To: to, EventName: eventName, Link: link})
	return nil
}

type capturedEvent struct {
	DistinctID string
	Event      string
	Props      map[string]interface{}
}

// recordingCapturer keeps what it is given without copying, like a queueing client.
type recordingCapturer struct {
	mu       sync.Mutex
	events   []string
	captured []capturedEvent
}

func (r *recordingCapturer) Capture(distinctID, event string, props map[string]interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	r.captured = append(r.captured, capturedEvent{DistinctID: distinctID, Event: event, Props: props})
}

func (r *recordingCapturer) named(event string) []capturedEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []capturedEvent
	for _, ce := range r.captured {
		if ce.Event == event {
			out = append(out, ce)
		}
	}
	return out
}

func (r *recordingCapturer) Close() error { return nil }

func (r *recordingCapturer) names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.events...)
}

type fakeUploader struct {
	keys []string
}

func (u *fakeUploader) Upload(_ context.Context, _ *multipart.FileHeader, key string) (string, error) {
	u.keys = append(u.keys, key)
	return "https://cdn.example.com/" + key, nil
}

type testEnv struct {
	t        *testing.T
	app      *fiber.App
	st       *store.Store
	db       *gorm.DB
	identity *fakeIdentity
	mailer   *fakeMailer
	capture  *recordingCapturer
	events   *services.EventService
}

func newEnv(t *testing.T) *testEnv {
	t.Helper()
	st, db := testutil.OpenStore(t)
	env := &testEnv{
		t:        t,
		st:       st,
		db:       db,
		identity: &fakeIdentity{users: map[string]services.IdentityUser{}, pending: map[string]bool{}},
		mailer:   &fakeMailer{},
		capture:  &recordingCapturer{},
	}

	recorder := attribution.NewRecorder(st.Invites, st.Referrals)
	verifier := middleware.NewTokenVerifier(jwtSecret)

	authService := services.NewAuthService(env.identity, env.capture)
	authService.OnSignedIn(services.AttributeSignup(recorder))
	env.events = services.NewEventService(st, recorder, nil, env.capture)
	inviteService := services.NewInviteService(st, env.mailer, env.capture, "https://app.example.com")
	mailService := services.NewMailService(env.mailer, env.capture)
	analyticsService := services.NewAnalyticsService(attribution.NewAggregator(st.Invites, st.Referrals), st, env.capture)

	app := fiber.New()
	app.Use(middleware.Visitor(false))
	handlers.SetupAuthRoutes(app, authService, verifier)
	handlers.SetupEventRoutes(app, env.events, inviteService, verifier)
	handlers.SetupInviteRoutes(app, inviteService, mailService, verifier)
	handlers.SetupAnalyticsRoutes(app, analyticsService, verifier, serviceToken)
	env.app = app
	return env
}

func (e *testEnv) token(userID string) string {
	return testutil.SignToken(e.t, jwtSecret, userID, userID+"@example.com", time.Hour)
}

// browser keeps a cookie jar and an optional access token, like one visitor's tab.
type browser struct {
	env     *testEnv
	token   string
	cookies map[string]*http.Cookie
}

func (e *testEnv) browser(userID string) *browser {
	b := &browser{env: e, cookies: map[string]*http.Cookie{}}
	if userID != "" {
		b.token = e.token(userID)
	}
	return b
}

type response struct {
	Status int
	Body   []byte
	Header http.Header
}

func (r response) decode(t *testing.T, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(r.Body, v), string(r.Body))
}

func (b *browser) send(req *http.Request) response {
	b.env.t.Helper()
	if b.token != "" {
		req.Header.Set("Authorization", "Bearer "+b.token)
	}
	for _, ck := range b.cookies {
		req.AddCookie(ck)
	}
	resp, err := b.env.app.Test(req, -1)
	require.NoError(b.env.t, err)
	for _, ck := range resp.Cookies() {
		b.cookies[ck.Name] = ck
	}
	body, _ := io.ReadAll(resp.Body)
	return response{Status: resp.StatusCode, Body: body, Header: resp.Header}
}

func (b *browser) get(path string) response {
	return b.send(httptest.NewRequest(http.MethodGet, path, nil))
}

func (b *browser) postJSON(path string, body interface{}) response {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	return b.send(req)
}

func (b *browser) postForm(path string, form url.Values) response {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", fiber.MIMEApplicationForm)
	return b.send(req)
}

func (b *browser) cookie(name string) string {
	if ck, ok := b.cookies[name]; ok {
		return ck.Value
	}
	return ""
}
