package auth

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/olgasafonova/igdb-mcp-server/internal/base"
	apierrors "github.com/olgasafonova/igdb-mcp-server/internal/errors"
)

// fakeClock is a settable time source
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// tokenServer is a stand-in for the Twitch token endpoint
type tokenServer struct {
	*httptest.Server
	calls     atomic.Int32
	expiresIn int64
	status    atomic.Int32
	body      string
	delay     time.Duration
	lastQuery atomic.Value
}

func newTokenServer(t *testing.T) *tokenServer {
	t.Helper()
	ts := &tokenServer{expiresIn: 3600}
	ts.status.Store(http.StatusOK)
	ts.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := ts.calls.Add(1)
		ts.lastQuery.Store(r.URL.Query())
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if ts.delay > 0 {
			time.Sleep(ts.delay)
		}
		if status := int(ts.status.Load()); status != http.StatusOK {
			w.WriteHeader(status)
			_, _ = w.Write([]byte(ts.body))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = fmt.Fprintf(w, `{"access_token":"token-%d","expires_in":%d,"token_type":"bearer"}`, n, ts.expiresIn)
	}))
	t.Cleanup(ts.Close)
	return ts
}

func newTestManager(ts *tokenServer, clock *fakeClock) *TokenManager {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	httpClient := base.NewClient(base.WithLogger(logger))
	return NewTokenManager(httpClient, "my-client", "my-secret",
		WithTokenURL(ts.URL+"/oauth2/token"),
		WithClock(clock.Now),
	)
}

func TestCredential_Valid(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		cred Credential
		want bool
	}{
		{"far from expiry", Credential{Token: "t", ExpiresAt: now.Add(time.Hour)}, true},
		{"just outside margin", Credential{Token: "t", ExpiresAt: now.Add(ExpiryMargin + time.Millisecond)}, true},
		{"exactly at margin", Credential{Token: "t", ExpiresAt: now.Add(ExpiryMargin)}, false},
		{"inside margin", Credential{Token: "t", ExpiresAt: now.Add(4 * time.Minute)}, false},
		{"already expired", Credential{Token: "t", ExpiresAt: now.Add(-time.Minute)}, false},
		{"empty token", Credential{ExpiresAt: now.Add(time.Hour)}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.cred.Valid(now); got != tt.want {
				t.Errorf("Valid() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEnsureToken_FirstCallRequestsToken(t *testing.T) {
	ts := newTokenServer(t)
	clock := &fakeClock{now: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
	m := newTestManager(ts, clock)

	token, err := m.EnsureToken(context.Background())
	if err != nil {
		t.Fatalf("EnsureToken failed: %v", err)
	}
	if token != "token-1" {
		t.Errorf("token = %q, want token-1", token)
	}
	if n := ts.calls.Load(); n != 1 {
		t.Errorf("token endpoint called %d times, want 1", n)
	}

	cred, ok := m.Credential()
	if !ok {
		t.Fatal("expected cached credential")
	}
	wantExpiry := clock.Now().Add(3600 * time.Second)
	if !cred.ExpiresAt.Equal(wantExpiry) {
		t.Errorf("ExpiresAt = %v, want %v", cred.ExpiresAt, wantExpiry)
	}
}

func TestEnsureToken_SendsGrantParameters(t *testing.T) {
	ts := newTokenServer(t)
	clock := &fakeClock{now: time.Now()}
	m := newTestManager(ts, clock)

	if _, err := m.EnsureToken(context.Background()); err != nil {
		t.Fatalf("EnsureToken failed: %v", err)
	}

	q, _ := ts.lastQuery.Load().(url.Values)
	want := map[string]string{
		"client_id":     "my-client",
		"client_secret": "my-secret",
		"grant_type":    "client_credentials",
	}
	for k, v := range want {
		if got := q[k]; len(got) != 1 || got[0] != v {
			t.Errorf("query %s = %v, want %q", k, got, v)
		}
	}
}

func TestEnsureToken_CacheHitMakesNoRequest(t *testing.T) {
	ts := newTokenServer(t)
	clock := &fakeClock{now: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
	m := newTestManager(ts, clock)

	first, err := m.EnsureToken(context.Background())
	if err != nil {
		t.Fatalf("EnsureToken failed: %v", err)
	}

	// 54 minutes later the token still has 6 minutes left, outside the margin
	clock.Advance(54 * time.Minute)

	for range 5 {
		token, err := m.EnsureToken(context.Background())
		if err != nil {
			t.Fatalf("EnsureToken failed: %v", err)
		}
		if token != first {
			t.Errorf("token = %q, want cached %q", token, first)
		}
	}

	if n := ts.calls.Load(); n != 1 {
		t.Errorf("token endpoint called %d times, want 1", n)
	}
}

func TestEnsureToken_RefreshesInsideMargin(t *testing.T) {
	ts := newTokenServer(t)
	clock := &fakeClock{now: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
	m := newTestManager(ts, clock)

	if _, err := m.EnsureToken(context.Background()); err != nil {
		t.Fatalf("EnsureToken failed: %v", err)
	}

	// 56 minutes later only 4 minutes remain: inside the 5 minute margin
	clock.Advance(56 * time.Minute)

	token, err := m.EnsureToken(context.Background())
	if err != nil {
		t.Fatalf("EnsureToken failed: %v", err)
	}
	if token != "token-2" {
		t.Errorf("token = %q, want token-2", token)
	}
	if n := ts.calls.Load(); n != 2 {
		t.Errorf("token endpoint called %d times, want exactly 2", n)
	}
}

func TestEnsureToken_RefreshesAfterExpiry(t *testing.T) {
	ts := newTokenServer(t)
	clock := &fakeClock{now: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
	m := newTestManager(ts, clock)

	if _, err := m.EnsureToken(context.Background()); err != nil {
		t.Fatalf("EnsureToken failed: %v", err)
	}
	clock.Advance(2 * time.Hour)

	if _, err := m.EnsureToken(context.Background()); err != nil {
		t.Fatalf("EnsureToken failed: %v", err)
	}
	if n := ts.calls.Load(); n != 2 {
		t.Errorf("token endpoint called %d times, want 2", n)
	}
}

func TestEnsureToken_ShortLivedTokenIsNeverCached(t *testing.T) {
	ts := newTokenServer(t)
	ts.expiresIn = 200 // shorter than the margin
	clock := &fakeClock{now: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
	m := newTestManager(ts, clock)

	for range 3 {
		if _, err := m.EnsureToken(context.Background()); err != nil {
			t.Fatalf("EnsureToken failed: %v", err)
		}
	}
	if n := ts.calls.Load(); n != 3 {
		t.Errorf("token endpoint called %d times, want 3", n)
	}
}

func TestEnsureToken_AuthenticationError(t *testing.T) {
	ts := newTokenServer(t)
	ts.status.Store(http.StatusUnauthorized)
	ts.body = `"invalid_client"`
	clock := &fakeClock{now: time.Now()}
	m := newTestManager(ts, clock)

	_, err := m.EnsureToken(context.Background())
	if err == nil {
		t.Fatal("expected error")
	}
	if !apierrors.IsAuthentication(err) {
		t.Errorf("expected AuthenticationError, got %T: %v", err, err)
	}
	msg := err.Error()
	if !strings.Contains(msg, "401") || !strings.Contains(msg, "invalid_client") {
		t.Errorf("message %q should contain 401 and invalid_client", msg)
	}
	if _, ok := m.Credential(); ok {
		t.Error("no credential should be cached after a failed refresh")
	}
}

func TestEnsureToken_FailureDoesNotPoisonLaterCalls(t *testing.T) {
	ts := newTokenServer(t)
	ts.status.Store(http.StatusBadRequest)
	ts.body = `{"status":400,"message":"invalid client secret"}`
	clock := &fakeClock{now: time.Now()}
	m := newTestManager(ts, clock)

	if _, err := m.EnsureToken(context.Background()); err == nil {
		t.Fatal("expected error")
	}

	ts.status.Store(http.StatusOK)
	token, err := m.EnsureToken(context.Background())
	if err != nil {
		t.Fatalf("EnsureToken failed after recovery: %v", err)
	}
	if token != "token-2" {
		t.Errorf("token = %q, want token-2", token)
	}
}

func TestEnsureToken_MalformedResponse(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"not json", `<html>oops</html>`},
		{"missing access token", `{"expires_in":3600,"token_type":"bearer"}`},
		{"wrong type", `{"access_token":42,"expires_in":3600}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			m := NewTokenManager(base.NewClient(), "id", "secret", WithTokenURL(server.URL))

			_, err := m.EnsureToken(context.Background())
			if !apierrors.IsDeserialization(err) {
				t.Errorf("expected DeserializationError, got %T: %v", err, err)
			}
			if _, ok := m.Credential(); ok {
				t.Error("no credential should be cached")
			}
		})
	}
}

func TestEnsureToken_ConcurrentCallersShareOneRefresh(t *testing.T) {
	ts := newTokenServer(t)
	ts.delay = 100 * time.Millisecond
	clock := &fakeClock{now: time.Now()}
	m := newTestManager(ts, clock)

	var wg sync.WaitGroup
	tokens := make([]string, 10)
	for i := range tokens {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			tok, err := m.EnsureToken(context.Background())
			if err != nil {
				t.Errorf("EnsureToken failed: %v", err)
			}
			tokens[i] = tok
		}(i)
	}
	wg.Wait()

	if n := ts.calls.Load(); n != 1 {
		t.Errorf("token endpoint called %d times, want 1", n)
	}
	for i, tok := range tokens {
		if tok != "token-1" {
			t.Errorf("caller %d got %q, want token-1", i, tok)
		}
	}
}

func TestInvalidate(t *testing.T) {
	ts := newTokenServer(t)
	clock := &fakeClock{now: time.Now()}
	m := newTestManager(ts, clock)

	if _, err := m.EnsureToken(context.Background()); err != nil {
		t.Fatalf("EnsureToken failed: %v", err)
	}

	m.Invalidate()
	if _, ok := m.Credential(); ok {
		t.Error("credential should be gone after Invalidate")
	}

	token, err := m.EnsureToken(context.Background())
	if err != nil {
		t.Fatalf("EnsureToken failed: %v", err)
	}
	if token != "token-2" {
		t.Errorf("token = %q, want token-2", token)
	}
}

func TestEnsureToken_CanceledContext(t *testing.T) {
	ts := newTokenServer(t)
	clock := &fakeClock{now: time.Now()}
	m := newTestManager(ts, clock)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := m.EnsureToken(ctx); err == nil {
		t.Fatal("expected error for canceled context")
	}
	if n := ts.calls.Load(); n != 0 {
		t.Errorf("token endpoint called %d times, want 0", n)
	}
}

func TestStatus(t *testing.T) {
	ts := newTokenServer(t)
	ts.delay = 200 * time.Millisecond
	clock := &fakeClock{now: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
	m := newTestManager(ts, clock)

	if st := m.Status(); st.Cached || st.Valid || st.RefreshInFlight {
		t.Errorf("initial status = %+v, want zero", st)
	}

	done := make(chan error, 1)
	go func() {
		_, err := m.EnsureToken(context.Background())
		done <- err
	}()

	deadline := time.Now().Add(2 * time.Second)
	for ts.calls.Load() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if st := m.Status(); !st.RefreshInFlight {
		t.Errorf("status during refresh = %+v, want refresh in flight", st)
	}

	if err := <-done; err != nil {
		t.Fatalf("EnsureToken failed: %v", err)
	}

	st := m.Status()
	if !st.Cached || !st.Valid || st.RefreshInFlight {
		t.Errorf("status after refresh = %+v", st)
	}
	if want := clock.Now().Add(time.Hour); !st.ExpiresAt.Equal(want) {
		t.Errorf("ExpiresAt = %v, want %v", st.ExpiresAt, want)
	}

	clock.Advance(56 * time.Minute)
	if st := m.Status(); !st.Cached || st.Valid {
		t.Errorf("status inside the margin = %+v, want cached but not valid", st)
	}
}
