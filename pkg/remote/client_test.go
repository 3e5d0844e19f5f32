package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/angelmondragon/shipquote-backend/pkg/config"
	"github.com/angelmondragon/shipquote-backend/pkg/logger"
	redisclient "github.com/angelmondragon/shipquote-backend/pkg/redis"
)

type fakeTokenCache struct {
	values map[string]string
	ttls   map[string]time.Duration
}

func newFakeTokenCache() *fakeTokenCache {
	return &fakeTokenCache{values: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (f *fakeTokenCache) Get(_ context.Context, key string) (string, error) {
	value, ok := f.values[key]
	if !ok {
		return "", redisclient.Nil
	}
	return value, nil
}

func (f *fakeTokenCache) Set(_ context.Context, key string, value any, ttl time.Duration) error {
	f.values[key] = fmt.Sprint(value)
	f.ttls[key] = ttl
	return nil
}

func (f *fakeTokenCache) Del(_ context.Context, keys ...string) error {
	for _, key := range keys {
		delete(f.values, key)
	}
	return nil
}

func (f *fakeTokenCache) AccessTokenKey() string { return "access_token" }

func signedToken(t *testing.T, expiresAt time.Time) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	})
	signed, err := token.SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("signing token: %v", err)
	}
	return signed
}

type exchangeServer struct {
	*httptest.Server
	exchanges int
	token     string
}

// newExchangeServer serves the token exchange plus a caller-provided
// handler for everything else.
func newExchangeServer(t *testing.T, handler http.HandlerFunc) *exchangeServer {
	t.Helper()
	s := &exchangeServer{token: signedToken(t, time.Now().Add(time.Hour))}
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, tokenExchangePath) {
			s.exchanges++
			var body map[string]string
			if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
				t.Errorf("decoding exchange body: %v", err)
			}
			if body["id"] != "sid" || body["secret"] != "skey" {
				t.Errorf("exchange credentials = %v", body)
			}
			if r.Header.Get("Authorization") != "" {
				t.Error("token exchange must not carry an Authorization header")
			}
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(map[string]string{"token": s.token})
			return
		}
		if handler != nil {
			handler(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	t.Cleanup(s.Close)
	return s
}

func newTestClient(t *testing.T, server *exchangeServer, cache TokenCache) *Client {
	t.Helper()
	client, err := NewClient(config.RemoteConfig{
		APIURL:          server.URL,
		SecretID:        "sid",
		SecretKey:       "skey",
		RequestTimeout:  2 * time.Second,
		TokenTTL:        time.Hour,
		TokenSkewMargin: 5 * time.Minute,
	}, cache, "tenant-1",
		logger.New(logger.Options{ServiceName: "test", Output: io.Discard}), nil)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return client
}

func TestAccessTokenExchangesOnEmptyCache(t *testing.T) {
	server := newExchangeServer(t, nil)
	cache := newFakeTokenCache()
	client := newTestClient(t, server, cache)

	token, err := client.AccessToken(context.Background())
	if err != nil {
		t.Fatalf("AccessToken: %v", err)
	}
	if token != server.token {
		t.Fatal("exchange token not returned")
	}
	if server.exchanges != 1 {
		t.Fatalf("exchanges = %d, want 1", server.exchanges)
	}
	if cache.values["access_token"] != server.token {
		t.Fatal("minted token must be cached")
	}
	if cache.ttls["access_token"] != time.Hour {
		t.Fatalf("token cached with ttl %v, want 1h", cache.ttls["access_token"])
	}
}

func TestAccessTokenReusesCachedToken(t *testing.T) {
	server := newExchangeServer(t, nil)
	cache := newFakeTokenCache()
	cache.values["access_token"] = signedToken(t, time.Now().Add(time.Hour))
	client := newTestClient(t, server, cache)

	if _, err := client.AccessToken(context.Background()); err != nil {
		t.Fatalf("AccessToken: %v", err)
	}
	if server.exchanges != 0 {
		t.Fatalf("exchanges = %d, want 0 for a fresh cached token", server.exchanges)
	}
}

func TestAccessTokenRefreshesInsideSkewMargin(t *testing.T) {
	server := newExchangeServer(t, nil)
	cache := newFakeTokenCache()
	// Expires in two minutes, inside the five-minute margin.
	cache.values["access_token"] = signedToken(t, time.Now().Add(2*time.Minute))
	client := newTestClient(t, server, cache)

	if _, err := client.AccessToken(context.Background()); err != nil {
		t.Fatalf("AccessToken: %v", err)
	}
	if server.exchanges != 1 {
		t.Fatalf("exchanges = %d, want 1 for a near-expiry token", server.exchanges)
	}
}

func TestAccessTokenUndecodableTreatedAsExpired(t *testing.T) {
	server := newExchangeServer(t, nil)
	cache := newFakeTokenCache()
	cache.values["access_token"] = "not-a-jwt"
	client := newTestClient(t, server, cache)

	token, err := client.AccessToken(context.Background())
	if err != nil {
		t.Fatalf("AccessToken: %v", err)
	}
	if token != server.token || server.exchanges != 1 {
		t.Fatalf("garbage token must trigger an exchange; exchanges = %d", server.exchanges)
	}
}

func TestUnauthorizedRetriesExactlyOnce(t *testing.T) {
	var protectedCalls int
	server := newExchangeServer(t, func(w http.ResponseWriter, _ *http.Request) {
		protectedCalls++
		w.WriteHeader(http.StatusUnauthorized)
	})
	cache := newFakeTokenCache()
	cache.values["access_token"] = signedToken(t, time.Now().Add(time.Hour))
	client := newTestClient(t, server, cache)

	_, err := client.Post(context.Background(), server.URL+"/shipping/quotes", map[string]string{})
	if err == nil {
		t.Fatal("expected an error after the replay also fails")
	}
	if protectedCalls != 2 {
		t.Fatalf("protectedCalls = %d, want exactly 2 (original plus one replay)", protectedCalls)
	}
	if server.exchanges != 1 {
		t.Fatalf("exchanges = %d, want 1", server.exchanges)
	}
}

func TestUnauthorizedReplaySucceedsWithFreshToken(t *testing.T) {
	var protectedCalls int
	server := newExchangeServer(t, func(w http.ResponseWriter, r *http.Request) {
		protectedCalls++
		if protectedCalls == 1 {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok":true}`))
	})
	cache := newFakeTokenCache()
	cache.values["access_token"] = signedToken(t, time.Now().Add(time.Hour))
	client := newTestClient(t, server, cache)

	resp, err := client.Post(context.Background(), server.URL+"/shipping/quotes", map[string]string{})
	if err != nil {
		t.Fatalf("Post: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("StatusCode = %d", resp.StatusCode)
	}
	if protectedCalls != 2 || server.exchanges != 1 {
		t.Fatalf("calls/exchanges = %d/%d, want 2/1", protectedCalls, server.exchanges)
	}
}

func TestGetBodyBecomesQueryArgs(t *testing.T) {
	var gotQuery string
	var gotTenant string
	var gotAuth string
	server := newExchangeServer(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("postcode")
		gotTenant = r.Header.Get("instanceId")
		gotAuth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{}`))
	})
	cache := newFakeTokenCache()
	token := signedToken(t, time.Now().Add(time.Hour))
	cache.values["access_token"] = token
	client := newTestClient(t, server, cache)

	_, err := client.Get(context.Background(), server.URL+"/lookup", map[string]string{"postcode": "2000"})
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if gotQuery != "2000" {
		t.Fatalf("postcode query arg = %q", gotQuery)
	}
	if gotTenant != "tenant-1" {
		t.Fatalf("instanceId header = %q", gotTenant)
	}
	if gotAuth != token {
		t.Fatalf("Authorization header = %q", gotAuth)
	}
}

func TestNonJSONResponseIsNotDecoded(t *testing.T) {
	server := newExchangeServer(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte("<html>maintenance</html>"))
	})
	cache := newFakeTokenCache()
	cache.values["access_token"] = signedToken(t, time.Now().Add(time.Hour))
	client := newTestClient(t, server, cache)

	resp, err := client.Get(context.Background(), server.URL+"/status", nil)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if resp.IsJSON {
		t.Fatal("HTML response flagged as JSON")
	}
	var target map[string]any
	if err := resp.Decode(&target); err == nil {
		t.Fatal("Decode must refuse non-JSON bodies")
	}
}

func TestNewClientRequiresCredentials(t *testing.T) {
	_, err := NewClient(config.RemoteConfig{SecretID: " "}, newFakeTokenCache(), "t",
		logger.New(logger.Options{ServiceName: "test", Output: io.Discard}), nil)
	if err == nil {
		t.Fatal("expected an error for missing credentials")
	}
}
