package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartcard-app/smartcard/internal/catalog"
	"github.com/smartcard-app/smartcard/internal/common"
	"github.com/smartcard-app/smartcard/internal/deals"
	"github.com/smartcard-app/smartcard/internal/model"
	"github.com/smartcard-app/smartcard/internal/ratelimit"
	"github.com/smartcard-app/smartcard/internal/recommend"
	"github.com/smartcard-app/smartcard/internal/service"
)

// Downtown Chicago, matching the bundled merchant fixtures.
const (
	baseLat = 41.8781
	baseLng = -87.6298
)

type memUserStore struct {
	mu    sync.Mutex
	users map[string]*model.User
}

func newMemUserStore() *memUserStore {
	return &memUserStore{users: make(map[string]*model.User)}
}

func (s *memUserStore) CreateUser(_ context.Context, user *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[user.Email]; ok {
		return common.ErrDuplicateEntry
	}
	copied := *user
	s.users[user.Email] = &copied
	return nil
}

func (s *memUserStore) FindByEmail(_ context.Context, email string) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[email]
	if !ok {
		return nil, common.ErrNotFound
	}
	copied := *user
	copied.Cards = append([]model.Card(nil), user.Cards...)
	copied.GiftCards = append([]model.GiftCard(nil), user.GiftCards...)
	return &copied, nil
}

func (s *memUserStore) ReplaceCards(_ context.Context, email string, cards []model.Card) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[email]
	if !ok {
		return common.ErrNotFound
	}
	user.Cards = append([]model.Card(nil), cards...)
	return nil
}

func (s *memUserStore) ReplaceGiftCards(_ context.Context, email string, giftCards []model.GiftCard) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[email]
	if !ok {
		return common.ErrNotFound
	}
	user.GiftCards = append([]model.GiftCard(nil), giftCards...)
	return nil
}

func (s *memUserStore) SetLocationEnabled(_ context.Context, email string, enabled bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[email]
	if !ok {
		return common.ErrNotFound
	}
	user.LocationEnabled = enabled
	return nil
}

type memSessionStore struct {
	mu       sync.Mutex
	sessions map[string]string
}

func newMemSessionStore() *memSessionStore {
	return &memSessionStore{sessions: make(map[string]string)}
}

func (s *memSessionStore) CreateSession(_ context.Context, token, email string, _ time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[token] = email
	return nil
}

func (s *memSessionStore) FindSession(_ context.Context, token string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	email, ok := s.sessions[token]
	if !ok {
		return "", common.ErrNotFound
	}
	return email, nil
}

func (s *memSessionStore) DeleteSession(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, token)
	return nil
}

type memDealsStore struct {
	mu      sync.Mutex
	entries map[string]model.DealsCacheEntry
}

func newMemDealsStore() *memDealsStore {
	return &memDealsStore{entries: make(map[string]model.DealsCacheEntry)}
}

func (s *memDealsStore) ReadDeals(_ context.Context, email string) (*model.DealsCacheEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.entries[email]
	if !ok {
		return nil, nil
	}
	return &entry, nil
}

func (s *memDealsStore) WriteDeals(_ context.Context, email string, entry model.DealsCacheEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[email] = entry
	return nil
}

type staticSource struct {
	records []service.MerchantRecord
}

func (s staticSource) Load(context.Context) ([]service.MerchantRecord, error) {
	return s.records, nil
}

type stubGenerator struct {
	mu       sync.Mutex
	response string
	calls    int
}

func (g *stubGenerator) Generate(context.Context, string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls++
	return g.response, nil
}

type testEnv struct {
	client    *http.Client
	server    *httptest.Server
	users     *memUserStore
	generator *stubGenerator
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	cat, err := catalog.Load(context.Background(), staticSource{records: []service.MerchantRecord{
		{Name: "Target Store #12", Category: "department_store", Lat: baseLat + 0.0045, Lon: baseLng},
		{Name: "Corner Cafe", Category: "cafe", Lat: baseLat + 0.0090, Lon: baseLng},
		{Name: "Walgreens", Category: "pharmacy", Lat: baseLat + 0.0200, Lon: baseLng},
	}}, logger)
	require.NoError(t, err)

	users := newMemUserStore()
	dealsStore := newMemDealsStore()
	generator := &stubGenerator{response: `["Deal one", "Deal two"]`}

	srv := New(Config{
		Users:       users,
		Sessions:    newMemSessionStore(),
		Recommender: recommend.New(cat, users, logger),
		Deals:       deals.NewService(cat, dealsStore, deals.NewFetcher(generator, logger), logger),
		Limiter:     ratelimit.New(),
		Logger:      logger,
	})

	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)

	return &testEnv{
		client:    &http.Client{Jar: jar},
		server:    ts,
		users:     users,
		generator: generator,
	}
}

func (e *testEnv) do(t *testing.T, method, path string, body any) (*http.Response, map[string]any) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, e.server.URL+path, reader)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := e.client.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var decoded map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&decoded))
	return resp, decoded
}

func (e *testEnv) registerAndLogin(t *testing.T, email string) {
	t.Helper()

	resp, body := e.do(t, http.MethodPost, "/api/auth/register", map[string]any{
		"name":     "Test User",
		"email":    email,
		"password": "hunter22",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode, "register: %v", body)

	resp, body = e.do(t, http.MethodPost, "/api/auth/login", map[string]any{
		"email":    email,
		"password": "hunter22",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode, "login: %v", body)
}

func TestRegisterValidation(t *testing.T) {
	env := newTestEnv(t)

	resp, body := env.do(t, http.MethodPost, "/api/auth/register", map[string]any{
		"name":  "No Password",
		"email": "nopass@example.com",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "All fields are required", body["error"])
}

func TestRegisterDuplicateEmail(t *testing.T) {
	env := newTestEnv(t)
	env.registerAndLogin(t, "dupe@example.com")

	resp, body := env.do(t, http.MethodPost, "/api/auth/register", map[string]any{
		"name":     "Second",
		"email":    "dupe@example.com",
		"password": "other",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Email already registered", body["error"])
}

func TestLoginWrongPassword(t *testing.T) {
	env := newTestEnv(t)
	env.registerAndLogin(t, "user@example.com")

	resp, body := env.do(t, http.MethodPost, "/api/auth/login", map[string]any{
		"email":    "user@example.com",
		"password": "wrong",
	})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "Invalid email or password", body["error"])
}

func TestUnauthenticatedRejected(t *testing.T) {
	env := newTestEnv(t)

	resp, body := env.do(t, http.MethodGet, "/api/cards", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "Authentication required", body["error"])
}

func TestLogoutInvalidatesSession(t *testing.T) {
	env := newTestEnv(t)
	env.registerAndLogin(t, "user@example.com")

	resp, _ := env.do(t, http.MethodPost, "/api/auth/logout", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = env.do(t, http.MethodGet, "/api/cards", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestCardCRUD(t *testing.T) {
	env := newTestEnv(t)
	env.registerAndLogin(t, "cards@example.com")

	resp, body := env.do(t, http.MethodPost, "/api/cards", map[string]any{
		"name":      "Rewards Plus",
		"base_rate": 1.0,
		"category_bonuses": []map[string]any{
			{"category": "grocery", "rate": 3.0},
		},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	card := body["card"].(map[string]any)
	cardID := card["id"].(string)
	require.NotEmpty(t, cardID)

	resp, body = env.do(t, http.MethodGet, "/api/cards", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	cards := body["cards"].([]any)
	require.Len(t, cards, 1)
	assert.Equal(t, "Rewards Plus", cards[0].(map[string]any)["name"])

	resp, body = env.do(t, http.MethodPut, "/api/cards/"+cardID, map[string]any{
		"name":      "Rewards Max",
		"base_rate": 1.5,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Rewards Max", body["card"].(map[string]any)["name"])

	resp, _ = env.do(t, http.MethodPut, "/api/cards/not-a-real-id", map[string]any{
		"name": "Ghost",
	})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = env.do(t, http.MethodDelete, "/api/cards/"+cardID, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = env.do(t, http.MethodDelete, "/api/cards/"+cardID, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	_, body = env.do(t, http.MethodGet, "/api/cards", nil)
	assert.Empty(t, body["cards"])
}

func TestGiftCardCRUD(t *testing.T) {
	env := newTestEnv(t)
	env.registerAndLogin(t, "gifts@example.com")

	resp, body := env.do(t, http.MethodPost, "/api/gift-cards", map[string]any{
		"merchant": "Target",
		"category": "retail",
		"balance":  50.0,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	gcID := body["gift_card"].(map[string]any)["id"].(string)

	resp, body = env.do(t, http.MethodPut, "/api/gift-cards/"+gcID, map[string]any{
		"merchant": "Target",
		"category": "retail",
		"balance":  12.5,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.InDelta(t, 12.5, body["gift_card"].(map[string]any)["balance"], 0.001)

	resp, _ = env.do(t, http.MethodDelete, "/api/gift-cards/unknown", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = env.do(t, http.MethodDelete, "/api/gift-cards/"+gcID, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestGiftCardRequiresMerchant(t *testing.T) {
	env := newTestEnv(t)
	env.registerAndLogin(t, "gifts@example.com")

	resp, body := env.do(t, http.MethodPost, "/api/gift-cards", map[string]any{
		"balance": 25.0,
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Merchant is required", body["error"])
}

func TestLocationCheckMissingCoordinates(t *testing.T) {
	env := newTestEnv(t)
	env.registerAndLogin(t, "loc@example.com")

	resp, body := env.do(t, http.MethodPost, "/api/location/check", map[string]any{
		"lat": baseLat,
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Invalid location", body["error"])
}

func TestLocationCheckRecommendsGiftCard(t *testing.T) {
	env := newTestEnv(t)
	env.registerAndLogin(t, "loc@example.com")

	resp, _ := env.do(t, http.MethodPost, "/api/gift-cards", map[string]any{
		"merchant": "Target",
		"category": "retail",
		"balance":  40.0,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body := env.do(t, http.MethodPost, "/api/location/check", map[string]any{
		"lat": baseLat,
		"lng": baseLng,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	rec := body["recommendation"].(map[string]any)
	assert.Equal(t, "gift_card", rec["type"])
	assert.Equal(t, "Target Store #12", rec["merchant"].(map[string]any)["name"])
	assert.Equal(t, "Use your Target gift card!", rec["message"])
}

func TestLocationCheckNoMerchants(t *testing.T) {
	env := newTestEnv(t)
	env.registerAndLogin(t, "remote@example.com")

	resp, body := env.do(t, http.MethodPost, "/api/location/check", map[string]any{
		"lat": 0.0,
		"lng": 0.0,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	rec := body["recommendation"].(map[string]any)
	assert.Equal(t, "no_merchants", rec["type"])
}

func TestLocationEnable(t *testing.T) {
	env := newTestEnv(t)
	env.registerAndLogin(t, "loc@example.com")

	resp, body := env.do(t, http.MethodPost, "/api/location/enable", map[string]any{
		"enabled": true,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["enabled"])

	_, body = env.do(t, http.MethodGet, "/api/cards", nil)
	assert.Equal(t, true, body["location_enabled"])
}

func TestDealsFetchAndCache(t *testing.T) {
	env := newTestEnv(t)
	env.registerAndLogin(t, "deals@example.com")

	resp, body := env.do(t, http.MethodPost, "/api/deals/fetch", map[string]any{
		"lat": baseLat,
		"lng": baseLng,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, false, body["from_cache"])
	assert.NotEmpty(t, body["deals"])

	resp, body = env.do(t, http.MethodPost, "/api/deals/fetch", map[string]any{
		"lat": baseLat,
		"lng": baseLng,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["from_cache"])

	resp, body = env.do(t, http.MethodGet, "/api/deals/cached", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["cached"])
	assert.NotEmpty(t, body["deals"])
}

func TestDealsCachedEmpty(t *testing.T) {
	env := newTestEnv(t)
	env.registerAndLogin(t, "nodeals@example.com")

	resp, body := env.do(t, http.MethodGet, "/api/deals/cached", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, false, body["cached"])
	assert.Empty(t, body["deals"])
}

func TestRateLimitExceeded(t *testing.T) {
	env := newTestEnv(t)
	env.registerAndLogin(t, "limited@example.com")

	// Login consumed auth budget; the deals tier has its own.
	var lastStatus int
	var lastBody map[string]any
	for i := 0; i < ratelimit.DealsLimit+1; i++ {
		resp, body := env.do(t, http.MethodPost, "/api/deals/fetch", map[string]any{
			"lat": 0.0,
			"lng": 0.0,
		})
		lastStatus, lastBody = resp.StatusCode, body
	}

	require.Equal(t, http.StatusTooManyRequests, lastStatus)
	assert.Equal(t, "Rate limit exceeded", lastBody["error"])
	rl := lastBody["rate_limit"].(map[string]any)
	assert.Equal(t, float64(ratelimit.DealsLimit), rl["limit"])
	assert.Equal(t, float64(0), rl["remaining"])
}

func TestRateLimitHeaders(t *testing.T) {
	env := newTestEnv(t)
	env.registerAndLogin(t, "headers@example.com")

	resp, _ := env.do(t, http.MethodGet, "/api/cards", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, fmt.Sprint(ratelimit.DefaultLimit), resp.Header.Get("X-RateLimit-Limit"))
	assert.NotEmpty(t, resp.Header.Get("X-RateLimit-Remaining"))
}

func TestRateLimitStatus(t *testing.T) {
	env := newTestEnv(t)
	env.registerAndLogin(t, "status@example.com")

	resp, body := env.do(t, http.MethodGet, "/api/rate-limit/status", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	rl := body["rate_limit"].(map[string]any)
	assert.Equal(t, float64(ratelimit.StatusLimit), rl["limit"])
	assert.Equal(t, float64(60), rl["window"])

	// Status itself consumes nothing.
	_, body2 := env.do(t, http.MethodGet, "/api/rate-limit/status", nil)
	assert.Equal(t, rl["remaining"], body2["rate_limit"].(map[string]any)["remaining"])
}

func TestUserInfo(t *testing.T) {
	env := newTestEnv(t)
	env.registerAndLogin(t, "info@example.com")

	resp, body := env.do(t, http.MethodGet, "/api/user/info", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Test User", body["name"])
	assert.Equal(t, "info@example.com", body["email"])
}
