package authcore

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/authcore-io/authcore/mail"
)

var testStart = time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis.Run failed: %v", err)
	}
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return mr, client
}

// testClock is an injectable clock the tests advance by hand.
type testClock struct {
	mu sync.Mutex
	t  time.Time
}

func newTestClock() *testClock {
	return &testClock{t: testStart}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

type mockUserStore struct {
	mu      sync.RWMutex
	byID    map[string]User
	byEmail map[string]string
}

func newMockUserStore() *mockUserStore {
	return &mockUserStore{
		byID:    make(map[string]User),
		byEmail: make(map[string]string),
	}
}

func (s *mockUserStore) FindUserByEmail(_ context.Context, email string) (User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byEmail[email]
	if !ok {
		return User{}, ErrUserNotFound
	}
	return s.byID[id], nil
}

func (s *mockUserStore) FindUserByID(_ context.Context, id string) (User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	user, ok := s.byID[id]
	if !ok {
		return User{}, ErrUserNotFound
	}
	return user, nil
}

func (s *mockUserStore) CreateUser(_ context.Context, user User) (User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.byEmail[user.Email]; exists {
		return User{}, ErrDuplicateUser
	}
	s.byID[user.ID] = user
	s.byEmail[user.Email] = user.ID
	return user, nil
}

func (s *mockUserStore) UpdateUser(_ context.Context, user User) (User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byID[user.ID]; !ok {
		return User{}, ErrUserNotFound
	}
	s.byID[user.ID] = user
	return user, nil
}

// mockMailer records outbound messages. failSend makes Send error; emptyID
// makes it report success without a message id.
type mockMailer struct {
	mu       sync.Mutex
	sent     []mail.Message
	failSend error
	emptyID  bool
}

func (m *mockMailer) Send(_ context.Context, msg mail.Message) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failSend != nil {
		return "", m.failSend
	}
	m.sent = append(m.sent, msg)
	if m.emptyID {
		return "", nil
	}
	return "msg-1", nil
}

func (m *mockMailer) last(t *testing.T) mail.Message {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.sent) == 0 {
		t.Fatal("no mail was sent")
	}
	return m.sent[len(m.sent)-1]
}

// codeFromMessage pulls the verification or reset code out of the link in
// the message body.
func codeFromMessage(t *testing.T, msg mail.Message) string {
	t.Helper()

	_, rest, ok := strings.Cut(msg.Text, "code=")
	if !ok {
		t.Fatalf("no code in message: %q", msg.Text)
	}
	code, _, _ := strings.Cut(rest, "&")
	return strings.Fields(code)[0]
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.JWT.AccessSecret = []byte("test-access-secret")
	cfg.JWT.RefreshSecret = []byte("test-refresh-secret")
	cfg.Mail.BaseURL = "http://app.test"
	// Fast argon2 parameters keep the suite quick.
	cfg.Password.Memory = 8192
	cfg.Password.Time = 1
	cfg.Password.Parallelism = 1
	return cfg
}

type testEnv struct {
	engine *Engine
	redis  *miniredis.Miniredis
	client *redis.Client
	clock  *testClock
	users  *mockUserStore
	mailer *mockMailer
}

func newTestEnv(t *testing.T, cfg Config) *testEnv {
	t.Helper()

	mr, client := newTestRedis(t)
	clock := newTestClock()
	users := newMockUserStore()
	mailer := &mockMailer{}

	engine, err := New().
		WithConfig(cfg).
		WithRedis(client).
		WithUserStore(users).
		WithMailer(mailer).
		WithClock(clock.Now).
		Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	t.Cleanup(engine.Close)

	return &testEnv{
		engine: engine,
		redis:  mr,
		client: client,
		clock:  clock,
		users:  users,
		mailer: mailer,
	}
}

// registerVerified drives registration and email verification and returns
// the verified user.
func (env *testEnv) registerVerified(t *testing.T, name, email, password string) User {
	t.Helper()
	ctx := context.Background()

	if _, err := env.engine.Register(ctx, RegisterInput{Name: name, Email: email, Password: password}); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	code := codeFromMessage(t, env.mailer.last(t))

	user, err := env.engine.VerifyEmail(ctx, code)
	if err != nil {
		t.Fatalf("VerifyEmail failed: %v", err)
	}
	return user
}
