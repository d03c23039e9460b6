package eschool

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/reschool/eschool-gateway/pkg/domain"
)

type fakeClient struct {
	loginCalls   int32
	stateCalls   int32
	threadsCalls int32

	loginErr   error
	stateErr   error
	stateErrFn func() error
	threadsErr error

	// failFirstThreads makes the first Threads call answer 401 and
	// subsequent ones succeed, simulating mid-request expiry.
	failFirstThreads bool

	loginDelay time.Duration

	personID int64
	threads  []domain.ThreadSummary
	messages map[int64][]domain.ThreadMessage
}

func (f *fakeClient) Login(ctx context.Context, username, password string) (*domain.UpstreamSession, error) {
	atomic.AddInt32(&f.loginCalls, 1)
	if f.loginDelay > 0 {
		time.Sleep(f.loginDelay)
	}
	if f.loginErr != nil {
		return nil, f.loginErr
	}
	return &domain.UpstreamSession{Cookies: map[string]string{"JSESSIONID": "fresh"}}, nil
}

func (f *fakeClient) State(ctx context.Context, session *domain.UpstreamSession) (*domain.UpstreamState, error) {
	atomic.AddInt32(&f.stateCalls, 1)
	if f.stateErrFn != nil {
		if err := f.stateErrFn(); err != nil {
			return nil, err
		}
	}
	if f.stateErr != nil {
		return nil, f.stateErr
	}
	state := &domain.UpstreamState{}
	state.User.PersonID = f.personID
	return state, nil
}

func (f *fakeClient) Threads(ctx context.Context, session *domain.UpstreamSession) ([]domain.ThreadSummary, error) {
	calls := atomic.AddInt32(&f.threadsCalls, 1)
	if f.failFirstThreads && calls == 1 {
		return nil, domain.ErrUpstreamUnauthorized
	}
	if f.threadsErr != nil {
		return nil, f.threadsErr
	}
	return f.threads, nil
}

func (f *fakeClient) ThreadMessages(ctx context.Context, session *domain.UpstreamSession, threadID int64) ([]domain.ThreadMessage, error) {
	return f.messages[threadID], nil
}

type fakeStore struct {
	mu   sync.Mutex
	blob []byte
}

func (s *fakeStore) Save(ctx context.Context, blob []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.blob = blob
	return nil
}

func (s *fakeStore) Load(ctx context.Context) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.blob == nil {
		return nil, domain.ErrSessionNotPersisted
	}
	return s.blob, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func persistedSession(t *testing.T) []byte {
	t.Helper()
	blob, err := json.Marshal(domain.UpstreamSession{
		Cookies:  map[string]string{"JSESSIONID": "old"},
		PersonID: 100,
	})
	if err != nil {
		t.Fatal(err)
	}
	return blob
}

func TestManager_Initialize_RestoresPersistedSession(t *testing.T) {
	client := &fakeClient{personID: 100}
	store := &fakeStore{blob: persistedSession(t)}
	m := NewManager(client, store, "u", "p", testLogger())

	if err := m.Initialize(context.Background()); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}

	if got := atomic.LoadInt32(&client.loginCalls); got != 0 {
		t.Errorf("login calls = %d, want 0 (persisted session was valid)", got)
	}
	id, err := m.PersonID()
	if err != nil || id != 100 {
		t.Errorf("PersonID = %d, %v, want 100", id, err)
	}
}

func TestManager_Initialize_ExpiredSessionTriggersExactlyOneLogin(t *testing.T) {
	client := &fakeClient{personID: 200}
	store := &fakeStore{blob: persistedSession(t)}
	m := NewManager(client, store, "u", "p", testLogger())

	// The persisted session fails validation; the State call on the fresh
	// login session succeeds.
	var stateAttempts int32
	client.stateErrFn = func() error {
		if atomic.AddInt32(&stateAttempts, 1) == 1 {
			return domain.ErrUpstreamUnauthorized
		}
		return nil
	}

	if err := m.Initialize(context.Background()); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}

	if got := atomic.LoadInt32(&client.loginCalls); got != 1 {
		t.Errorf("login calls = %d, want exactly 1 (no retry loop)", got)
	}
	id, _ := m.PersonID()
	if id != 200 {
		t.Errorf("PersonID = %d, want 200", id)
	}
}

func TestManager_Initialize_LoginFailureLeavesUnauthenticated(t *testing.T) {
	client := &fakeClient{loginErr: domain.ErrLoginFailed}
	store := &fakeStore{}
	m := NewManager(client, store, "u", "p", testLogger())

	if err := m.Initialize(context.Background()); err == nil {
		t.Fatal("Initialize should fail when login fails")
	}

	if _, err := m.Current(); !errors.Is(err, domain.ErrNotAuthenticated) {
		t.Errorf("Current error = %v, want ErrNotAuthenticated", err)
	}
	if _, err := m.Threads(context.Background()); !errors.Is(err, domain.ErrNotAuthenticated) {
		t.Errorf("Threads error = %v, want fail-fast ErrNotAuthenticated", err)
	}
}

func TestManager_Threads_ReloginOnceOnUnauthorized(t *testing.T) {
	client := &fakeClient{
		personID:         300,
		failFirstThreads: true,
		threads:          []domain.ThreadSummary{{ThreadID: 1}},
	}
	store := &fakeStore{}
	m := NewManager(client, store, "u", "p", testLogger())

	if err := m.Initialize(context.Background()); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}
	loginsAfterInit := atomic.LoadInt32(&client.loginCalls)

	threads, err := m.Threads(context.Background())
	if err != nil {
		t.Fatalf("Threads failed: %v", err)
	}
	if len(threads) != 1 {
		t.Errorf("threads = %+v, want the retried result", threads)
	}
	if got := atomic.LoadInt32(&client.loginCalls) - loginsAfterInit; got != 1 {
		t.Errorf("relogin count = %d, want exactly 1", got)
	}
	if got := atomic.LoadInt32(&client.threadsCalls); got != 2 {
		t.Errorf("threads calls = %d, want 2 (original + one retry)", got)
	}
}

func TestManager_Threads_PersistentUnauthorizedReportsError(t *testing.T) {
	client := &fakeClient{
		personID:   400,
		threadsErr: domain.ErrUpstreamUnauthorized,
	}
	store := &fakeStore{}
	m := NewManager(client, store, "u", "p", testLogger())

	if err := m.Initialize(context.Background()); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}
	loginsAfterInit := atomic.LoadInt32(&client.loginCalls)

	if _, err := m.Threads(context.Background()); err == nil {
		t.Fatal("Threads should fail when the retry is also unauthorized")
	}
	if got := atomic.LoadInt32(&client.loginCalls) - loginsAfterInit; got != 1 {
		t.Errorf("relogin count = %d, want exactly 1 (no retry storm)", got)
	}
}

func TestManager_Relogin_Coalesced(t *testing.T) {
	client := &fakeClient{personID: 500, loginDelay: 50 * time.Millisecond}
	store := &fakeStore{}
	m := NewManager(client, store, "u", "p", testLogger())

	const n = 10
	var wg sync.WaitGroup
	start := make(chan struct{})
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			_ = m.Relogin(context.Background())
		}()
	}
	close(start)
	wg.Wait()

	// All callers share the in-flight login instead of issuing their own.
	if got := atomic.LoadInt32(&client.loginCalls); got >= n {
		t.Errorf("login calls = %d, want coalesced (fewer than %d)", got, n)
	}
}

func TestManager_Login_PersistsSession(t *testing.T) {
	client := &fakeClient{personID: 600}
	store := &fakeStore{}
	m := NewManager(client, store, "u", "p", testLogger())

	if err := m.Initialize(context.Background()); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}

	blob, err := store.Load(context.Background())
	if err != nil {
		t.Fatalf("session was not persisted: %v", err)
	}
	var saved domain.UpstreamSession
	if err := json.Unmarshal(blob, &saved); err != nil {
		t.Fatalf("persisted blob is not a session: %v", err)
	}
	if saved.PersonID != 600 || saved.Cookies["JSESSIONID"] != "fresh" {
		t.Errorf("persisted session = %+v, want the fresh login result", saved)
	}
}
