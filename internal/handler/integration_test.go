package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/hitoshi/bulletin/internal/mailer"
	"github.com/hitoshi/bulletin/internal/middleware"
	"github.com/hitoshi/bulletin/internal/model"
	"github.com/hitoshi/bulletin/internal/newsletter"
	"github.com/hitoshi/bulletin/internal/post"
	"github.com/hitoshi/bulletin/internal/repository"
	"github.com/hitoshi/bulletin/internal/security"
)

// --- 統合テスト用のステートフルモック ---

// integrationState は統合テスト用の共有状態を保持する。
type integrationState struct {
	mu          sync.Mutex
	posts       []*model.Post
	subscribers map[string]*model.Subscriber
}

func newIntegrationState() *integrationState {
	return &integrationState{subscribers: make(map[string]*model.Subscriber)}
}

type statePostRepo struct{ s *integrationState }

func (r *statePostRepo) Create(ctx context.Context, p *model.Post) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.posts = append(r.s.posts, p)
	return nil
}

func (r *statePostRepo) FindLatest(ctx context.Context) (*model.Post, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if len(r.s.posts) == 0 {
		return nil, nil
	}
	return r.s.posts[len(r.s.posts)-1], nil
}

type stateSubscriberRepo struct{ s *integrationState }

func (r *stateSubscriberRepo) FindByEmail(ctx context.Context, email string) (*model.Subscriber, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.s.subscribers[email], nil
}

func (r *stateSubscriberRepo) Create(ctx context.Context, sub *model.Subscriber) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, exists := r.s.subscribers[sub.Email]; exists {
		return fmt.Errorf("insert subscriber: %w", repository.ErrUniqueViolation)
	}
	r.s.subscribers[sub.Email] = sub
	return nil
}

// --- 統合テスト用ルーター構築ヘルパー ---

// createIntegrationRouter は実際のサービス層とインメモリのリポジトリでルーターを構築する。
func createIntegrationRouter(t *testing.T, state *integrationState) http.Handler {
	t.Helper()

	logger := newTestLogger(&bytes.Buffer{})
	rl := middleware.NewRateLimiter(middleware.NewRateLimiterConfig(1000, 1000), logger)
	t.Cleanup(rl.Stop)

	postSvc := post.NewService(&statePostRepo{s: state}, security.NewTextSanitizer())
	newsletterSvc := newsletter.NewService(
		&stateSubscriberRepo{s: state},
		mailer.NewLogSender(logger),
		nil,
		logger,
		newsletter.ServiceConfig{From: "Bulletin <hello@example.com>"},
	)

	return NewRouter(&RouterDeps{
		Logger:            logger,
		CORSAllowedOrigin: "http://localhost:3000",
		RateLimiter:       rl,
		PostService:       postSvc,
		NewsletterService: newsletterSvc,
	})
}

// TestIntegration_PostFlow は空の状態からの投稿作成と最新投稿取得の流れを検証する。
func TestIntegration_PostFlow(t *testing.T) {
	router := createIntegrationRouter(t, newIntegrationState())

	// 1. 投稿が無い場合はnull
	w := httptest.NewRecorder()
	router.ServeHTTP(w, queryRequest("post.getLatest", ""))
	if data := string(decodeData(t, w.Result())); data != "null" {
		t.Fatalf("initial getLatest = %s, want null", data)
	}

	// 2. P1、P2の順に作成
	for _, name := range []string{"P1", "<em>P2</em>"} {
		w = httptest.NewRecorder()
		router.ServeHTTP(w, mutationRequest("post.create", fmt.Sprintf(`{"name":%q}`, name)))
		if w.Result().StatusCode != http.StatusOK {
			t.Fatalf("create %s: status = %d", name, w.Result().StatusCode)
		}
	}

	// 3. 最新はP2（タグは除去済み）
	w = httptest.NewRecorder()
	router.ServeHTTP(w, queryRequest("post.getLatest", ""))
	var latest postResponse
	if err := json.Unmarshal(decodeData(t, w.Result()), &latest); err != nil {
		t.Fatalf("failed to decode post: %v", err)
	}
	if latest.Name != "P2" {
		t.Errorf("latest.Name = %q, want %q", latest.Name, "P2")
	}
	if latest.ID == "" || latest.CreatedAt.IsZero() {
		t.Errorf("latest = %+v, want populated id and createdAt", latest)
	}

	// 4. タグのみの名前は作成されない
	w = httptest.NewRecorder()
	router.ServeHTTP(w, mutationRequest("post.create", `{"name":"<script>x</script>"}`))
	if w.Result().StatusCode != http.StatusBadRequest {
		t.Errorf("markup-only name: status = %d, want %d", w.Result().StatusCode, http.StatusBadRequest)
	}
}

// TestIntegration_SubscribeFlow は正規化後に同一となるアドレスの重複登録が拒否されることを検証する。
func TestIntegration_SubscribeFlow(t *testing.T) {
	state := newIntegrationState()
	router := createIntegrationRouter(t, state)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, mutationRequest("post.subscribeEmail", `{"email":" A@B.com "}`))
	if w.Result().StatusCode != http.StatusOK {
		t.Fatalf("first subscribe: status = %d", w.Result().StatusCode)
	}
	var result subscribeResponse
	if err := json.Unmarshal(decodeData(t, w.Result()), &result); err != nil {
		t.Fatalf("failed to decode: %v", err)
	}
	if !result.Success || result.Subscriber.Email != "a@b.com" || !result.WelcomeEmailSent {
		t.Errorf("result = %+v", result)
	}

	w = httptest.NewRecorder()
	router.ServeHTTP(w, mutationRequest("post.subscribeEmail", `{"email":"a@b.com"}`))
	resp := w.Result()
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("second subscribe: status = %d, want %d", resp.StatusCode, http.StatusConflict)
	}
	if body := decodeError(t, resp); body.Message != model.DuplicateSubscriberMessage {
		t.Errorf("message = %q", body.Message)
	}

	w = httptest.NewRecorder()
	router.ServeHTTP(w, mutationRequest("post.subscribeEmail", `{"email":"nope"}`))
	if w.Result().StatusCode != http.StatusBadRequest {
		t.Errorf("malformed: status = %d, want %d", w.Result().StatusCode, http.StatusBadRequest)
	}

	if len(state.subscribers) != 1 {
		t.Errorf("subscribers = %d, want 1", len(state.subscribers))
	}
}

// TestIntegration_ConcurrentSubscribe は同一アドレスの同時登録でちょうど1件だけ作成されることを検証する。
func TestIntegration_ConcurrentSubscribe(t *testing.T) {
	state := newIntegrationState()
	router := createIntegrationRouter(t, state)

	const workers = 12
	statuses := make([]int, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			w := httptest.NewRecorder()
			router.ServeHTTP(w, mutationRequest("post.subscribeEmail", `{"email":"race@example.com"}`))
			statuses[i] = w.Result().StatusCode
		}(i)
	}
	wg.Wait()

	ok, conflict := 0, 0
	for _, s := range statuses {
		switch s {
		case http.StatusOK:
			ok++
		case http.StatusConflict:
			conflict++
		default:
			t.Errorf("unexpected status %d", s)
		}
	}
	if ok != 1 || conflict != workers-1 {
		t.Errorf("ok = %d, conflict = %d, want 1 and %d", ok, conflict, workers-1)
	}
	if len(state.subscribers) != 1 {
		t.Errorf("subscribers = %d, want 1", len(state.subscribers))
	}
}
