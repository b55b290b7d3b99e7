package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/ignite/autopromote/internal/api"
	"github.com/ignite/autopromote/internal/domain"
	"github.com/ignite/autopromote/internal/optimization"
	"github.com/ignite/autopromote/internal/service/abtest"
	"github.com/ignite/autopromote/internal/service/promotion"
)

// ---- in-memory fakes ----

type fakeContentStore struct {
	mu       sync.Mutex
	contents map[string]*domain.Content
}

func newFakeContentStore() *fakeContentStore {
	return &fakeContentStore{contents: make(map[string]*domain.Content)}
}

func (f *fakeContentStore) Get(_ context.Context, id string) (*domain.Content, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.contents[id]
	if !ok {
		return nil, promotion.ErrContentNotFound
	}
	cp := *c
	return &cp, nil
}

func (f *fakeContentStore) Create(_ context.Context, c *domain.Content) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	cp := *c
	f.contents[cp.ID] = &cp
	return cp.ID, nil
}

func (f *fakeContentStore) UpdateOptimizedSettings(_ context.Context, id string, settings map[string]interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.contents[id]
	if !ok {
		return promotion.ErrContentNotFound
	}
	c.OptimizedPromotionSettings = settings
	return nil
}

type fakeScheduleRepo struct {
	mu        sync.Mutex
	schedules map[string]*domain.PromotionSchedule
}

func newFakeScheduleRepo() *fakeScheduleRepo {
	return &fakeScheduleRepo{schedules: make(map[string]*domain.PromotionSchedule)}
}

func (f *fakeScheduleRepo) Get(_ context.Context, id string) (*domain.PromotionSchedule, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.schedules[id]
	if !ok {
		return nil, promotion.ErrScheduleNotFound
	}
	cp := *s
	return &cp, nil
}

func (f *fakeScheduleRepo) Create(_ context.Context, s *domain.PromotionSchedule) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if s.ID == "" {
		return "", fmt.Errorf("id required")
	}
	cp := *s
	f.schedules[cp.ID] = &cp
	return cp.ID, nil
}

func (f *fakeScheduleRepo) Update(_ context.Context, id string, u promotion.UpdateFields) (*domain.PromotionSchedule, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.schedules[id]
	if !ok {
		return nil, promotion.ErrScheduleNotFound
	}
	if u.Budget != nil {
		s.Budget = *u.Budget
	}
	if u.IsActive != nil {
		s.IsActive = *u.IsActive
	}
	if u.Platform != nil {
		s.Platform = *u.Platform
	}
	if u.PlatformSettings != nil {
		s.PlatformSettings = u.PlatformSettings
	}
	cp := *s
	return &cp, nil
}

func (f *fakeScheduleRepo) DeleteWithChildren(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.schedules, id)
	for sid, s := range f.schedules {
		if s.ParentScheduleID != nil && *s.ParentScheduleID == id {
			delete(f.schedules, sid)
		}
	}
	return nil
}

func (f *fakeScheduleRepo) ListByContent(_ context.Context, contentID string) ([]domain.PromotionSchedule, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.PromotionSchedule
	for _, s := range f.schedules {
		if s.ContentID == contentID {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (f *fakeScheduleRepo) ListActiveDue(_ context.Context, now time.Time) ([]domain.PromotionSchedule, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.PromotionSchedule
	for _, s := range f.schedules {
		if s.IsActive && s.EndTime != nil && !s.EndTime.After(now) {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (f *fakeScheduleRepo) ListActiveStarted(_ context.Context, now time.Time, flt promotion.ActiveFilter) ([]domain.PromotionSchedule, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.PromotionSchedule
	for _, s := range f.schedules {
		if !s.IsActive || s.StartTime.After(now) {
			continue
		}
		if flt.Platform != "" && s.Platform != flt.Platform {
			continue
		}
		out = append(out, *s)
	}
	return out, nil
}

func (f *fakeScheduleRepo) CountOccurrences(_ context.Context, scheduleID string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	count := 1
	for _, s := range f.schedules {
		if s.ParentScheduleID != nil && *s.ParentScheduleID == scheduleID {
			count++
		}
	}
	return count, nil
}

func (f *fakeScheduleRepo) CompleteBatch(_ context.Context, ids []string, completedAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, id := range ids {
		if s, ok := f.schedules[id]; ok {
			s.IsActive = false
			s.Status = domain.ScheduleCompleted
			at := completedAt
			s.CompletedAt = &at
		}
	}
	return nil
}

type fakeABTestRepo struct {
	mu    sync.Mutex
	tests map[string]*domain.ABTest
}

func newFakeABTestRepo() *fakeABTestRepo {
	return &fakeABTestRepo{tests: make(map[string]*domain.ABTest)}
}

func (f *fakeABTestRepo) Get(_ context.Context, id string) (*domain.ABTest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.tests[id]
	if !ok {
		return nil, abtest.ErrTestNotFound
	}
	cp := *t
	cp.Variants = append([]domain.Variant(nil), t.Variants...)
	return &cp, nil
}

func (f *fakeABTestRepo) Create(_ context.Context, t *domain.ABTest) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *t
	cp.Variants = append([]domain.Variant(nil), t.Variants...)
	f.tests[cp.ID] = &cp
	return cp.ID, nil
}

func (f *fakeABTestRepo) UpdateVariants(_ context.Context, id string, variants []domain.Variant) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.tests[id]
	if !ok {
		return abtest.ErrTestNotFound
	}
	t.Variants = append([]domain.Variant(nil), variants...)
	return nil
}

func (f *fakeABTestRepo) Complete(_ context.Context, id, winner string, completedAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.tests[id]
	if !ok {
		return abtest.ErrTestNotFound
	}
	if t.Status == domain.ABTestCompleted {
		return abtest.ErrTestCompleted
	}
	t.Status = domain.ABTestCompleted
	t.Winner = &winner
	at := completedAt
	t.CompletedDate = &at
	return nil
}

type fakeHistory struct {
	mu      sync.Mutex
	metrics map[string]*domain.HistoricalMetrics
}

func newFakeHistory() *fakeHistory {
	return &fakeHistory{metrics: make(map[string]*domain.HistoricalMetrics)}
}

func (f *fakeHistory) History(_ context.Context, contentID string) *domain.HistoricalMetrics {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.metrics[contentID]
}

func (f *fakeHistory) Record(_ context.Context, contentID string, m *domain.HistoricalMetrics) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *m
	f.metrics[contentID] = &cp
	return nil
}

// ---- test server ----

func apiClock() time.Time {
	return time.Date(2024, time.June, 15, 10, 0, 0, 0, time.UTC)
}

type testEnv struct {
	server   *httptest.Server
	contents *fakeContentStore
	repo     *fakeScheduleRepo
	tests    *fakeABTestRepo
	history  *fakeHistory
}

func newTestServer(t *testing.T) *testEnv {
	t.Helper()
	contents := newFakeContentStore()
	scheduleRepo := newFakeScheduleRepo()
	testRepo := newFakeABTestRepo()
	history := newFakeHistory()

	model := optimization.NewModelWithClock(apiClock)
	promotions := promotion.NewService(contents, scheduleRepo, model, history)
	promotions.SetClock(apiClock)
	tests := abtest.NewService(testRepo, contents, promotions)
	tests.SetClock(apiClock)

	handlers := api.NewHandlers(promotions, tests, model, contents, history, nil)
	srv := httptest.NewServer(api.SetupRoutes(handlers))
	t.Cleanup(srv.Close)

	contents.Create(context.Background(), &domain.Content{
		ID:              "content-1",
		UserID:          "user-1",
		Title:           "A reasonably long video title",
		Type:            domain.ContentVideo,
		TargetPlatforms: []string{"youtube"},
		Status:          domain.ContentApproved,
		TargetRPM:       900000,
	})

	return &testEnv{server: srv, contents: contents, repo: scheduleRepo, tests: testRepo, history: history}
}

func (e *testEnv) do(t *testing.T, method, path string, body interface{}) (*http.Response, map[string]interface{}) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req, err := http.NewRequest(method, e.server.URL+path, &buf)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()

	var decoded map[string]interface{}
	_ = json.NewDecoder(resp.Body).Decode(&decoded)
	return resp, decoded
}

// ---- tests ----

func TestHealthCheck(t *testing.T) {
	env := newTestServer(t)

	resp, body := env.do(t, http.MethodGet, "/health", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if body["status"] != "healthy" {
		t.Errorf("body = %v", body)
	}
}

func TestEstimateRPMEndpoint(t *testing.T) {
	env := newTestServer(t)

	resp, body := env.do(t, http.MethodPost, "/api/optimize/rpm", map[string]interface{}{
		"content_type": "video",
		"platform":     "youtube",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, body = %v", resp.StatusCode, body)
	}
	if rpm, ok := body["optimal_rpm"].(float64); !ok || rpm <= 0 {
		t.Errorf("optimal_rpm = %v", body["optimal_rpm"])
	}

	resp, _ = env.do(t, http.MethodPost, "/api/optimize/rpm", map[string]interface{}{
		"platform": "youtube",
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("missing content_type: status = %d, want 400", resp.StatusCode)
	}
}

func TestEstimateROIEndpoint(t *testing.T) {
	env := newTestServer(t)

	resp, body := env.do(t, http.MethodPost, "/api/optimize/roi", map[string]interface{}{
		"content_id":     "content-1",
		"platform":       "youtube",
		"budget":         1000,
		"risk_tolerance": "moderate",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, body = %v", resp.StatusCode, body)
	}

	// Zero budget is a configuration error, not a server fault.
	resp, _ = env.do(t, http.MethodPost, "/api/optimize/roi", map[string]interface{}{
		"content_id": "content-1",
		"platform":   "youtube",
		"budget":     0,
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("zero budget: status = %d, want 400", resp.StatusCode)
	}

	resp, _ = env.do(t, http.MethodPost, "/api/optimize/roi", map[string]interface{}{
		"content_id": "missing",
		"platform":   "youtube",
		"budget":     100,
	})
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("missing content: status = %d, want 404", resp.StatusCode)
	}
}

func TestCreateAndGetContent(t *testing.T) {
	env := newTestServer(t)

	resp, body := env.do(t, http.MethodPost, "/api/content/", map[string]interface{}{
		"user_id":          "user-2",
		"title":            "Fresh upload",
		"type":             "image",
		"target_platforms": []string{"instagram"},
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("status = %d, body = %v", resp.StatusCode, body)
	}
	id, _ := body["id"].(string)
	if id == "" {
		t.Fatal("no id in response")
	}

	resp, body = env.do(t, http.MethodGet, "/api/content/"+id+"/", nil)
	if resp.StatusCode != http.StatusOK || body["title"] != "Fresh upload" {
		t.Errorf("get content: status = %d, body = %v", resp.StatusCode, body)
	}

	resp, _ = env.do(t, http.MethodPost, "/api/content/", map[string]interface{}{"type": "video"})
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("missing title: status = %d, want 400", resp.StatusCode)
	}
}

func TestSchedulePromotionEndpoint(t *testing.T) {
	env := newTestServer(t)

	resp, body := env.do(t, http.MethodPost, "/api/content/content-1/promotions", map[string]interface{}{
		"platform":   "youtube",
		"start_time": apiClock().Format(time.RFC3339),
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("status = %d, body = %v", resp.StatusCode, body)
	}
	if body["platform"] != "youtube" {
		t.Errorf("schedule = %v", body)
	}
	if budget, _ := body["budget"].(float64); budget <= 0 {
		t.Errorf("budget not defaulted: %v", body["budget"])
	}

	resp, _ = env.do(t, http.MethodPost, "/api/content/content-1/promotions", map[string]interface{}{
		"platform": "myspace",
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("unknown platform: status = %d, want 400", resp.StatusCode)
	}

	resp, _ = env.do(t, http.MethodPost, "/api/content/missing/promotions", map[string]interface{}{
		"platform": "youtube",
	})
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("missing content: status = %d, want 404", resp.StatusCode)
	}
}

func TestScheduleLifecycleEndpoints(t *testing.T) {
	env := newTestServer(t)

	_, created := env.do(t, http.MethodPost, "/api/content/content-1/promotions", map[string]interface{}{
		"platform": "youtube",
	})
	id, _ := created["id"].(string)
	if id == "" {
		t.Fatal("no schedule id")
	}

	resp, body := env.do(t, http.MethodPut, "/api/promotions/"+id+"/", map[string]interface{}{
		"budget": 750,
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("update: status = %d, body = %v", resp.StatusCode, body)
	}
	if body["budget"].(float64) != 750 {
		t.Errorf("budget = %v, want 750", body["budget"])
	}

	resp, _ = env.do(t, http.MethodGet, "/api/promotions/"+id+"/analytics", nil)
	if resp.StatusCode != http.StatusOK {
		t.Errorf("analytics: status = %d", resp.StatusCode)
	}

	resp, _ = env.do(t, http.MethodDelete, "/api/promotions/"+id+"/", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("delete: status = %d", resp.StatusCode)
	}

	resp, _ = env.do(t, http.MethodGet, "/api/promotions/"+id+"/", nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("get after delete: status = %d, want 404", resp.StatusCode)
	}
}

func TestActivePromotionsEndpoint(t *testing.T) {
	env := newTestServer(t)

	env.do(t, http.MethodPost, "/api/content/content-1/promotions", map[string]interface{}{
		"platform":   "youtube",
		"start_time": apiClock().Add(-time.Hour).Format(time.RFC3339),
	})

	resp, body := env.do(t, http.MethodGet, "/api/promotions/active?platform=youtube", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if count, _ := body["count"].(float64); count != 1 {
		t.Errorf("count = %v, want 1", body["count"])
	}

	resp, _ = env.do(t, http.MethodGet, "/api/promotions/active?min_budget=abc", nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("bad min_budget: status = %d, want 400", resp.StatusCode)
	}
}

func TestProcessCompletedEndpoint(t *testing.T) {
	env := newTestServer(t)

	end := apiClock().Add(-time.Minute).Format(time.RFC3339)
	env.do(t, http.MethodPost, "/api/content/content-1/promotions", map[string]interface{}{
		"platform":   "youtube",
		"start_time": apiClock().Add(-time.Hour).Format(time.RFC3339),
		"end_time":   end,
	})

	resp, body := env.do(t, http.MethodPost, "/api/promotions/process-completed", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, body = %v", resp.StatusCode, body)
	}
	if processed, _ := body["processed"].(float64); processed != 1 {
		t.Errorf("processed = %v, want 1", body["processed"])
	}
}

func TestBulkScheduleEndpoint(t *testing.T) {
	env := newTestServer(t)

	resp, body := env.do(t, http.MethodPost, "/api/promotions/bulk", map[string]interface{}{
		"content_ids": []string{"content-1", "missing"},
		"schedule":    map[string]interface{}{"platform": "youtube"},
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, body = %v", resp.StatusCode, body)
	}
	if s, _ := body["succeeded"].(float64); s != 1 {
		t.Errorf("succeeded = %v, want 1", body["succeeded"])
	}
	if f, _ := body["failed"].(float64); f != 1 {
		t.Errorf("failed = %v, want 1", body["failed"])
	}

	resp, _ = env.do(t, http.MethodPost, "/api/promotions/bulk", map[string]interface{}{
		"schedule": map[string]interface{}{"platform": "youtube"},
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("empty ids: status = %d, want 400", resp.StatusCode)
	}
}

func TestABTestEndpoints(t *testing.T) {
	env := newTestServer(t)

	resp, body := env.do(t, http.MethodPost, "/api/ab-tests/", map[string]interface{}{
		"content_id": "content-1",
		"variants": []map[string]interface{}{
			{"id": "a", "promotion_settings": map[string]interface{}{"platform": "youtube"}},
			{"id": "b", "promotion_settings": map[string]interface{}{"platform": "tiktok"}},
		},
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create: status = %d, body = %v", resp.StatusCode, body)
	}
	testID, _ := body["id"].(string)
	if testID == "" {
		t.Fatal("no test id")
	}

	resp, _ = env.do(t, http.MethodPost, "/api/ab-tests/"+testID+"/variants/a/metrics", map[string]interface{}{
		"views": 100, "engagement": 0.3,
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("metrics: status = %d", resp.StatusCode)
	}

	resp, _ = env.do(t, http.MethodPost, "/api/ab-tests/"+testID+"/variants/zzz/metrics", map[string]interface{}{
		"views": 100,
	})
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("unknown variant: status = %d, want 404", resp.StatusCode)
	}

	resp, body = env.do(t, http.MethodPost, "/api/ab-tests/"+testID+"/select-winner", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("select-winner: status = %d, body = %v", resp.StatusCode, body)
	}
	if body["id"] != "a" {
		t.Errorf("winner = %v, want a", body["id"])
	}

	// A completed test cannot take new metrics or a second winner.
	resp, _ = env.do(t, http.MethodPost, "/api/ab-tests/"+testID+"/select-winner", nil)
	if resp.StatusCode != http.StatusConflict {
		t.Errorf("second winner: status = %d, want 409", resp.StatusCode)
	}

	resp, body = env.do(t, http.MethodGet, "/api/ab-tests/"+testID+"/results", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("results: status = %d", resp.StatusCode)
	}
	if body["insights"] == nil {
		t.Error("results missing insights")
	}
}

func TestRecordAndUseHistory(t *testing.T) {
	env := newTestServer(t)

	resp, _ := env.do(t, http.MethodPost, "/api/content/content-1/history", map[string]interface{}{
		"views":           500000,
		"engagement_rate": 0.1,
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("record history: status = %d", resp.StatusCode)
	}
	if env.history.metrics["content-1"] == nil {
		t.Fatal("history not recorded")
	}

	resp, _ = env.do(t, http.MethodPost, "/api/content/missing/history", map[string]interface{}{
		"views": 1,
	})
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("missing content: status = %d, want 404", resp.StatusCode)
	}
}

func TestMediaNotConfigured(t *testing.T) {
	env := newTestServer(t)

	resp, _ := env.do(t, http.MethodGet, "/api/content/content-1/media/clip.mp4", nil)
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", resp.StatusCode)
	}
}
