package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/forgeworks/agentwizard/internal/domain"
	"github.com/forgeworks/agentwizard/internal/policy"
	"github.com/forgeworks/agentwizard/internal/session"
	"github.com/go-chi/chi/v5"
)

type fakeRepo struct {
	artifacts map[string]*domain.Artifact
	pingErr   error
}

func (f *fakeRepo) PutArtifact(_ context.Context, a *domain.Artifact) error {
	if f.artifacts == nil {
		f.artifacts = make(map[string]*domain.Artifact)
	}
	f.artifacts[a.ID] = a
	return nil
}

func (f *fakeRepo) TakeArtifact(_ context.Context, id string) (*domain.Artifact, error) {
	a, ok := f.artifacts[id]
	if !ok {
		return nil, nil
	}
	delete(f.artifacts, id)
	return a, nil
}

func (f *fakeRepo) CleanupExpired(context.Context) (int64, error) { return 0, nil }
func (f *fakeRepo) Ping(context.Context) error                    { return f.pingErr }
func (f *fakeRepo) Close() error                                  { return nil }

func newTestRouter(repo *fakeRepo, gate *policy.Gate, opts session.Options) (chi.Router, *session.Store) {
	sessions := session.NewStore(opts)
	h := NewHandler(sessions, repo, gate)
	r := chi.NewRouter()
	h.RegisterRoutes(r)
	return r, sessions
}

func TestHandleStart_ReturnsKickoffPrompt(t *testing.T) {
	r, sessions := newTestRouter(&fakeRepo{}, policy.Default(true), session.Options{})

	body := `{"domain_description":"electrophysiology","data_types":["spike trains"],"model":"` + domain.DefaultModel() + `"}`
	req := httptest.NewRequest(http.MethodPost, "/api/wizard/start", strings.NewReader(body))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		SessionID     string `json:"session_id"`
		Stage         string `json:"stage"`
		KickoffPrompt string `json:"kickoff_prompt"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Bad response body: %v", err)
	}
	if resp.SessionID == "" || resp.Stage != "acknowledge" {
		t.Errorf("Unexpected response: %+v", resp)
	}
	if !strings.Contains(resp.KickoffPrompt, "electrophysiology") {
		t.Errorf("Expected intake folded into kickoff prompt, got %q", resp.KickoffPrompt)
	}
	if _, err := sessions.Get(resp.SessionID); err != nil {
		t.Errorf("Expected session registered, got %v", err)
	}
}

func TestHandleStart_UnsupportedModel(t *testing.T) {
	r, _ := newTestRouter(&fakeRepo{}, policy.Default(true), session.Options{})

	req := httptest.NewRequest(http.MethodPost, "/api/wizard/start", strings.NewReader(`{"model":"gpt-2"}`))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("Expected 400, got %d", rec.Code)
	}
}

func TestHandleStart_RateLimited(t *testing.T) {
	r, _ := newTestRouter(&fakeRepo{}, policy.Default(true), session.Options{
		RateLimitMax:    1,
		RateLimitWindow: time.Hour,
	})

	for i, want := range []int{http.StatusOK, http.StatusTooManyRequests} {
		req := httptest.NewRequest(http.MethodPost, "/api/wizard/start", strings.NewReader(`{}`))
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		if rec.Code != want {
			t.Fatalf("Request %d: expected %d, got %d", i, want, rec.Code)
		}
	}
}

func TestHandleConfig_PublicWithholdsFullstack(t *testing.T) {
	r, _ := newTestRouter(&fakeRepo{}, policy.Default(true), session.Options{})

	req := httptest.NewRequest(http.MethodGet, "/api/config", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	body := rec.Body.String()
	if strings.Contains(body, `"fullstack"`) {
		t.Errorf("Expected fullstack withheld from public config, got %s", body)
	}
	if !strings.Contains(body, `"public":true`) {
		t.Errorf("Expected public flag set, got %s", body)
	}
	if !strings.Contains(body, domain.DefaultModel()) {
		t.Errorf("Expected default model in config, got %s", body)
	}
}

func TestHandleResult_DownloadClaimsArtifact(t *testing.T) {
	repo := &fakeRepo{}
	repo.PutArtifact(context.Background(), &domain.Artifact{
		ID: "s1", Kind: "project", Name: "patchbot.md", Content: "# PatchBot", CreatedAt: time.Now(),
	})
	r, _ := newTestRouter(repo, policy.Default(true), session.Options{})

	req := httptest.NewRequest(http.MethodGet, "/api/result/s1", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	if got := rec.Header().Get("Content-Disposition"); !strings.Contains(got, "patchbot.md") {
		t.Errorf("Expected attachment filename, got %q", got)
	}
	if rec.Body.String() != "# PatchBot" {
		t.Errorf("Unexpected body %q", rec.Body.String())
	}

	// Second download: gone.
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/result/s1", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("Expected 404 on second download, got %d", rec.Code)
	}
}

func TestHandleHealth(t *testing.T) {
	r, _ := newTestRouter(&fakeRepo{}, policy.Default(false), session.Options{})
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/healthz", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
}
