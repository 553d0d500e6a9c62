package http

import (
	"bytes"
	"context"
	"crypto/ed25519"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"sc3/internal/config"
	"sc3/internal/domain"
	"sc3/internal/infra/crypto"
	"sc3/internal/infra/logmem"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func quietLogger() logrus.FieldLogger {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return log
}

// newTestServer builds a server with an in-memory log store whose entries
// are signed by a trusted ed25519 key, so the log verify endpoint works
// end to end.
func newTestServer(t *testing.T, cfg config.Config, deps ServerDeps) *Server {
	t.Helper()

	pub, priv, err := ed25519.GenerateKey(nil)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	policy := config.DefaultPolicy()
	policy.TrustedKeys = []domain.TrustedKey{{
		ID:        "log-key",
		Alg:       domain.KeyAlgEd25519,
		PublicKey: base64.StdEncoding.EncodeToString(pub),
	}}
	if deps.Policy == nil {
		deps.Policy = &policy
	}
	if deps.LogStore == nil {
		deps.LogStore = logmem.New(logmem.WithSigner(func(payload []byte) (domain.Signature, error) {
			return crypto.SignEd25519(payload, "log-key", priv)
		}))
	}
	if deps.Logger == nil {
		deps.Logger = quietLogger()
	}

	srv, err := NewServerWithDeps(cfg, nil, deps)
	if err != nil {
		t.Fatalf("build server: %v", err)
	}
	return srv
}

func doJSON(t *testing.T, srv *Server, method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder, out any) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), out); err != nil {
		t.Fatalf("decode response %q: %v", w.Body.String(), err)
	}
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var envelope struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	decodeBody(t, w, &envelope)
	return envelope.Error.Code
}

func TestHealthz(t *testing.T) {
	srv := newTestServer(t, config.Config{}, ServerDeps{})
	w := doJSON(t, srv, http.MethodGet, "/healthz", nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var body struct {
		Status string `json:"status"`
		Mode   string `json:"mode"`
	}
	decodeBody(t, w, &body)
	if body.Status != "ok" || body.Mode != "no-db" {
		t.Fatalf("body = %+v", body)
	}
}

func TestVerifyEmptyBundle(t *testing.T) {
	srv := newTestServer(t, config.Config{}, ServerDeps{})
	w := doJSON(t, srv, http.MethodPost, "/v1/verify", map[string]any{"bundle": map[string]any{}}, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	var result domain.VerificationResult
	decodeBody(t, w, &result)
	if !result.Passed {
		t.Fatalf("empty bundle failed: %+v", result.Failures)
	}
	if result.ID == "" {
		t.Fatal("result ID missing")
	}
}

func TestVerifyRejectsBadThreshold(t *testing.T) {
	srv := newTestServer(t, config.Config{}, ServerDeps{})
	w := doJSON(t, srv, http.MethodPost, "/v1/verify", map[string]any{
		"bundle":             map[string]any{},
		"severity_threshold": "EXTREME",
	}, nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", w.Code)
	}
	if code := errorCode(t, w); code != "INVALID_REQUEST" {
		t.Fatalf("code = %q", code)
	}
}

func TestVerifyRejectsMalformedBody(t *testing.T) {
	srv := newTestServer(t, config.Config{}, ServerDeps{})
	req := httptest.NewRequest(http.MethodPost, "/v1/verify", bytes.NewBufferString("{broken"))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", w.Code)
	}
}

func TestQuickVerify(t *testing.T) {
	srv := newTestServer(t, config.Config{}, ServerDeps{})
	w := doJSON(t, srv, http.MethodPost, "/v1/verify/quick", map[string]any{"bundle": map[string]any{}}, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var body struct {
		Passed bool `json:"passed"`
	}
	decodeBody(t, w, &body)
	if !body.Passed {
		t.Fatal("quick verify of empty bundle failed")
	}
}

func TestGetResultWithoutDB(t *testing.T) {
	srv := newTestServer(t, config.Config{}, ServerDeps{})
	w := doJSON(t, srv, http.MethodGet, "/v1/verify/some-id", nil, nil)
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d", w.Code)
	}
	if code := errorCode(t, w); code != "NO_DB" {
		t.Fatalf("code = %q", code)
	}
}

func TestUnknownRoute(t *testing.T) {
	srv := newTestServer(t, config.Config{}, ServerDeps{})
	w := doJSON(t, srv, http.MethodGet, "/v1/nope", nil, nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d", w.Code)
	}
	if code := errorCode(t, w); code != "NOT_FOUND" {
		t.Fatalf("code = %q", code)
	}
}

func TestAdminEndpointsRequireKey(t *testing.T) {
	srv := newTestServer(t, config.Config{AdminAPIKey: "secret"}, ServerDeps{})

	w := doJSON(t, srv, http.MethodPost, "/v1/logs", map[string]any{"name": "release"}, nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status without key = %d", w.Code)
	}
	if code := errorCode(t, w); code != "UNAUTHORIZED" {
		t.Fatalf("code = %q", code)
	}

	w = doJSON(t, srv, http.MethodPost, "/v1/logs", map[string]any{"name": "release"},
		map[string]string{"X-Admin-Key": "wrong"})
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status with wrong key = %d", w.Code)
	}
}

func TestLogLifecycle(t *testing.T) {
	srv := newTestServer(t, config.Config{AdminAPIKey: "secret"}, ServerDeps{})
	admin := map[string]string{"X-Admin-Key": "secret"}

	w := doJSON(t, srv, http.MethodPost, "/v1/logs", map[string]any{"name": "release-log"}, admin)
	if w.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body = %s", w.Code, w.Body.String())
	}
	var log domain.ImmutableLog
	decodeBody(t, w, &log)
	if log.ID == "" || log.HeadHash != domain.GenesisHash {
		t.Fatalf("new log = %+v", log)
	}

	artifactHash := "b0a2c8d4e6f81012141618202224262830323436384042444648505254565860"
	w = doJSON(t, srv, http.MethodPost, "/v1/logs/"+log.ID+"/entries", map[string]any{
		"type":          "BUILD",
		"artifact_hash": artifactHash,
		"build_id":      "build-1",
		"payload":       map[string]any{"stage": "release"},
	}, admin)
	if w.Code != http.StatusCreated {
		t.Fatalf("append status = %d, body = %s", w.Code, w.Body.String())
	}
	var entry domain.ImmutableLogEntry
	decodeBody(t, w, &entry)
	if entry.Sequence != 0 || entry.PreviousHash != domain.GenesisHash || entry.Signature == nil {
		t.Fatalf("entry = %+v", entry)
	}

	w = doJSON(t, srv, http.MethodGet, "/v1/logs/"+log.ID, nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("get status = %d", w.Code)
	}
	var fetched domain.ImmutableLog
	decodeBody(t, w, &fetched)
	if len(fetched.Entries) != 1 || fetched.HeadHash == domain.GenesisHash {
		t.Fatalf("fetched log = %+v", fetched)
	}

	w = doJSON(t, srv, http.MethodPost, "/v1/logs/"+log.ID+"/verify", map[string]any{
		"artifact_hashes": []string{artifactHash},
	}, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("verify status = %d, body = %s", w.Code, w.Body.String())
	}
	var verification domain.LogVerification
	decodeBody(t, w, &verification)
	if !verification.Passed || !verification.ChainIntact || !verification.SignaturesValid {
		t.Fatalf("verification = %+v", verification)
	}

	w = doJSON(t, srv, http.MethodPost, "/v1/logs/"+log.ID+"/seal", nil, admin)
	if w.Code != http.StatusOK {
		t.Fatalf("seal status = %d", w.Code)
	}
	w = doJSON(t, srv, http.MethodPost, "/v1/logs/"+log.ID+"/entries", map[string]any{"type": "BUILD"}, admin)
	if w.Code != http.StatusConflict {
		t.Fatalf("append after seal status = %d", w.Code)
	}
	if code := errorCode(t, w); code != "LOG_SEALED" {
		t.Fatalf("code = %q", code)
	}
}

// Logs produced through the default wiring must verify with the same
// server's keyring, whether the signer is the configured ed25519 seed
// or the per-process HMAC fallback.
func TestDefaultWiringLogRoundTrip(t *testing.T) {
	cases := []struct {
		name      string
		seedHex   string
		wantKeyID string
	}{
		{"hmac fallback", "", "log-hmac"},
		{"configured ed25519 seed", strings.Repeat("ab", 32), "log-signing"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv, err := NewServerWithDeps(config.Config{LogSigningSeedHex: tc.seedHex}, nil,
				ServerDeps{Logger: quietLogger()})
			if err != nil {
				t.Fatalf("build server: %v", err)
			}

			w := doJSON(t, srv, http.MethodPost, "/v1/logs", map[string]any{"name": "release"}, nil)
			if w.Code != http.StatusCreated {
				t.Fatalf("create status = %d", w.Code)
			}
			var log domain.ImmutableLog
			decodeBody(t, w, &log)

			hash := strings.Repeat("c", 64)
			w = doJSON(t, srv, http.MethodPost, "/v1/logs/"+log.ID+"/entries", map[string]any{
				"type":          "BUILD",
				"artifact_hash": hash,
			}, nil)
			if w.Code != http.StatusCreated {
				t.Fatalf("append status = %d, body = %s", w.Code, w.Body.String())
			}
			var entry domain.ImmutableLogEntry
			decodeBody(t, w, &entry)
			if entry.Signature == nil || entry.Signature.KeyID != tc.wantKeyID {
				t.Fatalf("entry signature = %+v, want key %q", entry.Signature, tc.wantKeyID)
			}

			w = doJSON(t, srv, http.MethodPost, "/v1/logs/"+log.ID+"/verify", map[string]any{
				"artifact_hashes": []string{hash},
			}, nil)
			if w.Code != http.StatusOK {
				t.Fatalf("verify status = %d", w.Code)
			}
			var verification domain.LogVerification
			decodeBody(t, w, &verification)
			if !verification.Passed || !verification.SignaturesValid {
				t.Fatalf("verification = %+v", verification)
			}
		})
	}
}

func TestBadLogSigningSeedRejected(t *testing.T) {
	if _, err := NewServerWithDeps(config.Config{LogSigningSeedHex: "zz"}, nil,
		ServerDeps{Logger: quietLogger()}); err == nil {
		t.Fatal("invalid seed accepted")
	}
	if _, err := NewServerWithDeps(config.Config{LogSigningSeedHex: "abcd"}, nil,
		ServerDeps{Logger: quietLogger()}); err == nil {
		t.Fatal("short seed accepted")
	}
}

func TestLogNotFound(t *testing.T) {
	srv := newTestServer(t, config.Config{}, ServerDeps{})
	w := doJSON(t, srv, http.MethodGet, "/v1/logs/missing", nil, nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d", w.Code)
	}
}

func TestListLogs(t *testing.T) {
	srv := newTestServer(t, config.Config{}, ServerDeps{})
	doJSON(t, srv, http.MethodPost, "/v1/logs", map[string]any{"name": "a"}, nil)
	doJSON(t, srv, http.MethodPost, "/v1/logs", map[string]any{"name": "b"}, nil)

	w := doJSON(t, srv, http.MethodGet, "/v1/logs", nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var body struct {
		Logs []domain.ImmutableLog `json:"logs"`
	}
	decodeBody(t, w, &body)
	if len(body.Logs) != 2 {
		t.Fatalf("got %d logs", len(body.Logs))
	}
}

type denyAllLimiter struct{}

func (denyAllLimiter) Allow(_ context.Context, _ string, limit int, _ time.Duration) (domain.RateLimitDecision, error) {
	return domain.RateLimitDecision{Allowed: false, Limit: limit, Remaining: 0, ResetAt: time.Now().Add(time.Minute)}, nil
}

func TestVerifyRateLimited(t *testing.T) {
	srv := newTestServer(t, config.Config{RateLimitRequests: 1, RateLimitWindowSeconds: 60},
		ServerDeps{RateLimiter: denyAllLimiter{}})

	w := doJSON(t, srv, http.MethodPost, "/v1/verify", map[string]any{"bundle": map[string]any{}}, nil)
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d", w.Code)
	}
	if code := errorCode(t, w); code != "RATE_LIMITED" {
		t.Fatalf("code = %q", code)
	}
	if w.Header().Get("X-RateLimit-Limit") != "1" || w.Header().Get("X-RateLimit-Remaining") != "0" {
		t.Fatalf("rate limit headers = %v", w.Header())
	}
}

type errorLimiter struct{}

func (errorLimiter) Allow(context.Context, string, int, time.Duration) (domain.RateLimitDecision, error) {
	return domain.RateLimitDecision{}, context.DeadlineExceeded
}

func TestRateLimiterFailsOpen(t *testing.T) {
	srv := newTestServer(t, config.Config{RateLimitRequests: 1, RateLimitWindowSeconds: 60},
		ServerDeps{RateLimiter: errorLimiter{}})

	w := doJSON(t, srv, http.MethodPost, "/v1/verify", map[string]any{"bundle": map[string]any{}}, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
}
