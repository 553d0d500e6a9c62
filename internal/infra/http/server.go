// Package http is the gin transport for the compliance engine: bundle
// verification, reports and the immutable log API.
package http

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"sc3/internal/config"
	"sc3/internal/domain"
	"sc3/internal/infra/cachemem"
	"sc3/internal/infra/cacheredis"
	"sc3/internal/infra/collateral"
	"sc3/internal/infra/crypto"
	"sc3/internal/infra/cvesource"
	"sc3/internal/infra/db"
	"sc3/internal/infra/gpg"
	"sc3/internal/infra/logmem"
	"sc3/internal/infra/policyopa"
	"sc3/internal/infra/ratelimit"
	"sc3/internal/usecase"
)

type Server struct {
	cfg    config.Config
	policy domain.Policy
	store  *db.Store
	r      *gin.Engine
	log    logrus.FieldLogger

	orchestrator *usecase.Orchestrator
	logVerifier  *usecase.LogVerifier
	logStore     usecase.LogStore
	results      *db.ResultRepository
	logRepo      *db.LogRepository

	adminAPIKey string

	rateLimiter       domain.RateLimiter
	rateLimitRequests int
	rateLimitWindow   time.Duration
}

// ServerDeps lets tests and alternate wiring inject collaborators. Nil
// fields fall back to config-driven defaults.
type ServerDeps struct {
	Policy       *domain.Policy
	Orchestrator *usecase.Orchestrator
	LogVerifier  *usecase.LogVerifier
	LogStore     usecase.LogStore
	RateLimiter  domain.RateLimiter
	Logger       logrus.FieldLogger
}

func NewServer(cfg config.Config, store *db.Store) (*Server, error) {
	return NewServerWithDeps(cfg, store, ServerDeps{})
}

func NewServerWithDeps(cfg config.Config, store *db.Store, deps ServerDeps) (*Server, error) {
	r := gin.New()
	r.Use(gin.Recovery())

	log := deps.Logger
	if log == nil {
		log = logrus.StandardLogger()
	}

	s := &Server{
		cfg:          cfg,
		store:        store,
		r:            r,
		log:          log,
		orchestrator: deps.Orchestrator,
		logVerifier:  deps.LogVerifier,
		logStore:     deps.LogStore,
		adminAPIKey:  cfg.AdminAPIKey,
	}

	if deps.Policy != nil {
		s.policy = *deps.Policy
	} else {
		policy, err := config.LoadPolicy(cfg.PolicyPath)
		if err != nil {
			return nil, err
		}
		s.policy = policy
	}

	if err := s.initDeps(); err != nil {
		return nil, err
	}
	s.initRateLimit(deps.RateLimiter)
	s.routes()
	return s, nil
}

// Key ids the server's own log signer publishes under. The matching
// public material is added to the verification keyring so logs the
// service produces verify without extra policy configuration.
const (
	logSigningKeyID = "log-signing"
	logHMACKeyID    = "log-hmac"
)

// logSigning derives the entry signer for the in-memory log store: an
// ed25519 key from SC3_LOG_SIGNING_SEED_HEX when configured, otherwise
// a per-process random HMAC secret.
func (s *Server) logSigning() (logmem.SignFunc, domain.TrustedKey, error) {
	if s.cfg.LogSigningSeedHex != "" {
		seed, err := hex.DecodeString(s.cfg.LogSigningSeedHex)
		if err != nil {
			return nil, domain.TrustedKey{}, fmt.Errorf("decode log signing seed: %w", err)
		}
		if len(seed) != ed25519.SeedSize {
			return nil, domain.TrustedKey{}, fmt.Errorf("log signing seed must be %d bytes, got %d", ed25519.SeedSize, len(seed))
		}
		priv := ed25519.NewKeyFromSeed(seed)
		key := domain.TrustedKey{
			ID:        logSigningKeyID,
			Alg:       domain.KeyAlgEd25519,
			PublicKey: base64.StdEncoding.EncodeToString(priv.Public().(ed25519.PublicKey)),
		}
		sign := func(payload []byte) (domain.Signature, error) {
			return crypto.SignEd25519(payload, logSigningKeyID, priv)
		}
		return sign, key, nil
	}

	secret := make([]byte, 32)
	if _, err := rand.Read(secret); err != nil {
		return nil, domain.TrustedKey{}, fmt.Errorf("generate log hmac secret: %w", err)
	}
	key := domain.TrustedKey{
		ID:        logHMACKeyID,
		Alg:       domain.KeyAlgHMACSHA256,
		PublicKey: base64.StdEncoding.EncodeToString(secret),
	}
	sign := func(payload []byte) (domain.Signature, error) {
		return crypto.SignHMAC(payload, logHMACKeyID, secret), nil
	}
	return sign, key, nil
}

func (s *Server) initDeps() error {
	sign, logKey, err := s.logSigning()
	if err != nil {
		return err
	}
	keys := append(append([]domain.TrustedKey{}, s.policy.TrustedKeys...), logKey)
	keyring := usecase.NewKeyring(keys, crypto.NewService(), gpg.NewVerifier(), nil)

	if s.orchestrator == nil {
		var source usecase.CVESource
		if s.cfg.CVESourceURL != "" {
			source = cvesource.New(s.cfg.CVESourceURL, s.cfg.CVESourceTimeout)
		}

		var cache usecase.CVECache
		if s.cfg.RedisAddr != "" {
			redisCache, err := cacheredis.New(s.cfg.RedisAddr, s.cfg.RedisPassword, s.cfg.RedisDB)
			if err != nil {
				return err
			}
			cache = redisCache
		} else {
			cache = cachemem.New()
		}

		gate, err := policyopa.NewGate(context.Background())
		if err != nil {
			return err
		}

		var collateralVerifier usecase.CollateralVerifier
		if s.cfg.CollateralEndpoint != "" {
			collateralVerifier = collateral.New(s.cfg.CollateralEndpoint, s.cfg.CollateralTimeout)
		}

		s.orchestrator = usecase.NewOrchestrator(s.policy, keyring, source, cache, gate, collateralVerifier, nil, s.log)
	}
	if s.logVerifier == nil {
		s.logVerifier = usecase.NewLogVerifier(keyring, s.log)
	}
	if s.logStore == nil {
		s.logStore = logmem.New(logmem.WithSigner(sign))
	}
	if s.store != nil && s.store.Available() {
		s.results = db.NewResultRepository(s.store.DB)
		s.logRepo = db.NewLogRepository(s.store.DB)
	}
	return nil
}

func (s *Server) initRateLimit(override domain.RateLimiter) {
	if override != nil {
		s.rateLimiter = override
	}
	if s.rateLimiter == nil && s.cfg.RateLimitRequests > 0 {
		if s.cfg.RedisAddr != "" {
			if limiter, err := ratelimit.NewRedisLimiter(s.cfg.RedisAddr, s.cfg.RedisPassword, s.cfg.RedisDB, nil); err == nil {
				s.rateLimiter = limiter
			}
		}
		if s.rateLimiter == nil {
			s.rateLimiter = ratelimit.NewMemoryLimiter(ratelimit.MemoryLimiterConfig{})
		}
	}
	s.rateLimitRequests = s.cfg.RateLimitRequests
	s.rateLimitWindow = s.cfg.RateLimitWindow()
}

func (s *Server) routes() {
	s.r.GET("/healthz", func(c *gin.Context) {
		dbMode := "no-db"
		if s.store != nil && s.store.Available() {
			dbMode = "db"
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok", "mode": dbMode})
	})

	v1 := s.r.Group("/v1")
	{
		v1.POST("/verify", s.handleVerify)
		v1.POST("/verify/quick", s.handleQuickVerify)
		v1.GET("/verify/:id", s.handleGetResult)
		v1.GET("/verify/:id/report", s.handleGetReport)

		v1.GET("/logs", s.handleListLogs)
		v1.GET("/logs/:log_id", s.handleGetLog)
		v1.POST("/logs/:log_id/verify", s.handleVerifyLog)

		v1.POST("/logs", s.handleAdminCreateLog)
		v1.POST("/logs/:log_id/entries", s.handleAdminAppendEntry)
		v1.POST("/logs/:log_id/seal", s.handleAdminSealLog)
	}

	s.r.NoRoute(func(c *gin.Context) {
		writeErrorCode(c, http.StatusNotFound, "NOT_FOUND", "route not found")
	})
}

func (s *Server) Run() error {
	return s.r.Run(s.cfg.HTTPAddr)
}

// Handler exposes the router for httptest.
func (s *Server) Handler() http.Handler {
	return s.r
}
