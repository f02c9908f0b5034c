package http

import (
	"log"
	"time"

	"veritas/internal/config"
	"veritas/internal/domain"
	"veritas/internal/infra/crypto"
	"veritas/internal/infra/db"
	"veritas/internal/infra/delivery"
	"veritas/internal/infra/ledger"
	"veritas/internal/infra/ratelimit"
	"veritas/internal/usecase"

	"github.com/gin-gonic/gin"
)

type Server struct {
	cfg config.Config
	r   *gin.Engine

	buildUC    *usecase.BuildManifest
	registerUC *usecase.RegisterManifest
	lookupUC   *usecase.PublicLookup
	uploadUC   *usecase.VerifyUpload
	ledgerSvc  usecase.LedgerService
	signer     *delivery.Signer

	rateLimiter       domain.RateLimiter
	rateLimitRequests int
	rateLimitWindow   time.Duration
}

type ServerDeps struct {
	Manifests   usecase.ManifestRepository
	Ledger      usecase.LedgerService
	Signer      *delivery.Signer
	RateLimiter domain.RateLimiter
}

func NewServer(cfg config.Config, store *db.Store) *Server {
	deps := ServerDeps{}
	if store != nil && store.DB != nil {
		deps.Manifests = db.NewManifestRepository(store.DB)
	}

	var api ledger.API
	if cfg.LedgerURL != "" {
		client, err := ledger.NewClient(cfg.LedgerURL, cfg.LedgerAPIKey, ledger.DefaultHTTPClient())
		if err != nil {
			log.Printf("ledger client unavailable: %v", err)
		} else {
			api = client
		}
	} else {
		log.Printf("LEDGER_URL not set; using in-process ledger.")
		api = ledger.NewMemory(cfg.Registrant)
	}
	if api != nil {
		if svc, err := ledger.NewService(api); err == nil {
			deps.Ledger = svc
		}
	}

	if signer, err := delivery.NewSigner(cfg.DeliveryBaseURL, cfg.DeliveryAccount, cfg.DeliveryAPIKey, cfg.DeliveryAPISecret); err == nil {
		deps.Signer = signer
	} else {
		// Missing credentials surface as 500 at request time, never as an
		// unsigned URL.
		log.Printf("delivery signer unavailable: %v", err)
	}

	if cfg.RateLimitRequests > 0 {
		if cfg.RedisAddr != "" {
			if limiter, err := ratelimit.NewRedisLimiter(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, nil); err == nil {
				deps.RateLimiter = limiter
			}
		}
		if deps.RateLimiter == nil {
			deps.RateLimiter = ratelimit.NewMemoryLimiter(nil, cfg.RateLimitMaxKeys)
		}
	}

	return NewServerWithDeps(cfg, deps)
}

func NewServerWithDeps(cfg config.Config, deps ServerDeps) *Server {
	r := gin.New()
	r.Use(gin.Recovery())

	cryptoSvc := crypto.NewService()
	s := &Server{
		cfg:               cfg,
		r:                 r,
		ledgerSvc:         deps.Ledger,
		signer:            deps.Signer,
		rateLimiter:       deps.RateLimiter,
		rateLimitRequests: cfg.RateLimitRequests,
		rateLimitWindow:   time.Duration(cfg.RateLimitWindowSeconds) * time.Second,
	}
	if deps.Manifests != nil {
		s.buildUC = &usecase.BuildManifest{
			Manifests:            deps.Manifests,
			Crypto:               cryptoSvc,
			RetainCanonicalForms: cfg.RetainCanonicalForms,
		}
		s.lookupUC = &usecase.PublicLookup{Manifests: deps.Manifests}
		if deps.Ledger != nil {
			s.registerUC = &usecase.RegisterManifest{
				Manifests: deps.Manifests,
				Ledger:    deps.Ledger,
			}
		}
	}
	s.uploadUC = &usecase.VerifyUpload{Ledger: deps.Ledger, Digest: crypto.FileDigest}

	s.routes()
	return s
}

func (s *Server) routes() {
	s.r.GET("/healthz", s.handleHealthz)
	s.r.GET("/manifest/public", s.handlePublicLookup)
	s.r.POST("/manifest/build", s.handleBuildManifest)
	s.r.POST("/manifest/register", s.handleRegisterManifest)
	s.r.GET("/manifest/verify", s.handleVerifyFingerprint)
	s.r.POST("/upload/hash", s.handleUploadHash)
	s.r.GET("/delivery/sign", s.handleSignDelivery)
}

func (s *Server) Run() error {
	return s.r.Run(s.cfg.HTTPAddr)
}

// Handler exposes the router for tests.
func (s *Server) Handler() *gin.Engine {
	return s.r
}
