package http

import (
	"net/http"
	"time"

	"docseal/internal/config"
	"docseal/internal/domain"
	"docseal/internal/usecase"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Server struct {
	cfg config.Config
	r   *gin.Engine
	log *zap.Logger

	signUC    *usecase.SignDocument
	verifyUC  *usecase.VerifySignature
	listUC    *usecase.ListSignatures
	documents DocumentAdmin
	audit     *usecase.AuditEmitter

	healthCheck func() error

	rateLimiter       domain.RateLimiter
	rateLimitRequests int
	rateLimitWindow   time.Duration
	auditClientIPs    bool
}

type ServerDeps struct {
	Sign      *usecase.SignDocument
	Verify    *usecase.VerifySignature
	List      *usecase.ListSignatures
	Documents DocumentAdmin
	Audit     *usecase.AuditEmitter

	// HealthCheck probes the backing store; nil means always healthy.
	HealthCheck func() error

	RateLimiter domain.RateLimiter
	Logger      *zap.Logger
}

func NewServerWithDeps(cfg config.Config, deps ServerDeps) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(requestLogger(logger))

	s := &Server{
		cfg:               cfg,
		r:                 r,
		log:               logger,
		signUC:            deps.Sign,
		verifyUC:          deps.Verify,
		listUC:            deps.List,
		documents:         deps.Documents,
		audit:             deps.Audit,
		healthCheck:       deps.HealthCheck,
		rateLimiter:       deps.RateLimiter,
		rateLimitRequests: cfg.RateLimitRequests,
		rateLimitWindow:   cfg.RateLimitWindow(),
		auditClientIPs:    cfg.AuditClientIPs,
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.r.GET("/healthz", s.handleHealthz)

	v1 := s.r.Group("/v1")
	{
		v1.PUT("/documents", s.handleCreateDocument)
		v1.GET("/documents/:id", s.handleGetDocument)
		v1.POST("/documents/:id/sign", s.handleSign)
		v1.GET("/documents/:id/signatures", s.handleListSignatures)
		v1.GET("/documents/:id/signatures/status", s.handleSignatureStatus)
		v1.POST("/documents/:id/signatures/:signature_id/verify", s.handleVerify)
	}

	s.r.NoRoute(s.handleNoRoute)
}

func (s *Server) handleHealthz(c *gin.Context) {
	if s.healthCheck != nil {
		if err := s.healthCheck(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Handler exposes the router for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.r
}

func (s *Server) Run() error {
	s.log.Info("http server starting", zap.String("addr", s.cfg.HTTPAddr))
	return s.r.Run(s.cfg.HTTPAddr)
}

func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("elapsed", time.Since(start)))
	}
}
