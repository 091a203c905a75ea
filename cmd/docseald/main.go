package main

import (
	"context"
	"log"

	"docseal/internal/config"
	"docseal/internal/domain"
	"docseal/internal/infra/cachemem"
	"docseal/internal/infra/cacheredis"
	"docseal/internal/infra/crypto"
	"docseal/internal/infra/db"
	httpinfra "docseal/internal/infra/http"
	"docseal/internal/infra/keys/soft"
	"docseal/internal/infra/keys/vault"
	"docseal/internal/infra/policy"
	"docseal/internal/infra/ratelimit"
	"docseal/internal/usecase"

	"go.uber.org/zap"
)

func main() {
	cfg := config.FromEnv()

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync()

	store, err := db.NewStore(cfg)
	if err != nil {
		logger.Fatal("failed to init store", zap.Error(err))
	}
	if err := store.Migrate(); err != nil {
		logger.Fatal("failed to migrate schema", zap.Error(err))
	}

	documents := db.NewDocumentStore(store.DB)
	signatures := db.NewSignatureRepository(store.DB)
	auditRepo := db.NewAuditEventRepository(store.DB)
	audit := usecase.NewAuditEmitter(auditRepo, nil, logger)

	custodian := buildCustodian(cfg, logger)
	cache := buildCache(cfg, logger)
	limiter := buildLimiter(cfg, logger)
	engine := buildPolicyEngine(cfg, logger)

	hasher := &crypto.Service{}

	signUC := &usecase.SignDocument{
		Documents:     documents,
		Custodian:     custodian,
		Signatures:    signatures,
		Hasher:        hasher,
		Audit:         audit,
		Policy:        engine,
		Logger:        logger,
		RetryAttempts: cfg.RetryAttempts,
		RetryBase:     cfg.RetryBase(),
	}
	verifyUC := &usecase.VerifySignature{
		Documents:     documents,
		Custodian:     custodian,
		Signatures:    signatures,
		Hasher:        hasher,
		Cache:         cache,
		CacheTTL:      cfg.VerifyCacheTTL(),
		Logger:        logger,
		RetryAttempts: cfg.RetryAttempts,
		RetryBase:     cfg.RetryBase(),
	}
	listUC := &usecase.ListSignatures{Signatures: signatures}

	srv := httpinfra.NewServerWithDeps(cfg, httpinfra.ServerDeps{
		Sign:        signUC,
		Verify:      verifyUC,
		List:        listUC,
		Documents:   documents,
		Audit:       audit,
		HealthCheck: healthCheck(store),
		RateLimiter: limiter,
		Logger:      logger,
	})
	if err := srv.Run(); err != nil {
		logger.Fatal("server exited", zap.Error(err))
	}
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	parsed, err := zap.ParseAtomicLevel(level)
	if err == nil {
		cfg.Level = parsed
	}
	return cfg.Build()
}

func buildCustodian(cfg config.Config, logger *zap.Logger) usecase.KeyCustodian {
	if cfg.VaultAddr != "" && cfg.VaultToken != "" {
		custodian, err := vault.NewCustodianFromConfig(cfg, logger)
		if err != nil {
			logger.Fatal("failed to init vault custodian", zap.Error(err))
		}
		logger.Info("using vault key custodian", zap.String("addr", cfg.VaultAddr))
		return custodian
	}
	logger.Warn("VAULT_ADDR not set, using in-memory key custodian; keys do not survive restarts")
	return soft.NewCustodian(cfg.KeyRSABits, cfg.KeyValidity())
}

func buildCache(cfg config.Config, logger *zap.Logger) usecase.VerificationCache {
	if cfg.RedisAddr != "" {
		cache, err := cacheredis.New(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err == nil {
			logger.Info("using redis verification cache", zap.String("addr", cfg.RedisAddr))
			return cache
		}
		logger.Warn("redis cache unavailable, falling back to in-memory", zap.Error(err))
	}
	return cachemem.New()
}

func buildLimiter(cfg config.Config, logger *zap.Logger) domain.RateLimiter {
	if cfg.RateLimitRequests <= 0 {
		return nil
	}
	if cfg.RedisAddr != "" {
		limiter, err := ratelimit.NewRedisLimiter(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, nil)
		if err == nil {
			return limiter
		}
		logger.Warn("redis rate limiter unavailable, falling back to in-memory", zap.Error(err))
	}
	return ratelimit.NewMemoryLimiter(ratelimit.MemoryLimiterConfig{})
}

func buildPolicyEngine(cfg config.Config, logger *zap.Logger) usecase.PolicyEngine {
	if cfg.PolicyBundlePath == "" {
		return nil
	}
	engine, err := policy.NewEngineFromBundlePath(context.Background(), cfg.PolicyBundlePath)
	if err != nil {
		logger.Fatal("failed to load policy bundle", zap.Error(err))
	}
	logger.Info("signing policy loaded", zap.String("bundle", cfg.PolicyBundlePath))
	return engine
}

func healthCheck(store *db.Store) func() error {
	return func() error {
		sqlDB, err := store.DB.DB()
		if err != nil {
			return err
		}
		return sqlDB.Ping()
	}
}
