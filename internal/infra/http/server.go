package http

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"solsign/internal/config"
	"solsign/internal/domain"
	"solsign/internal/infra/db"
	"solsign/internal/infra/liveness"
	"solsign/internal/infra/mail"
	"solsign/internal/infra/pdfcompose"
	"solsign/internal/infra/policyelig"
	"solsign/internal/infra/ratelimit"
	"solsign/internal/infra/token"
	"solsign/internal/usecase"
)

type Server struct {
	cfg   config.Config
	store *db.Store
	r     *gin.Engine
	log   *zap.Logger

	startUC   *usecase.StartVerification
	confirmUC *usecase.ConfirmCode
	resendUC  *usecase.ResendCode
	statusUC  *usecase.VerificationStatus
	listVerUC *usecase.ListVerifications
	exportUC  *usecase.ExportDocument
	recordTx  *usecase.RecordTransaction
	listTx    *usecase.ListTransactions
	getTx     *usecase.GetTransaction

	liveness usecase.LivenessStore

	adminAPIKey string

	rateLimiter       domain.RateLimiter
	rateLimitRequests int
	rateLimitWindow   time.Duration
}

func NewServer(cfg config.Config, store *db.Store, log *zap.Logger) *Server {
	r := gin.New()
	r.Use(gin.Recovery())
	if log == nil {
		log = zap.NewNop()
	}

	s := &Server{cfg: cfg, store: store, r: r, log: log}
	s.initDeps()
	s.routes()
	return s
}

type ServerDeps struct {
	Start       *usecase.StartVerification
	Confirm     *usecase.ConfirmCode
	Resend      *usecase.ResendCode
	Status      *usecase.VerificationStatus
	ListVer     *usecase.ListVerifications
	Export      *usecase.ExportDocument
	RecordTx    *usecase.RecordTransaction
	ListTx      *usecase.ListTransactions
	GetTx       *usecase.GetTransaction
	Liveness    usecase.LivenessStore
	AdminAPIKey string
	RateLimiter domain.RateLimiter
	Log         *zap.Logger
}

func NewServerWithDeps(cfg config.Config, deps ServerDeps) *Server {
	r := gin.New()
	r.Use(gin.Recovery())
	log := deps.Log
	if log == nil {
		log = zap.NewNop()
	}

	s := &Server{
		cfg:         cfg,
		r:           r,
		log:         log,
		startUC:     deps.Start,
		confirmUC:   deps.Confirm,
		resendUC:    deps.Resend,
		statusUC:    deps.Status,
		listVerUC:   deps.ListVer,
		exportUC:    deps.Export,
		recordTx:    deps.RecordTx,
		listTx:      deps.ListTx,
		getTx:       deps.GetTx,
		liveness:    deps.Liveness,
		adminAPIKey: deps.AdminAPIKey,
	}
	s.initRateLimit(deps.RateLimiter)
	s.routes()
	return s
}

func (s *Server) initDeps() {
	s.adminAPIKey = s.cfg.AdminAPIKey

	var verRepo usecase.VerificationRepository
	var txRepo usecase.TransactionRepository
	if s.store != nil && s.store.DB != nil {
		verRepo = db.NewVerificationRepository(s.store.DB)
		txRepo = db.NewTransactionRepository(s.store.DB)
	} else {
		verRepo = db.NewMemoryVerificationRepository()
		txRepo = db.NewMemoryTransactionRepository()
	}

	if s.cfg.RedisAddr != "" {
		if store, err := liveness.NewRedisStore(s.cfg.RedisAddr, s.cfg.RedisPassword, s.cfg.RedisDB, 0); err == nil {
			s.liveness = store
		}
	}
	if s.liveness == nil {
		s.liveness = liveness.NewMemoryStore()
	}

	var mailer usecase.Mailer
	if s.cfg.SMTPHost != "" {
		if m, err := mail.NewSMTPMailer(s.cfg); err == nil {
			mailer = m
		} else {
			s.log.Error("smtp mailer", zap.Error(err))
		}
	}
	if mailer == nil {
		mailer = mail.NewLogMailer(s.log)
	}

	var dispatcher usecase.RewardDispatcher
	if d, err := token.NewDispatcher(s.cfg, s.log); err == nil {
		dispatcher = d
	} else {
		s.log.Warn("reward dispatcher unavailable", zap.Error(err))
		dispatcher = token.Unavailable{}
	}

	policy, err := policyelig.NewEngine(context.Background(), s.cfg.EligibilityPolicy)
	if err != nil {
		s.log.Error("eligibility policy", zap.Error(err))
	} else {
		s.startUC = &usecase.StartVerification{
			Records:  verRepo,
			Liveness: s.liveness,
			Policy:   policy,
			Mailer:   mailer,
			CodeTTL:  s.cfg.CodeTTL(),
			Log:      s.log,
		}
	}
	s.confirmUC = &usecase.ConfirmCode{
		Records:    verRepo,
		Dispatcher: dispatcher,
		Mailer:     mailer,
		Amount:     s.cfg.RewardAmount,
		Log:        s.log,
	}
	s.resendUC = &usecase.ResendCode{
		Records: verRepo,
		Mailer:  mailer,
		CodeTTL: s.cfg.CodeTTL(),
		Log:     s.log,
	}
	s.statusUC = &usecase.VerificationStatus{Records: verRepo}
	s.listVerUC = &usecase.ListVerifications{Records: verRepo}
	s.exportUC = &usecase.ExportDocument{Composer: pdfcompose.NewComposer(s.log), Log: s.log}
	s.recordTx = &usecase.RecordTransaction{Transactions: txRepo, Network: s.cfg.SolanaNetwork, Log: s.log}
	s.listTx = &usecase.ListTransactions{Transactions: txRepo}
	s.getTx = &usecase.GetTransaction{Transactions: txRepo}

	s.initRateLimit(nil)
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
			s.rateLimiter = ratelimit.NewMemoryLimiter(ratelimit.MemoryLimiterConfig{
				MaxKeys: s.cfg.RateLimitMaxKeys,
			})
		}
	}
	s.rateLimitRequests = s.cfg.RateLimitRequests
	s.rateLimitWindow = s.cfg.RateLimitWindow()
}

func (s *Server) routes() {
	s.r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "OK",
			"message":   "SolSign API is running",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
	})

	api := s.r.Group("/api")
	{
		profile := api.Group("/profile")
		profile.POST("/verify", s.handleStartVerification)
		profile.POST("/verify-code", s.handleVerifyCode)
		profile.POST("/resend-code", s.handleResendCode)
		profile.GET("/status/:walletAddress", s.handleVerificationStatus)
		profile.GET("/verifications", s.handleListVerifications)

		api.POST("/sign-document", s.handleSignDocument)
		api.POST("/export-signed-pdf", s.handleExportSignedPDF)

		verification := api.Group("/verification")
		verification.GET("/status", s.handleLivenessStatus)
		verification.POST("/complete", s.handleLivenessComplete)
		verification.GET("/clear", s.handleLivenessClear)

		api.POST("/transactions", s.handleRecordTransaction)
		api.GET("/transactions", s.handleListTransactions)
		api.GET("/transactions/:txHash", s.handleGetTransaction)
	}
}

// Run blocks serving HTTP until the listener fails or the context is done.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{Addr: s.cfg.HTTPAddr, Handler: s.r}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

// Handler exposes the router for tests.
func (s *Server) Handler() http.Handler {
	return s.r
}
