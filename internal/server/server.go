package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/tonynham/collabuu/internal/campaign"
	campaigndomain "github.com/tonynham/collabuu/internal/campaign/domain"
	"github.com/tonynham/collabuu/internal/config"
	"github.com/tonynham/collabuu/internal/loyalty"
	loyaltydomain "github.com/tonynham/collabuu/internal/loyalty/domain"
	"github.com/tonynham/collabuu/internal/metrics"
	"github.com/tonynham/collabuu/internal/observability"
	obsmiddleware "github.com/tonynham/collabuu/internal/observability/logger"
	obstracing "github.com/tonynham/collabuu/internal/observability/tracing"
	"github.com/tonynham/collabuu/internal/ratelimit"
	"github.com/tonynham/collabuu/internal/redemption"
	redemptiondomain "github.com/tonynham/collabuu/internal/redemption/domain"
	"github.com/tonynham/collabuu/internal/visit"
	visitdomain "github.com/tonynham/collabuu/internal/visit/domain"
	"go.uber.org/fx"
)

var Module = fx.Module("http.server",
	metrics.Module,
	ratelimit.Module,
	campaign.Module,
	loyalty.Module,
	visit.Module,
	redemption.Module,
	fx.Provide(registerGin),
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(obsCfg observability.Config) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obsmiddleware.GinMiddleware(obsmiddleware.MiddlewareConfig{
		Debug:           obsCfg.Debug(),
		ErrorClassifier: classifyErrorForLog,
	}))
	r.Use(obstracing.GinMiddleware())
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin(obsCfg observability.Config) *gin.Engine {
	return NewEngine(obsCfg)
}

func run(lc fx.Lifecycle, cfg config.Config, r *gin.Engine) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					panic(err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine *gin.Engine
	cfg    config.Config

	campaignSvc   campaigndomain.Service
	loyaltySvc    loyaltydomain.Service
	visitSvc      visitdomain.Service
	redemptionSvc redemptiondomain.Service
	scanLimiter   *ratelimit.ScanLimiter
}

type ServerParams struct {
	fx.In

	Gin           *gin.Engine
	Cfg           config.Config
	CampaignSvc   campaigndomain.Service
	LoyaltySvc    loyaltydomain.Service
	VisitSvc      visitdomain.Service
	RedemptionSvc redemptiondomain.Service
	ScanLimiter   *ratelimit.ScanLimiter `optional:"true"`
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:        p.Gin,
		cfg:           p.Cfg,
		campaignSvc:   p.CampaignSvc,
		loyaltySvc:    p.LoyaltySvc,
		visitSvc:      p.VisitSvc,
		redemptionSvc: p.RedemptionSvc,
		scanLimiter:   p.ScanLimiter,
	}

	svc.registerAPIRoutes()

	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerAPIRoutes() {
	api := s.engine.Group("/api/v1")

	// -------- Campaigns --------
	api.POST("/campaigns", s.CreateCampaign)
	api.GET("/campaigns", s.ListCampaigns)
	api.GET("/campaigns/:id", s.GetCampaignByID)
	api.POST("/campaigns/:id/activate", s.transitionCampaign(campaigndomain.CampaignStatusActive))
	api.POST("/campaigns/:id/pause", s.transitionCampaign(campaigndomain.CampaignStatusPaused))
	api.POST("/campaigns/:id/complete", s.transitionCampaign(campaigndomain.CampaignStatusCompleted))
	api.POST("/campaigns/:id/cancel", s.transitionCampaign(campaigndomain.CampaignStatusCancelled))

	// -------- Referral artifacts --------
	api.POST("/campaigns/:id/referral-codes", s.CreateReferralCode)
	api.GET("/referral-codes/:code", s.GetReferralCodeByCode)

	// -------- Visits --------
	api.POST("/visits/verify", s.VerifyVisit)
	api.POST("/visits/:id/approve", s.ApproveVisit)
	api.POST("/visits/:id/reject", s.RejectVisit)
	api.GET("/visits", s.ListVisits)
	api.GET("/visits/:id", s.GetVisitByID)

	// -------- Loyalty --------
	api.GET("/loyalty/balance", s.GetLoyaltyBalance)
	api.GET("/loyalty/transactions", s.ListLoyaltyTransactions)

	// -------- Redemptions --------
	api.POST("/redemptions", s.Redeem)
	api.GET("/redemptions/verify", s.VerifyReward)
	api.POST("/redemptions/:id/complete", s.CompleteRedemption)
	api.GET("/redemptions", s.ListRedemptions)
	api.GET("/redemptions/:id", s.GetRedemptionByID)
}
