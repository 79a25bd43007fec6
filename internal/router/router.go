package router

import (
	"time"

	"bandhan/config"
	"bandhan/internal/domain"
	"bandhan/internal/handler"
	"bandhan/internal/middleware"
	"bandhan/internal/repository"
	"bandhan/internal/service"
	"bandhan/internal/ws"
	"bandhan/pkg/cloudinary"
	"bandhan/pkg/exotel"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Deps are the externally constructed pieces the router wires together. The
// call service is built here but also needed by the sweeper, so Setup returns
// it alongside the engine.
type Deps struct {
	Cloud   cloudinary.Client
	Gateway exotel.Gateway
}

func Setup(cfg *config.Config, db *gorm.DB, deps Deps) (*gin.Engine, *service.CallService) {
	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())

	// API traffic is limited per user once authenticated; the login and
	// register endpoints get a much tighter per-IP budget. The webhook route
	// is exempt so provider callbacks are never dropped.
	apiLimit := middleware.RateLimit(middleware.NewRateLimiter(cfg.Server.RateLimit, cfg.Server.RateWindow))
	authLimit := middleware.RateLimit(middleware.NewRateLimiter(10, time.Minute))

	// Repositories
	userRepo := repository.NewUserRepository(db)
	profileRepo := repository.NewProfileRepository(db)
	matchRepo := repository.NewMatchRepository(db)
	blockRepo := repository.NewBlockRepository(db)
	planRepo := repository.NewPlanRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)
	subscriptionRepo := repository.NewSubscriptionRepository(db)
	creditRepo := repository.NewCreditRepository(db)
	callRepo := repository.NewCallRepository(db)
	webhookRepo := repository.NewWebhookRepository(db)
	settingRepo := repository.NewSettingRepository(db)

	callHub := ws.NewCallHub()

	// Services
	authSvc := service.NewAuthService(cfg, userRepo, profileRepo)
	creditSvc := service.NewCreditService(creditRepo, settingRepo)
	paymentSvc := service.NewPaymentService(paymentRepo, planRepo, subscriptionRepo, creditSvc)
	callSvc := service.NewCallService(cfg, deps.Gateway, callRepo, webhookRepo, matchRepo, blockRepo, userRepo, settingRepo, creditSvc, callHub)

	// Handlers
	authHandler := handler.NewAuthHandler(authSvc)
	profileHandler := handler.NewProfileHandler(profileRepo, userRepo, matchRepo, paymentSvc)
	matchHandler := handler.NewMatchHandler(matchRepo)
	blockHandler := handler.NewBlockHandler(blockRepo, userRepo)
	planHandler := handler.NewPlanHandler(planRepo)
	paymentHandler := handler.NewPaymentHandler(paymentSvc)
	callHandler := handler.NewCallHandler(callSvc, creditSvc)
	callWebhookHandler := handler.NewCallWebhookHandler(callSvc)
	adminHandler := handler.NewAdminHandler(userRepo, profileRepo, matchRepo, blockRepo, planRepo, paymentRepo, callRepo, webhookRepo, authSvc, paymentSvc)
	adminCreditHandler := handler.NewAdminCreditHandler(creditSvc)
	uploadHandler := handler.NewUploadHandler(deps.Cloud)

	authMw := middleware.AuthRequired(&cfg.JWT)
	adminMw := middleware.RequireRole(domain.RoleAdmin)

	api := r.Group("/api")
	{
		authGroup := api.Group("/auth", authLimit)
		{
			authGroup.POST("/register", authHandler.Register)
			authGroup.POST("/login", authHandler.Login)
			authGroup.GET("/verify", authHandler.Verify)
		}

		profileGroup := api.Group("/profile", authMw, apiLimit)
		{
			profileGroup.POST("/create", profileHandler.Create)
			profileGroup.PUT("/edit", profileHandler.Edit)
			profileGroup.GET("/me", profileHandler.Me)
		}

		userGroup := api.Group("/user", authMw, apiLimit)
		{
			userGroup.GET("/browse", profileHandler.Browse)
			userGroup.GET("/matches", matchHandler.List)
			userGroup.GET("/profile-details/:id", profileHandler.Details)
			userGroup.GET("/block", blockHandler.List)
			userGroup.POST("/block", blockHandler.Create)
			userGroup.DELETE("/block", blockHandler.Delete)
			userGroup.GET("/subscription-status", paymentHandler.SubscriptionStatus)
			userGroup.GET("/active-plan", paymentHandler.ActivePlan)
			userGroup.GET("/call-credits", callHandler.Credits)
			userGroup.POST("/change-password", authHandler.ChangePassword)
			userGroup.GET("/call-logs", callHandler.Logs)
			userGroup.GET("/call-sessions", callHandler.Sessions)
		}

		api.GET("/plans", apiLimit, planHandler.List)

		paymentGroup := api.Group("/payments", authMw, apiLimit)
		{
			paymentGroup.POST("/submit", paymentHandler.Submit)
			paymentGroup.GET("", paymentHandler.ListMine)
		}

		callGroup := api.Group("/calls")
		{
			callGroup.POST("/webhook", callWebhookHandler.Handle)
			callGroup.GET("/initiate", authMw, apiLimit, callHandler.Initiate)
			callGroup.POST("/initiate", authMw, apiLimit, callHandler.Initiate)
			callGroup.GET("/status/:id", authMw, apiLimit, callHandler.Status)
			callGroup.POST("/sync-status/:sid", authMw, apiLimit, callHandler.SyncStatus)
			callGroup.GET("/logs", authMw, apiLimit, callHandler.Logs)
		}

		adminGroup := api.Group("/admin", authMw, adminMw, apiLimit)
		{
			adminGroup.GET("/stats", adminHandler.Stats)
			adminGroup.GET("/profiles", adminHandler.ListProfiles)
			adminGroup.POST("/approve-profile", adminHandler.ApproveProfile)
			adminGroup.POST("/update-status", adminHandler.UpdateUserStatus)
			adminGroup.POST("/create-profile", adminHandler.CreateProfile)
			adminGroup.POST("/change-password", adminHandler.ResetPassword)

			adminGroup.GET("/plans", adminHandler.ListPlans)
			adminGroup.POST("/plans", adminHandler.CreatePlan)
			adminGroup.PUT("/plans/:id", adminHandler.UpdatePlan)
			adminGroup.DELETE("/plans/:id", adminHandler.DeletePlan)

			adminGroup.GET("/payments", adminHandler.ListPayments)
			adminGroup.PUT("/payments/:id", adminHandler.ReviewPayment)

			adminGroup.GET("/matches", adminHandler.ListMatchesForUser)
			adminGroup.POST("/matches", adminHandler.CreateMatch)
			adminGroup.DELETE("/matches", adminHandler.DeleteMatch)

			adminGroup.GET("/blocks", adminHandler.ListBlocks)
			adminGroup.DELETE("/blocks/:id", adminHandler.DeleteBlock)
			adminGroup.PATCH("/blocks/:id", adminHandler.SetBlockCallAllowed)

			adminGroup.GET("/call-sessions", adminHandler.ListCallSessions)
			adminGroup.GET("/call-events", adminHandler.ListCallEvents)
			adminGroup.GET("/user-call-logs", adminHandler.ListUserCallLogs)

			adminGroup.POST("/adjust-credits", adminCreditHandler.AdjustCredits)
			adminGroup.GET("/credit-distributions", adminCreditHandler.Distributions)
			adminGroup.GET("/credit-ledger", adminCreditHandler.Ledger)
			adminGroup.GET("/telephony-credits", adminCreditHandler.Overview)
			adminGroup.GET("/telephony-settings", adminCreditHandler.GetSettings)
			adminGroup.PUT("/telephony-settings", adminCreditHandler.UpdateSettings)
		}

		api.POST("/upload", authMw, apiLimit, uploadHandler.Upload)
	}

	r.GET("/ws/calls", ws.UpgradeCallWS(&cfg.JWT, callHub))
	r.GET("/health", func(c *gin.Context) { c.JSON(200, gin.H{"status": "ok"}) })

	return r, callSvc
}
