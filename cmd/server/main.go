package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"coupon-engine/internal/codegen"
	"coupon-engine/internal/directory"
	"coupon-engine/internal/model"
	"coupon-engine/internal/repository"
	"coupon-engine/internal/service"
	"coupon-engine/pkg/config"
	"coupon-engine/pkg/database"
	apperrors "coupon-engine/pkg/errors"
	"coupon-engine/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

func main() {
	log := logger.New("coupon-engine")

	mongoURI := config.GetEnv("MONGO_URI", "mongodb://localhost:27017")
	dbName := config.GetEnv("MONGO_DB", "coupon_engine")
	port := config.GetEnv("PORT", "8080")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	mongoDB, err := database.Connect(ctx, mongoURI, dbName)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to MongoDB")
	}
	defer func() {
		if err := mongoDB.Disconnect(context.Background()); err != nil {
			log.Error().Err(err).Msg("error disconnecting from MongoDB")
		}
	}()

	log.Info().Str("db", dbName).Msg("connected to MongoDB")

	couponRepo := repository.NewCouponRepository(mongoDB.Database)
	policyRepo := repository.NewPolicyRepository(mongoDB.Database)
	ledgerRepo := repository.NewRedemptionRepository(mongoDB.Database)
	recipients := directory.NewRecipientDirectory(mongoDB.Database)
	codes := codegen.NewGenerator(couponRepo)
	uow := database.NewUnitOfWork(mongoDB.Client)

	svc := service.NewCouponService(
		couponRepo, policyRepo, ledgerRepo, recipients,
		codes, uow, service.SystemClock(), log,
	)

	router := setupRouter(svc, log)

	srv := &http.Server{
		Addr:    ":" + port,
		Handler: router,
	}

	go func() {
		log.Info().Str("port", port).Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down server")

	ctx, cancel = context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server exited")
}

func setupRouter(svc *service.CouponService, log zerolog.Logger) *gin.Engine {
	if os.Getenv("GIN_MODE") == "" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery(), requestID(), accessLog(log))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("/api")
	{
		api.POST("/coupons/single-recipient", issueSingleRecipientHandler(svc))
		api.POST("/coupons/windowed", issueWindowedHandler(svc))
		api.POST("/coupons/validate", validateHandler(svc))
		api.POST("/coupons/redeem", redeemHandler(svc))
	}

	return router
}

// requestID tags every request with an X-Request-ID, generating one
// when the caller did not supply it.
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		c.Set("request_id", id)
		c.Writer.Header().Set("X-Request-ID", id)
		c.Next()
	}
}

func accessLog(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Info().
			Str("request_id", c.GetString("request_id")).
			Str("remote_addr", c.ClientIP()).
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("elapsed", time.Since(start)).
			Str("user_agent", c.Request.UserAgent()).
			Msg("request")
	}
}

// issueSingleRecipientHandler handles POST /api/coupons/single-recipient
func issueSingleRecipientHandler(svc *service.CouponService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req model.IssueSingleRecipientRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid request body"})
			return
		}

		coupon, err := svc.IssueSingleRecipient(c.Request.Context(), &req)
		if err != nil {
			writeError(c, err)
			return
		}

		resp, err := issuedResponse(coupon)
		if err != nil {
			writeError(c, err)
			return
		}
		resp.RecipientID = req.RecipientID

		c.JSON(http.StatusCreated, gin.H{"success": true, "data": resp})
	}
}

// issueWindowedHandler handles POST /api/coupons/windowed
func issueWindowedHandler(svc *service.CouponService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req model.IssueWindowedRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid request body"})
			return
		}

		coupon, err := svc.IssueWindowed(c.Request.Context(), &req)
		if err != nil {
			writeError(c, err)
			return
		}

		resp, err := issuedResponse(coupon)
		if err != nil {
			writeError(c, err)
			return
		}
		resp.ValidFrom = &req.ValidFrom
		resp.ValidUntil = &req.ValidUntil
		resp.MaxUsesPerRecipient = req.MaxUsesPerRecipient
		resp.TotalUsageLimit = req.TotalUsageLimit

		c.JSON(http.StatusCreated, gin.H{"success": true, "data": resp})
	}
}

// validateHandler handles POST /api/coupons/validate
func validateHandler(svc *service.CouponService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req model.ValidateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid request body"})
			return
		}

		decision, err := svc.Validate(c.Request.Context(), req.Code, req.RecipientID)
		if err != nil {
			writeError(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"success": true, "valid": decision.CanRedeem, "data": decision})
	}
}

// redeemHandler handles POST /api/coupons/redeem
func redeemHandler(svc *service.CouponService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req model.RedeemRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid request body"})
			return
		}

		redemption, err := svc.Redeem(c.Request.Context(), req.Code, req.RecipientID, req.OrderReference)
		if err != nil {
			writeError(c, err)
			return
		}

		discount, err := model.FromDecimal128(redemption.DiscountApplied)
		if err != nil {
			writeError(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"success": true, "data": model.RedemptionResponse{
			RedemptionID:    redemption.ID.Hex(),
			CouponID:        redemption.CouponID.Hex(),
			Code:            req.Code,
			RecipientID:     redemption.RecipientID,
			DiscountApplied: discount,
			RedeemedAt:      redemption.RedeemedAt,
			OrderReference:  redemption.OrderReference,
		}})
	}
}

func issuedResponse(coupon *model.Coupon) (*model.IssuedCouponResponse, error) {
	value, err := model.FromDecimal128(coupon.DiscountValue)
	if err != nil {
		return nil, err
	}
	return &model.IssuedCouponResponse{
		CouponID:      coupon.ID.Hex(),
		Code:          coupon.Code,
		CouponType:    coupon.Type,
		DiscountType:  coupon.DiscountType,
		DiscountValue: value,
		CreatedAt:     coupon.CreatedAt,
	}, nil
}

func writeError(c *gin.Context, err error) {
	var rejection *apperrors.RejectionError
	switch {
	case errors.As(err, &rejection):
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "cannot redeem coupon", "reason": rejection.Reason})
	case errors.Is(err, apperrors.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
	case errors.Is(err, apperrors.ErrRecipientNotFound):
		c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "recipient not found"})
	case errors.Is(err, apperrors.ErrCouponNotFound):
		c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "coupon not found"})
	case errors.Is(err, apperrors.ErrStoreUnavailable):
		c.JSON(http.StatusServiceUnavailable, gin.H{"success": false, "error": "store unavailable, retry the request"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "internal server error"})
	}
}
