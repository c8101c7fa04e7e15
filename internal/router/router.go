package router

import (
	"fmt"
	"strings"

	"github.com/giftloop/internal/cache"
	"github.com/giftloop/internal/config"
	publichandlers "github.com/giftloop/internal/http/handlers/public"
	"github.com/giftloop/internal/logger"
	"github.com/giftloop/internal/provider"

	"github.com/gin-gonic/gin"
)

// SetupRouter 初始化路由
func SetupRouter(cfg *config.Config, c *provider.Container) *gin.Engine {
	log := logger.L
	if log == nil {
		log = logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	}
	r := gin.New()

	publicHandler := publichandlers.New(c)
	redisPrefix := strings.TrimSpace(cfg.Redis.Prefix)
	if redisPrefix == "" {
		redisPrefix = "gl"
	}
	redisClient := cache.Client()
	loginRule := RateLimitRule{
		Prefix:        fmt.Sprintf("%s:rate:login", redisPrefix),
		WindowSeconds: cfg.Security.LoginRateLimit.WindowSeconds,
		MaxRequests:   cfg.Security.LoginRateLimit.MaxAttempts,
		Message:       "登录尝试过于频繁，请在 %d 秒后重试",
	}
	redeemRule := RateLimitRule{
		Prefix:        fmt.Sprintf("%s:rate:redeem", redisPrefix),
		WindowSeconds: cfg.Security.RedeemRateLimit.WindowSeconds,
		MaxRequests:   cfg.Security.RedeemRateLimit.MaxAttempts,
		Message:       "兑换尝试过于频繁，请在 %d 秒后重试",
	}

	// 中间件
	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())
	r.Use(LoggerMiddleware(log))
	r.Use(CORSMiddleware(cfg.CORS))

	// API 路由组
	apiV1 := r.Group("/api/v1")
	{
		// 用户认证接口
		auth := apiV1.Group("/auth")
		{
			auth.POST("/register", publicHandler.UserRegister)
			auth.POST("/login", RateLimitMiddleware(redisClient, loginRule, KeyByIPAndJSONField("email")), publicHandler.UserLogin)
		}

		// 用户接口（需鉴权）
		user := apiV1.Group("")
		user.Use(UserJWTAuthMiddleware(cfg.UserJWT.SecretKey, c.UserRepo))
		{
			user.GET("/me", publicHandler.UserProfile)
			user.POST("/me/verify-email", publicHandler.UserVerifyEmail)
			user.PUT("/me/password", publicHandler.UserChangePassword)

			// 礼物
			user.POST("/gifts", publicHandler.SendGift)
			user.GET("/gifts/sent", publicHandler.ListSentGifts)
			user.GET("/gifts/received", publicHandler.ListReceivedGifts)
			user.GET("/gifts/by-code/:code", publicHandler.GetGiftByCode)
			user.POST("/gifts/redeem", RateLimitMiddleware(redisClient, redeemRule, KeyByIP), publicHandler.RedeemGift)
			user.POST("/gifts/:id/swap", publicHandler.SwapGift)
			user.POST("/gifts/:id/cancel", publicHandler.CancelGift)

			// 购买单
			user.GET("/gift-orders", publicHandler.ListGiftOrders)
			user.GET("/gift-orders/:id", publicHandler.GetGiftOrder)
			user.POST("/gift-orders/:id/pay", publicHandler.ConfirmGiftPayment)
			user.POST("/gift-orders/:id/cancel", publicHandler.CancelGiftOrder)

			// 履约订单
			user.GET("/orders", publicHandler.ListOrders)
			user.GET("/orders/:id", publicHandler.GetOrder)
			user.POST("/orders/:id/confirm-delivered", publicHandler.ConfirmOrderDelivered)

			// 站内通知
			user.GET("/notifications", publicHandler.ListNotifications)
			user.GET("/notifications/unread-count", publicHandler.CountUnreadNotifications)
			user.POST("/notifications/:id/read", publicHandler.MarkNotificationRead)
		}
	}

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	return r
}
