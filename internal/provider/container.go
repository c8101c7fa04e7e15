package provider

import (
	"github.com/giftloop/internal/cache"
	"github.com/giftloop/internal/config"
	"github.com/giftloop/internal/logger"
	"github.com/giftloop/internal/models"
	"github.com/giftloop/internal/queue"
	"github.com/giftloop/internal/repository"
	"github.com/giftloop/internal/service"
)

// Container 依赖注入容器
type Container struct {
	Config      *config.Config
	QueueClient *queue.Client

	// Repositories
	UserRepo         repository.UserRepository
	GiftRepo         repository.GiftRepository
	GiftOrderRepo    repository.GiftOrderRepository
	OrderRepo        repository.OrderRepository
	NotificationRepo repository.NotificationRepository

	// Services
	UserAuthService     *service.UserAuthService
	GiftService         *service.GiftService
	GiftOrderService    *service.GiftOrderService
	FulfillmentService  *service.FulfillmentService
	NotificationService *service.NotificationService
}

// NewContainer 初始化容器
func NewContainer(cfg *config.Config) *Container {
	// 初始化缓存
	if err := cache.InitRedis(&cfg.Redis); err != nil {
		logger.Warnw("provider_init_redis_failed", "error", err)
	}

	// 初始化队列客户端
	var queueClient *queue.Client
	if cfg.Queue.Enabled {
		qc, err := queue.NewClient(&cfg.Queue)
		if err != nil {
			logger.Errorw("provider_init_queue_client_failed", "error", err)
		} else {
			queueClient = qc
		}
	}

	c := &Container{
		Config:      cfg,
		QueueClient: queueClient,
	}

	// 1. 初始化 Repositories
	c.initRepositories()

	// 2. 初始化 Services
	c.initServices()

	return c
}

func (c *Container) initRepositories() {
	db := models.DB
	c.UserRepo = repository.NewUserRepository(db)
	c.GiftRepo = repository.NewGiftRepository(db)
	c.GiftOrderRepo = repository.NewGiftOrderRepository(db)
	c.OrderRepo = repository.NewOrderRepository(db)
	c.NotificationRepo = repository.NewNotificationRepository(db)
}

func (c *Container) initServices() {
	c.UserAuthService = service.NewUserAuthService(c.Config, c.UserRepo)
	c.NotificationService = service.NewNotificationService(c.NotificationRepo, c.QueueClient)
	c.FulfillmentService = service.NewFulfillmentService(c.OrderRepo, c.GiftRepo)
	c.GiftOrderService = service.NewGiftOrderService(c.GiftOrderRepo, c.GiftRepo, c.QueueClient, c.NotificationService, c.Config.Gift.PaymentExpireMinutes)
	c.GiftService = service.NewGiftService(c.GiftRepo, c.GiftOrderRepo, c.UserRepo, c.FulfillmentService, c.NotificationService, c.QueueClient, c.Config.Gift.ExpireDays, c.Config.Gift.PaymentExpireMinutes, c.Config.Gift.SweepBatchSize)
}
