package app

import (
	"context"

	"emergency-fund/internal/adapters/persistence/repositories"
	"emergency-fund/internal/config"
	"emergency-fund/internal/core/services"
	"emergency-fund/internal/infrastructure/cache"
	"emergency-fund/internal/infrastructure/mq"
	"emergency-fund/internal/infrastructure/stream"
	"emergency-fund/internal/pkg/password"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Container holds the wired repositories and services shared by the HTTP
// server, the cron jobs and the CLI
type Container struct {
	Config *config.Config
	DB     *gorm.DB
	Redis  *redis.Client // nil when Redis is not configured

	Users         repositories.UserRepository
	RefreshTokens repositories.RefreshTokenRepository
	Members       *repositories.MemberRepository
	Plans         *repositories.PlanRepository
	Demands       *repositories.DemandRepository
	Contracts     *repositories.ContractRepository

	Publisher    mq.Publisher
	Stream       *stream.Hub
	Engine       *services.DemandLifecycleEngine
	Coordinator  *services.ConversionCoordinator
	DemandSvc    *services.DemandService
	PlanSvc      *services.PlanService
	AuthSvc      *services.AuthService
	UserSvc      *services.UserService
	DashboardSvc *services.DashboardService
}

// New wires every dependency. Redis and Kafka are optional: without Redis the
// identifier sequence is derived from the store, without Kafka events only
// reach the in-process stream hub.
func New(ctx context.Context, cfg *config.Config, db *gorm.DB) *Container {
	password.SetCost(cfg.JWT.PasswordCost)

	c := &Container{
		Config:        cfg,
		DB:            db,
		Users:         repositories.NewUserRepository(db),
		RefreshTokens: repositories.NewRefreshTokenRepository(db),
		Members:       repositories.NewMemberRepository(db),
		Plans:         repositories.NewPlanRepository(db),
		Demands:       repositories.NewDemandRepository(db),
		Contracts:     repositories.NewContractRepository(db),
	}

	var sequence services.IDSequence = services.NewStoreSequence(c.Demands)
	if cfg.Redis.Enabled() {
		rdb, err := cache.NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			zap.L().Warn("redis unavailable, using store sequence", zap.Error(err))
		} else {
			c.Redis = rdb
			sequence = cache.NewRedisSequence(rdb, sequence)
		}
	}

	c.Publisher = mq.NewPublisher(cfg.Kafka)
	c.Stream = stream.NewHub()
	events := mq.Fanout{c.Publisher, c.Stream}

	ids := services.NewIDFormatter(cfg.Fund.DemandPrefix, cfg.Fund.ContractPrefix, cfg.Fund.Location())
	c.Engine = services.NewDemandLifecycleEngine(c.Demands, c.Contracts, ids, sequence, services.SystemClock{}, events)
	c.Coordinator = services.NewConversionCoordinator(c.Engine)
	c.DemandSvc = services.NewDemandService(c.Engine, c.Coordinator, c.Members, c.Plans)
	c.PlanSvc = services.NewPlanService(c.Plans)
	c.AuthSvc = services.NewAuthService(c.Users, c.RefreshTokens, cfg)
	c.UserSvc = services.NewUserService(c.Users, c.RefreshTokens)
	c.DashboardSvc = services.NewDashboardService(db, services.SystemClock{})
	return c
}

// Close releases the publisher and the Redis client
func (c *Container) Close() {
	if err := c.Publisher.Close(); err != nil {
		zap.L().Warn("close publisher", zap.Error(err))
	}
	if c.Redis != nil {
		if err := c.Redis.Close(); err != nil {
			zap.L().Warn("close redis", zap.Error(err))
		}
	}
}
