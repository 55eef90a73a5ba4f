package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"

	"github.com/toanftraanf/cdyt-clone-in-springboot/internal/core/port"
	"github.com/toanftraanf/cdyt-clone-in-springboot/internal/infra/cache"
	"github.com/toanftraanf/cdyt-clone-in-springboot/internal/infra/config"
	"github.com/toanftraanf/cdyt-clone-in-springboot/internal/infra/database"
	kafkainfra "github.com/toanftraanf/cdyt-clone-in-springboot/internal/infra/kafka"
	"github.com/toanftraanf/cdyt-clone-in-springboot/internal/infra/logger"
	redisinfra "github.com/toanftraanf/cdyt-clone-in-springboot/internal/infra/redis"
	"github.com/toanftraanf/cdyt-clone-in-springboot/internal/infra/security"
	"github.com/toanftraanf/cdyt-clone-in-springboot/internal/infra/telemetry"
	postgresrepo "github.com/toanftraanf/cdyt-clone-in-springboot/internal/repository/postgres"
	redisrepo "github.com/toanftraanf/cdyt-clone-in-springboot/internal/repository/redis"
	transportgrpc "github.com/toanftraanf/cdyt-clone-in-springboot/internal/transport/grpc"
	grpcinterceptors "github.com/toanftraanf/cdyt-clone-in-springboot/internal/transport/grpc/interceptors"
	"github.com/toanftraanf/cdyt-clone-in-springboot/internal/transport/http/handlers"
	"github.com/toanftraanf/cdyt-clone-in-springboot/internal/transport/http/middleware"
	"github.com/toanftraanf/cdyt-clone-in-springboot/internal/transport/http/routes"
	"github.com/toanftraanf/cdyt-clone-in-springboot/internal/usecase"
)

type Application struct {
	cfg        *config.AppConfig
	engine     *gin.Engine
	logger     *zap.Logger
	pool       *pgxpool.Pool
	redis      *redisinfra.Client
	tracer     *telemetry.TracerProvider
	producer   *kafkainfra.Producer
	consumer   *kafkainfra.ConsumerGroup
	grpcServer *transportgrpc.Server
	grpcAddr   string
}

func New(ctx context.Context, cfg *config.AppConfig) (_ *Application, err error) {
	log, err := logger.New(cfg.App.Env, cfg.App.Name)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	a := &Application{cfg: cfg, logger: log}
	defer func() {
		if err != nil {
			a.release()
		}
	}()

	if a.tracer, err = telemetry.Setup(ctx, cfg.Telemetry, log); err != nil {
		return nil, fmt.Errorf("init telemetry: %w", err)
	}

	if a.pool, err = database.NewPostgresPool(ctx, cfg.Postgres, log); err != nil {
		return nil, fmt.Errorf("init postgres: %w", err)
	}
	if a.redis, err = redisinfra.NewClient(ctx, cfg.Redis, log); err != nil {
		return nil, fmt.Errorf("init redis: %w", err)
	}

	codec, err := security.NewTokenCodec([]byte(cfg.Auth.JWTSecret), cfg.Auth.TokenTTL)
	if err != nil {
		return nil, fmt.Errorf("init token codec: %w", err)
	}
	hasher, err := security.NewPasswordHasher(security.Argon2Config{
		Memory:      cfg.Argon2.Memory,
		Iterations:  cfg.Argon2.Iterations,
		Parallelism: cfg.Argon2.Parallelism,
		SaltLength:  cfg.Argon2.SaltLength,
		KeyLength:   cfg.Argon2.KeyLength,
	})
	if err != nil {
		return nil, fmt.Errorf("configure argon2: %w", err)
	}

	authMetrics, err := telemetry.NewAuthMetrics(prometheus.DefaultRegisterer)
	if err != nil {
		return nil, fmt.Errorf("init auth metrics: %w", err)
	}
	httpMetrics, err := middleware.NewHTTPMetrics(middleware.HTTPMetricsOptions{})
	if err != nil {
		return nil, fmt.Errorf("init http metrics: %w", err)
	}

	repos := postgresrepo.NewRepositories(a.pool)
	events := a.eventPublisher()

	sessions := usecase.NewTokenStore(repos.Tokens, codec, events, usecase.TokenStoreConfig{
		SessionTTL:    cfg.Auth.SessionTTL,
		RememberMeTTL: cfg.Auth.RememberMeTTL,
	}, log)
	identities := usecase.NewIdentityCache(repos.Identities, cache.Config{
		TTL:     cfg.Cache.IdentityTTL,
		Observe: authMetrics.CacheObserver("identity"),
	})
	grants := usecase.NewPermissionCache(repos.Functions, cache.Config{
		TTL:     cfg.Cache.PermissionTTL,
		Observe: authMetrics.CacheObserver("permission"),
	})
	resolver := usecase.NewPermissionResolver(repos.Functions, grants, log)
	authService := usecase.NewAuthService(repos.Identities, sessions, hasher, security.DefaultPasswordPolicy(), identities, log)

	window := cfg.RateLimit.WindowDuration
	if window <= 0 {
		window = time.Minute
	}
	rateLimiter := middleware.NewRateLimiter(redisrepo.NewRateLimitRepository(a.redis.Client(), redisrepo.SlidingWindowConfig{
		KeyPrefix: cfg.Redis.RateLimitPrefix,
		TTL:       window * 2,
	}), log)

	if len(cfg.Kafka.Brokers) > 0 {
		invalidation := kafkainfra.NewCacheInvalidationConsumer(identities, grants, cfg.Kafka.TopicPrefix, log)
		if a.consumer, err = kafkainfra.NewConsumerGroup(cfg.Kafka, cfg.App.Name, invalidation, log); err != nil {
			log.Warn("failed to init cache invalidation consumer, relying on TTL expiry", zap.Error(err))
			a.consumer, err = nil, nil
		}
	}

	if cfg.GRPC.Enabled {
		grpcMetrics, err := grpcinterceptors.NewGRPCMetrics(grpcinterceptors.GRPCMetricsOptions{})
		if err != nil {
			return nil, fmt.Errorf("init grpc metrics: %w", err)
		}
		a.grpcServer, err = transportgrpc.NewServer(transportgrpc.ServerDependencies{
			Tokens:      sessions,
			Identities:  identities,
			Permissions: resolver,
			Decisions:   authMetrics,
			Metrics:     grpcMetrics,
			Tracing:     grpcinterceptors.NewTracing(grpcinterceptors.TracingOptions{}),
			Logger:      log,
		})
		if err != nil {
			return nil, fmt.Errorf("init grpc server: %w", err)
		}
		a.grpcAddr = net.JoinHostPort(cfg.GRPC.Host, fmt.Sprint(cfg.GRPC.Port))
	}

	a.engine = routes.Register(routes.Dependencies{
		Config:          cfg,
		Logger:          log,
		HTTPMetrics:     httpMetrics,
		RateLimiter:     rateLimiter,
		Authenticator:   middleware.NewRequestAuthenticator(sessions, identities, cfg.Auth.PublicPaths, authMetrics, log),
		Interceptor:     middleware.NewAuthorizationInterceptor(identities, resolver, authMetrics, log),
		Auth:            authService,
		IdentityCache:   identities,
		PermissionCache: grants,
		Sessions:        authService,
		Readiness: []handlers.ReadinessCheck{
			{Name: "postgres", Probe: a.pool.Ping},
			{Name: "redis", Probe: a.redis.Ping},
		},
	})

	return a, nil
}

// eventPublisher returns the kafka publisher, or the logging stub when no
// brokers are configured or the producer cannot start.
func (a *Application) eventPublisher() port.EventPublisher {
	if len(a.cfg.Kafka.Brokers) == 0 {
		a.logger.Info("kafka brokers not configured, using stub publisher")
		return kafkainfra.NewStubPublisher(a.logger)
	}

	producer, err := kafkainfra.NewProducer(a.cfg.Kafka, a.cfg.App.Name, a.logger)
	if err != nil {
		a.logger.Warn("failed to init kafka producer, using stub publisher", zap.Error(err))
		return kafkainfra.NewStubPublisher(a.logger)
	}
	a.producer = producer
	a.logger.Info("kafka event publisher initialized", zap.Strings("brokers", a.cfg.Kafka.Brokers))
	return kafkainfra.NewEventPublisher(producer, a.cfg.App, a.logger)
}

func (a *Application) Run(ctx context.Context) error {
	defer a.release()

	srv := &http.Server{
		Addr:              net.JoinHostPort(a.cfg.App.Host, fmt.Sprint(a.cfg.App.Port)),
		Handler:           a.engine,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	var grpcListener net.Listener
	if a.grpcServer != nil {
		lis, err := net.Listen("tcp", a.grpcAddr)
		if err != nil {
			return fmt.Errorf("listen grpc: %w", err)
		}
		grpcListener = lis
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.logger.Info("starting CMS API",
			zap.String("env", a.cfg.App.Env),
			zap.String("address", srv.Addr),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("run server: %w", err)
		}
		return nil
	})

	if grpcListener != nil {
		g.Go(func() error {
			a.logger.Info("starting gRPC server", zap.String("address", a.grpcAddr))
			if err := a.grpcServer.Serve(grpcListener); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
				return fmt.Errorf("run grpc server: %w", err)
			}
			return nil
		})
	}

	if a.consumer != nil {
		g.Go(func() error {
			return a.consumer.Run(ctx)
		})
	}

	g.Go(func() error {
		<-ctx.Done()
		if a.grpcServer != nil {
			a.grpcServer.Shutdown()
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown server: %w", err)
		}
		return nil
	})

	return g.Wait()
}

func (a *Application) release() {
	if a.consumer != nil {
		if err := a.consumer.Close(); err != nil {
			a.logger.Warn("failed to close kafka consumer", zap.Error(err))
		}
	}
	if a.producer != nil {
		if err := a.producer.Close(); err != nil {
			a.logger.Warn("failed to close kafka producer", zap.Error(err))
		}
	}
	if a.tracer != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := a.tracer.Shutdown(shutdownCtx); err != nil {
			a.logger.Warn("failed to shut down tracer provider", zap.Error(err))
		}
	}
	if a.redis != nil {
		_ = a.redis.Close()
	}
	if a.pool != nil {
		a.pool.Close()
	}
	_ = a.logger.Sync()
}
