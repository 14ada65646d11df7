package http

import (
	"context"
	"log/slog"
	"time"

	"github.com/geocoder89/schoolhub/internal/auth"
	"github.com/geocoder89/schoolhub/internal/config"
	"github.com/geocoder89/schoolhub/internal/domain/user"
	"github.com/geocoder89/schoolhub/internal/http/handlers"
	"github.com/geocoder89/schoolhub/internal/http/middlewares"
	"github.com/geocoder89/schoolhub/internal/observability"
	"github.com/geocoder89/schoolhub/internal/repo/postgres"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

const maxBodyBytes = 1 << 20 // 1 MiB is plenty for any payload here

func NewRouter(log *slog.Logger, pool *pgxpool.Pool, rdb *redis.Client, prom *observability.Prom, cfg config.Config) *gin.Engine {
	if cfg.Env != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()

	// middleware

	r.Use(gin.Recovery())
	r.Use(middlewares.RequestID())
	r.Use(middlewares.RequestLogger())
	r.Use(middlewares.SecurityHeaders())

	if len(cfg.AllowedOrigins) > 0 {
		r.Use(middlewares.CORSMiddleware(cfg.AllowedOrigins))
	}

	r.Use(middlewares.MaxBodyBytes(maxBodyBytes))
	r.Use(middlewares.RequireJSON())

	if prom != nil {
		r.Use(prom.GinHandleMiddleware())
	}

	if cfg.OTELEnabled {
		r.Use(otelgin.Middleware("schoolhub"))
	}

	// health
	ping := func() error {
		if pool == nil {
			return nil
		}

		ctx, cancel := context.WithTimeout(context.Background(), 1*time.Second)
		defer cancel()

		return pool.Ping(ctx)
	}

	h := handlers.NewHealthHandler(ping)
	r.GET("/healthz", h.Healthz)
	r.GET("/readyz", h.Readyz)

	// wire up repositories
	usersRepo := postgres.NewUsersRepo(pool, prom)
	orgsRepo := postgres.NewOrganizationsRepo(pool, prom)
	refreshRepo := postgres.NewRefreshTokensRepo(pool, prom)

	jwtManager := auth.NewManager(cfg.JWTSecret, cfg.AccessTTL(), cfg.RefreshTTL())
	authMW := middlewares.NewAuthMiddleware(jwtManager)

	authHandler := handlers.NewAuthHandler(usersRepo, jwtManager, refreshRepo, prom, cfg)
	meHandler := handlers.NewMeHandler(usersRepo, orgsRepo)
	usersHandler := handlers.NewUsersHandler(usersRepo)

	// credential guessing gets throttled per IP; shared counter when redis
	// is configured, per-process bucket otherwise
	loginWindow := time.Duration(cfg.LoginRateWindowSecs) * time.Second
	var loginLimiter gin.HandlerFunc

	if rdb != nil {
		loginLimiter = middlewares.NewRedisRateLimiter(rdb, cfg.LoginRateLimit, loginWindow).RateLimiterMiddleware(middlewares.KeyByIP)
	} else {
		loginLimiter = middlewares.NewRateLimiter(cfg.LoginRateLimit, loginWindow).RateLimiterMiddleware(middlewares.KeyByIP)
	}

	// authenticated surface is throttled per user, not per IP, so a NAT'd
	// campus does not share a bucket
	apiWindow := time.Duration(cfg.APIRateWindowSecs) * time.Second
	apiLimiter := middlewares.NewRateLimiter(cfg.APIRateLimit, apiWindow).RateLimiterMiddleware(middlewares.KeyByUserOrIP)

	authGroup := r.Group("/auth")
	authGroup.POST("/login", loginLimiter, authHandler.Login)
	authGroup.POST("/refresh", authHandler.Refresh)
	authGroup.POST("/logout", authHandler.Logout)
	authGroup.POST("/logout-all", authMW.RequireAuth(), authHandler.LogoutAll)

	me := r.Group("/me", authMW.RequireAuth(), apiLimiter)
	me.GET("", meHandler.GetMe)
	me.PATCH("", meHandler.UpdateMe)

	// admin-only, always scoped to the caller's organization
	users := r.Group("/users", authMW.RequireAuth(), authMW.RequireRole(user.RoleAdmin), apiLimiter)
	users.GET("", usersHandler.ListUsers)
	users.GET("/:id", usersHandler.GetUser)
	users.POST("", usersHandler.CreateUser)

	return r
}
