package router

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"noafarin/evaluation-service/config"
	"noafarin/evaluation-service/internal/api/handler"
	"noafarin/evaluation-service/internal/api/middleware"
	"noafarin/evaluation-service/pkg/jwt"
	"noafarin/evaluation-service/pkg/redis"
)

// Setup 初始化并返回 Gin 路由引擎
// rdb 为 nil 时黑名单与限流降级放行；db 为 nil 时 /health 不检查数据库
func Setup(cfg *config.Config, h *handler.Handler, jwtMgr *jwt.Manager, rdb *redis.Client, db *gorm.DB, logger *zap.Logger) *gin.Engine {
	r := gin.New()

	// ── 全局中间件 ──
	r.Use(gin.Recovery())
	r.Use(otelgin.Middleware(cfg.Tracing.ServiceName))
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS(cfg.Server.CORS.AllowOrigins))
	r.Use(middleware.BodyLimit(cfg.Server.BodyLimitBytes))

	// ── 健康检查 ──
	r.GET("/health", healthHandler(db, rdb))

	writeLimit := middleware.RateLimit(rdb, cfg.RateLimit.Requests, cfg.RateLimit.Window)
	evaluators := middleware.RoleAuth(middleware.RoleAdmin, middleware.RoleJudge, middleware.RoleMentor)
	adminOnly := middleware.RoleAuth(middleware.RoleAdmin)

	// ── API v1 ──
	v1 := r.Group("/api/v1")
	v1.Use(middleware.JWTAuth(jwtMgr, rdb))
	{
		// 评估模块
		evaluations := v1.Group("/evaluations")
		{
			evaluations.GET("", h.Evaluation.ListEvaluations)
			evaluations.POST("", evaluators, writeLimit, h.Evaluation.CreateEvaluation)

			// 排行榜
			evaluations.GET("/leaderboard", h.Leaderboard.GetLeaderboard)
			evaluations.GET("/leaderboard/export", adminOnly, h.Leaderboard.ExportLeaderboard)

			evaluations.GET("/team/:teamId", h.Evaluation.ListTeamEvaluations)
			evaluations.GET("/team/:teamId/average", h.Evaluation.GetTeamAverage)

			evaluations.GET("/:id", h.Evaluation.GetEvaluation)
			evaluations.PUT("/:id", evaluators, writeLimit, h.Evaluation.UpdateEvaluation)
			evaluations.DELETE("/:id", adminOnly, writeLimit, h.Evaluation.DeleteEvaluation)
			evaluations.POST("/:id/submit", evaluators, writeLimit, h.Evaluation.SubmitEvaluation)
			evaluations.POST("/:id/review", adminOnly, writeLimit, h.Evaluation.ReviewEvaluation)
		}
	}

	return r
}

// healthHandler 数据库不可用时返回 503；Redis 不可用仅标记降级
func healthHandler(db *gorm.DB, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		if db != nil {
			sqlDB, err := db.DB()
			if err == nil {
				err = sqlDB.PingContext(ctx)
			}
			if err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "database": "down"})
				return
			}
		}

		status := gin.H{"status": "ok"}
		if rdb == nil || rdb.Ping(ctx) != nil {
			status["redis"] = "degraded"
		}
		c.JSON(http.StatusOK, status)
	}
}
