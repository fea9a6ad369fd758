package relay

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/rawblock/cloak-pool/internal/httpmw"
)

// RouterConfig selects the auth token and rate-limit knobs the
// relay's router is built with.
type RouterConfig struct {
	AuthToken      string
	RateLimitRPM   int
	RateLimitBurst int
}

// SetupRouter builds the relay's Gin engine: a public health check and
// a bearer-guarded, rate-limited group for the job-mutating endpoints.
func SetupRouter(h *Handler, cfg RouterConfig, log *zap.Logger) *gin.Engine {
	r := gin.Default()

	r.GET("/api/v1/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "operational"})
	})

	jobs := r.Group("/api/v1")
	jobs.Use(httpmw.BearerAuth(cfg.AuthToken, log))
	jobs.Use(httpmw.NewRateLimiter(cfg.RateLimitRPM, cfg.RateLimitBurst).Middleware())
	{
		jobs.POST("/withdraw", h.handleWithdraw)
		jobs.POST("/unstake", h.handleUnstake)
		jobs.POST("/orchestrate", h.handleOrchestrate)
		jobs.POST("/submit", h.handleSubmit)
		jobs.GET("/status/:job_id", h.handleStatus)
	}

	return r
}
