package indexer

import (
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/rawblock/cloak-pool/internal/httpmw"
	"github.com/rawblock/cloak-pool/internal/wsbus"
)

// RouterConfig selects the auth token and rate-limit knobs the
// indexer's router is built with.
type RouterConfig struct {
	AuthToken      string
	RateLimitRPM   int
	RateLimitBurst int
	AllowedOrigins string
}

// SetupRouter builds the indexer's Gin engine: public read endpoints
// and the websocket stream, a rate-limited write group for deposits,
// and a bearer-guarded admin group.
func SetupRouter(h *Handler, hub *wsbus.Hub, cfg RouterConfig, log *zap.Logger) *gin.Engine {
	r := gin.Default()

	r.Use(func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if cfg.AllowedOrigins == "" || cfg.AllowedOrigins == "*" {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		} else {
			for _, allowed := range strings.Split(cfg.AllowedOrigins, ",") {
				if strings.TrimSpace(allowed) == origin {
					c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
					break
				}
			}
		}
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	})

	pub := r.Group("/api/v1")
	{
		pub.GET("/health", h.handleHealth)
		pub.GET("/stream", hub.Subscribe)
		pub.GET("/merkle/root", h.handleMerkleRoot)
		pub.GET("/merkle/proof/:i", h.handleMerkleProof)
		pub.GET("/notes/range", h.handleNotesRange)
		pub.GET("/artifacts/:name", h.handleArtifact)
	}

	write := r.Group("/api/v1")
	write.Use(httpmw.NewRateLimiter(cfg.RateLimitRPM, cfg.RateLimitBurst).Middleware())
	{
		write.POST("/deposit", h.handleDeposit)
	}

	admin := r.Group("/api/v1/admin")
	admin.Use(httpmw.BearerAuth(cfg.AuthToken, log))
	{
		admin.POST("/push-root", h.handleAdminPushRoot)
		admin.POST("/reconcile-leaf", h.handleReconcileLeaf)
	}

	return r
}
