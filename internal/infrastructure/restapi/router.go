package restapi

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RouterOptions controls the optional parts of the router.
type RouterOptions struct {
	// MetricsHandler is mounted at MetricsPath when non-nil.
	MetricsHandler http.Handler
	MetricsPath    string
}

// SetupRouter настраивает и возвращает экземпляр Gin роутера.
func SetupRouter(h *Handler, logger *zap.Logger, opts RouterOptions) *gin.Engine {
	router := gin.New()
	router.Use(ZapLoggerMiddleware(logger), gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowOrigins:  []string{"*"},
		AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept"},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * time.Hour,
	}))

	router.GET("/health", h.Health)
	if opts.MetricsHandler != nil {
		path := opts.MetricsPath
		if path == "" {
			path = "/metrics"
		}
		router.GET(path, gin.WrapH(opts.MetricsHandler))
	}

	// Группа для API v1
	v1 := router.Group("/api/v1")
	{
		v1.GET("/networks", h.ListNetworks)
		v1.GET("/networks/:name/health", h.NetworkHealth)
		v1.POST("/network", h.SwitchNetwork)

		v1.GET("/prices", h.GetPrices)
		v1.GET("/prices/:symbol", h.GetPrice)
		v1.GET("/symbols", h.SupportedSymbols)

		v1.GET("/epoch", h.CurrentEpoch)
		v1.GET("/epoch/verify", h.VerifyEpochLength)

		v1.GET("/contracts", h.ListContracts)
		v1.GET("/contracts/:name", h.ResolveContract)
	}

	return router
}
