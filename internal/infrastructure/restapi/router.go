package restapi

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// SetupRouter configures the Gin router with the engine endpoints and
// the Prometheus scrape endpoint.
func SetupRouter(engineHandler *EngineHandler) *gin.Engine {
	router := gin.Default()
	router.Use(cors.Default())

	v1 := router.Group("/api/v1")
	{
		v1.GET("/status", engineHandler.GetStatusHandler)
		v1.GET("/balance/:code", engineHandler.GetBalanceHandler)
		v1.GET("/transactions/:code", engineHandler.GetTransactionsHandler)
		v1.GET("/assets", engineHandler.GetEnabledAssetsHandler)
		v1.POST("/assets/enable", engineHandler.EnableAssetsHandler)
		v1.POST("/assets/disable", engineHandler.DisableAssetsHandler)
		v1.POST("/tokens", engineHandler.AddCustomTokenHandler)
		v1.POST("/spend", engineHandler.SpendHandler)
		v1.POST("/broadcast", engineHandler.BroadcastHandler)
		v1.POST("/resync", engineHandler.ResyncHandler)
	}

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return router
}
