package transport

import (
	"github.com/gin-gonic/gin"

	"github.com/yeti-set-go/asset-pipeline/internal/transport/middleware"
)

func InitRoutes(assetHandler *AssetHandler) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.Logger())

	router.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	router.GET("/assets", assetHandler.ListAssets)
	router.GET("/assets/:name", assetHandler.GetAsset)
	router.POST("/generate/:name", assetHandler.GenerateAsset)
	router.POST("/batch/:group", assetHandler.GenerateBatch)

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "ok",
			"service": "asset-pipeline",
		})
	})
	return router
}
