package restapi

import (
	"net/http"

	"nft_manager/internal/infrastructure/configloader"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
)

const swaggerSpecRoute = "/docs/swagger.yaml"

// SetupRouter builds the gin engine with all API routes.
func SetupRouter(inventoryHandler *InventoryHandler, transferHandler *TransferHandler, swagger configloader.SwaggerConfig, logger *zap.Logger) *gin.Engine {
	router := gin.New()

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowAllOrigins = true
	corsConfig.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept"}
	router.Use(cors.New(corsConfig))

	router.Use(ZapLoggerMiddleware(logger))
	router.Use(gin.Recovery())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/api/v1")
	{
		v1.GET("/chains", inventoryHandler.GetChainsHandler)
		v1.GET("/inventory/:owner", inventoryHandler.GetInventoryHandler)

		v1.GET("/wallet", inventoryHandler.GetWalletHandler)
		v1.GET("/wallet/inventory", inventoryHandler.GetWalletInventoryHandler)
		v1.POST("/wallet/inventory/refresh", inventoryHandler.RefreshWalletInventoryHandler)

		v1.POST("/transfers", transferHandler.CreateTransferHandler)
		v1.GET("/transfers/:id", transferHandler.GetTransferHandler)
	}

	if swagger.Enabled {
		router.StaticFile(swaggerSpecRoute, swagger.SpecFile)
		router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL(swaggerSpecRoute)))
		logger.Info("Swagger UI enabled", zap.String("path", "/swagger/index.html"))
	}

	return router
}
