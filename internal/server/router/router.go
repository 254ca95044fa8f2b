package router

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/gestock/internal/server/handlers"
)

// New wires the Gin engine with required routes and middlewares.
func New(handler *handlers.StockHandler, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(zapLoggerMiddleware(logger))

	r.POST("/login", handler.Login)

	r.GET("/articles", handler.ListArticles)
	r.POST("/articles", handler.CreateArticle)
	r.GET("/articles/:id", handler.GetArticle)
	r.PUT("/articles/:id", handler.UpdateArticle)
	r.DELETE("/articles/:id", handler.DeleteArticle)

	r.GET("/ventes", handler.ListSales)
	r.POST("/ventes", handler.RegisterSale)
	r.PUT("/ventes", handler.EditSale)

	r.GET("/achats", handler.ListPurchases)
	r.POST("/achats", handler.RegisterPurchase)
	r.PUT("/achats", handler.EditPurchase)

	r.GET("/inventaire", handler.GetReport)
	r.POST("/inventaire/export", handler.ExportReport)

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	if logger != nil {
		logger.Info("router initialized")
	}

	return r
}

func zapLoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}

	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logger.Info("request completed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("client_ip", c.ClientIP()))
	}
}
