package api

import (
	"github.com/gin-gonic/gin"
)

func SetupRoutes(router *gin.Engine, handler *Handler) {
	router.GET("/health", handler.HealthCheck)

	router.POST("/upload", handler.Upload)

	router.GET("/users", handler.ListUsers)
	router.GET("/employees", handler.ListUsers)
	router.GET("/search", handler.Search)
	router.POST("/users/bulk-delete", handler.BulkDelete)

	user := router.Group("/user")
	{
		user.GET("/:query", handler.Lookup)
		user.POST("", handler.CreateUser)
		user.PUT("/:id", handler.UpdateUser)
		user.DELETE("/:id", handler.DeleteUser)
	}

	imports := router.Group("/imports")
	{
		imports.POST("", handler.EnqueueImport)
		imports.GET("/:id", handler.GetImport)
	}
}
