package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"alcyxob/plan-engine/internal/service"
)

func SetupRoutes(
	router *gin.Engine,
	jwtSecret string,
	planService service.PlanService,
) {
	planHandler := NewPlanHandler(planService)
	authMiddleware := AuthMiddleware(jwtSecret)

	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	apiV1 := router.Group("/api/v1")
	{
		// The catalog is public so collaborators can build their tool lists.
		apiV1.GET("/plan/operations", planHandler.ListOperations)
	}

	protected := apiV1.Group("")
	protected.Use(authMiddleware)
	{
		protected.GET("/me", func(c *gin.Context) {
			userIDStr, err := getUserIDFromContext(c)
			if err != nil {
				abortWithError(c, http.StatusInternalServerError, "Failed to get user ID from token")
				return
			}
			c.JSON(http.StatusOK, gin.H{"userId": userIDStr})
		})

		planGroup := protected.Group("/plan")
		{
			planGroup.GET("", planHandler.GetPlan)
			planGroup.GET("/history", planHandler.GetHistory)
			planGroup.POST("/modify", planHandler.ModifyPlan)
			planGroup.POST("/undo", planHandler.Undo)
			planGroup.POST("/export", planHandler.ExportPlan)
			planGroup.POST("/operations/:name", planHandler.ExecuteOperation)
		}
	}
}
