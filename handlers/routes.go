package handlers

import "github.com/gin-gonic/gin"

// RegisterRoutes mounts every endpoint on router
func RegisterRoutes(router *gin.Engine) {
	router.GET("/health", Health)

	// WebSocket route for poll activity
	router.GET("/ws/polls/:id", HandlePollFeedWebSocket)
	router.GET("/feeds/stats", GetFeedHubStats)

	authenticated := RequireAuth(TierAuthenticated)
	admin := RequireAuth(TierAdmin)

	// Auth routes
	auth := router.Group("/auth")
	{
		auth.POST("/login", Login)
		auth.POST("/signup", Signup)
	}

	// User routes
	users := router.Group("/users", authenticated)
	{
		users.GET("", GetUsers)
		users.GET("/me", GetMe)
		users.GET("/:id", GetUser)
	}

	// Poll routes
	polls := router.Group("/polls")
	{
		polls.GET("", GetPolls)
		polls.POST("", admin, CreatePoll)
		polls.GET("/:id", GetPoll)
		polls.PUT("/:id", admin, UpdatePoll)
		polls.DELETE("/:id", admin, DeletePoll)

		// Image management
		polls.POST("/:id/image", admin, UploadPollImage)
		polls.DELETE("/:id/image", admin, DeletePollImage)

		// Votes
		polls.GET("/:id/votes", GetVotes)
		polls.POST("/:id/votes", authenticated, UpsertVote)
		polls.DELETE("/:id/votes", admin, DeleteVote)
	}

	router.GET("/images/:name", GetImage)
}
