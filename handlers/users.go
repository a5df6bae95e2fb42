package handlers

import (
	"log"
	"net/http"

	"github.com/Akinaru/event-poll/database"
	"github.com/Akinaru/event-poll/models"
	"github.com/gin-gonic/gin"
)

// GetUsers lists every account
func GetUsers(c *gin.Context) {
	var users []models.User
	if err := database.DB.Order("id ASC").Find(&users).Error; err != nil {
		log.Printf("❌ Failed to fetch users: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch users"})
		return
	}

	c.JSON(http.StatusOK, models.NewUserDTOs(users))
}

// GetUser returns one account by id
func GetUser(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	respondUser(c, id)
}

// GetMe returns the account behind the bearer token
func GetMe(c *gin.Context) {
	respondUser(c, currentUserID(c))
}

func respondUser(c *gin.Context, id uint) {
	var user models.User
	if err := database.DB.First(&user, id).Error; err != nil {
		if database.IsNotFound(err) {
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return
		}
		log.Printf("❌ Failed to fetch user %d: %v", id, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch user"})
		return
	}

	c.JSON(http.StatusOK, models.NewUserDTO(&user))
}
