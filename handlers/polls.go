package handlers

import (
	"fmt"
	"log"
	"net/http"
	"strconv"

	"github.com/Akinaru/event-poll/database"
	"github.com/Akinaru/event-poll/models"
	"github.com/gin-gonic/gin"
)

type CreatePollRequest struct {
	Name        string     `json:"name" validate:"notblank"`
	Description string     `json:"description" validate:"notblank"`
	EventDate   *EventDate `json:"eventDate" validate:"required,future"`
}

// UpdatePollRequest fields are optional; absent fields keep their value
type UpdatePollRequest struct {
	Name        *string    `json:"name"`
	Description *string    `json:"description"`
	EventDate   *EventDate `json:"eventDate" validate:"omitempty,future"`
}

// idParam parses a numeric path parameter, answering 400 when it is not one
func idParam(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid " + name})
		return 0, false
	}
	return uint(id), true
}

// loadPoll fetches the poll named by the :id parameter. It writes the
// error response itself and returns nil when the poll cannot be served.
func loadPoll(c *gin.Context, includeVotes bool) *models.Poll {
	id, ok := idParam(c, "id")
	if !ok {
		return nil
	}

	poll, err := database.FindPoll(id, includeVotes)
	if err != nil {
		if database.IsNotFound(err) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Poll not found"})
			return nil
		}
		log.Printf("❌ Failed to fetch poll %d: %v", id, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch poll"})
		return nil
	}
	return poll
}

// GetPolls lists polls with their creators
func GetPolls(c *gin.Context) {
	polls, err := database.GetPolls(false)
	if err != nil {
		log.Printf("❌ Failed to fetch polls: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch polls"})
		return
	}

	c.JSON(http.StatusOK, models.NewPollDTOs(polls))
}

// GetPoll returns a poll with its votes
func GetPoll(c *gin.Context) {
	poll := loadPoll(c, true)
	if poll == nil {
		return
	}

	c.JSON(http.StatusOK, models.NewPollWithVotesDTO(poll))
}

// CreatePoll stores a new poll owned by the calling admin
func CreatePoll(c *gin.Context) {
	var req CreatePollRequest
	if !bindAndValidate(c, &req) {
		return
	}

	poll := models.Poll{
		Name:        req.Name,
		Description: req.Description,
		EventDate:   req.EventDate.Time(),
		UserID:      currentUserID(c),
	}
	if err := database.DB.Create(&poll).Error; err != nil {
		log.Printf("❌ Failed to create poll: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create poll"})
		return
	}

	created, err := database.FindPoll(poll.ID, true)
	if err != nil {
		log.Printf("❌ Failed to reload poll %d: %v", poll.ID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create poll"})
		return
	}

	log.Printf("📊 Poll %d created: %s", created.ID, created.Name)
	dto := models.NewPollWithVotesDTO(created)
	publishEvent(models.PollEvent{
		Type:   models.EventPollCreated,
		PollID: created.ID,
		UserID: created.UserID,
		Poll:   &dto.PollDTO,
	})

	c.Header("Location", fmt.Sprintf("/polls/%d", created.ID))
	c.JSON(http.StatusCreated, dto)
}

// UpdatePoll applies the provided fields; only eventDate is validated
func UpdatePoll(c *gin.Context) {
	var req UpdatePollRequest
	if !bindAndValidate(c, &req) {
		return
	}

	poll := loadPoll(c, true)
	if poll == nil {
		return
	}

	updates := map[string]interface{}{}
	if req.Name != nil {
		poll.Name = *req.Name
		updates["name"] = poll.Name
	}
	if req.Description != nil {
		poll.Description = *req.Description
		updates["description"] = poll.Description
	}
	if req.EventDate != nil {
		poll.EventDate = req.EventDate.Time()
		updates["event_date"] = poll.EventDate
	}

	if len(updates) > 0 {
		if err := database.DB.Model(&models.Poll{}).Where("id = ?", poll.ID).Updates(updates).Error; err != nil {
			log.Printf("❌ Failed to update poll %d: %v", poll.ID, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update poll"})
			return
		}
	}

	dto := models.NewPollWithVotesDTO(poll)
	publishEvent(models.PollEvent{
		Type:   models.EventPollUpdated,
		PollID: poll.ID,
		UserID: currentUserID(c),
		Poll:   &dto.PollDTO,
	})

	c.JSON(http.StatusOK, dto)
}

// DeletePoll removes a poll, its votes and its image file
func DeletePoll(c *gin.Context) {
	poll := loadPoll(c, false)
	if poll == nil {
		return
	}

	if err := database.DB.Delete(&models.Poll{}, poll.ID).Error; err != nil {
		log.Printf("❌ Failed to delete poll %d: %v", poll.ID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete poll"})
		return
	}

	if poll.ImageName != nil && *poll.ImageName != "" && imageStore != nil {
		if err := imageStore.Remove(*poll.ImageName); err != nil {
			log.Printf("⚠️ Failed to remove image %s of poll %d: %v", *poll.ImageName, poll.ID, err)
		}
	}

	log.Printf("🗑️ Poll %d deleted", poll.ID)
	publishEvent(models.PollEvent{
		Type:   models.EventPollDeleted,
		PollID: poll.ID,
		UserID: currentUserID(c),
	})

	c.Status(http.StatusNoContent)
}
