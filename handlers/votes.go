package handlers

import (
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/Akinaru/event-poll/database"
	"github.com/Akinaru/event-poll/models"
	"github.com/gin-gonic/gin"
)

type VoteRequest struct {
	Status *bool `json:"status" validate:"required"`
}

// existingPollID resolves the :id parameter to the id of an existing poll
func existingPollID(c *gin.Context) (uint, bool) {
	pollID, ok := idParam(c, "id")
	if !ok {
		return 0, false
	}

	exists, err := database.PollExists(pollID)
	if err != nil {
		log.Printf("❌ Failed to check poll %d: %v", pollID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch poll"})
		return 0, false
	}
	if !exists {
		c.JSON(http.StatusNotFound, gin.H{"error": "Poll not found"})
		return 0, false
	}
	return pollID, true
}

// GetVotes lists the votes of a poll with their voters
func GetVotes(c *gin.Context) {
	poll := loadPoll(c, true)
	if poll == nil {
		return
	}

	c.JSON(http.StatusOK, models.NewVoteDTOs(poll.Votes))
}

// UpsertVote records the caller's vote, or changes its status when the
// caller already voted. The first creation time is kept.
func UpsertVote(c *gin.Context) {
	pollID, ok := existingPollID(c)
	if !ok {
		return
	}

	var req VoteRequest
	if !bindAndValidate(c, &req) {
		return
	}

	userID := currentUserID(c)
	vote, err := database.UpsertVote(pollID, userID, *req.Status, time.Now())
	if err != nil {
		// The poll may have been deleted since the check above
		if exists, _ := database.PollExists(pollID); !exists {
			c.JSON(http.StatusNotFound, gin.H{"error": "Poll not found"})
			return
		}
		log.Printf("❌ Failed to save vote of user %d on poll %d: %v", userID, pollID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save vote"})
		return
	}

	dto := models.NewVoteDTO(vote)
	publishEvent(models.PollEvent{
		Type:   models.EventVoteUpsert,
		PollID: pollID,
		UserID: userID,
		Vote:   &dto,
	})

	c.Header("Location", fmt.Sprintf("/polls/%d/votes", pollID))
	c.JSON(http.StatusCreated, dto)
}

// DeleteVote removes the caller's own vote on a poll
func DeleteVote(c *gin.Context) {
	pollID, ok := existingPollID(c)
	if !ok {
		return
	}

	userID := currentUserID(c)
	if err := database.DeleteVote(pollID, userID); err != nil {
		if database.IsNotFound(err) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Vote not found"})
			return
		}
		log.Printf("❌ Failed to delete vote of user %d on poll %d: %v", userID, pollID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete vote"})
		return
	}

	publishEvent(models.PollEvent{
		Type:   models.EventVoteDeleted,
		PollID: pollID,
		UserID: userID,
	})

	c.Status(http.StatusNoContent)
}
