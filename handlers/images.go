package handlers

import (
	"errors"
	"io"
	"log"
	"net/http"
	"strings"

	"github.com/Akinaru/event-poll/database"
	"github.com/Akinaru/event-poll/models"
	"github.com/Akinaru/event-poll/services"
	"github.com/gin-gonic/gin"
)

var imageStore *services.ImageStore

// InitImages sets the store that poll images are written to and served from
func InitImages(store *services.ImageStore) {
	imageStore = store
}

// UploadPollImage attaches the first file of a multipart body to a poll,
// replacing any previous image
func UploadPollImage(c *gin.Context) {
	if imageStore == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Image store not initialized"})
		return
	}

	poll := loadPoll(c, false)
	if poll == nil {
		return
	}

	reader, err := c.Request.MultipartReader()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Multipart body required"})
		return
	}

	var name string
	for {
		part, err := reader.NextPart()
		if err == io.EOF {
			c.JSON(http.StatusBadRequest, gin.H{"error": "No file uploaded"})
			return
		}
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Malformed multipart body"})
			return
		}

		filename := part.FileName()
		mimeType := part.Header.Get("Content-Type")
		if !isFilePart(filename, mimeType) {
			// plain form field
			part.Close()
			continue
		}

		ext, err := services.ImageExtension(filename, mimeType)
		if err != nil {
			part.Close()
			c.JSON(http.StatusBadRequest, gin.H{"error": "Only .png, .jpg and .jpeg images are accepted"})
			return
		}

		name, err = imageStore.Save(part, ext)
		part.Close()
		if err != nil {
			log.Printf("❌ Failed to store image for poll %d: %v", poll.ID, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store image"})
			return
		}
		break
	}

	if err := database.DB.Model(&models.Poll{}).Where("id = ?", poll.ID).Update("image_name", name).Error; err != nil {
		log.Printf("❌ Failed to attach image to poll %d: %v", poll.ID, err)
		_ = imageStore.Remove(name)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store image"})
		return
	}

	if poll.ImageName != nil && *poll.ImageName != "" {
		if err := imageStore.Remove(*poll.ImageName); err != nil {
			log.Printf("⚠️ Failed to remove previous image %s of poll %d: %v", *poll.ImageName, poll.ID, err)
		}
	}
	poll.ImageName = &name

	log.Printf("🖼️ Poll %d image set to %s", poll.ID, name)
	dto := models.NewPollDTO(poll)
	publishEvent(models.PollEvent{
		Type:   models.EventPollImage,
		PollID: poll.ID,
		UserID: currentUserID(c),
		Poll:   &dto,
	})

	c.JSON(http.StatusOK, dto)
}

// isFilePart reports whether a multipart part carries an upload: it names a
// file or declares an image content type
func isFilePart(filename, mimeType string) bool {
	return filename != "" || strings.HasPrefix(strings.ToLower(mimeType), "image/")
}

// DeletePollImage detaches and deletes a poll's image
func DeletePollImage(c *gin.Context) {
	poll := loadPoll(c, false)
	if poll == nil {
		return
	}

	if poll.ImageName == nil || *poll.ImageName == "" {
		c.Status(http.StatusNoContent)
		return
	}

	if imageStore != nil {
		if err := imageStore.Remove(*poll.ImageName); err != nil {
			log.Printf("⚠️ Failed to remove image %s of poll %d: %v", *poll.ImageName, poll.ID, err)
		}
	}

	if err := database.DB.Model(&models.Poll{}).Where("id = ?", poll.ID).Update("image_name", nil).Error; err != nil {
		log.Printf("❌ Failed to clear image of poll %d: %v", poll.ID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to remove image"})
		return
	}
	poll.ImageName = nil

	dto := models.NewPollDTO(poll)
	publishEvent(models.PollEvent{
		Type:   models.EventPollImage,
		PollID: poll.ID,
		UserID: currentUserID(c),
		Poll:   &dto,
	})

	c.Status(http.StatusNoContent)
}

// GetImage serves a stored image by name
func GetImage(c *gin.Context) {
	if imageStore == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Image not found"})
		return
	}

	data, contentType, err := imageStore.Read(c.Param("name"))
	if err != nil {
		if errors.Is(err, services.ErrImageNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Image not found"})
			return
		}
		log.Printf("❌ Failed to read image %s: %v", c.Param("name"), err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read image"})
		return
	}

	c.Data(http.StatusOK, contentType, data)
}
