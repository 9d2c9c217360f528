package handlers

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/fieldmind/fieldmind-go-backend/internal/ai"
	"github.com/fieldmind/fieldmind-go-backend/internal/db"
)

var aiClient *ai.Client

// InitParts wires the AI client used for part identification.
func InitParts(client *ai.Client) {
	aiClient = client
}

// IdentifyParts matches a part photo or description against the CAT/JCB
// catalog via the vision model and records the search for later analysis.
func IdentifyParts(c *gin.Context) {
	var request struct {
		Description  string `json:"description"`
		ImageBase64  string `json:"image_base64"`
		MachineModel string `json:"machine_model"`
		Language     string `json:"language"`
	}
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if request.Description == "" && request.ImageBase64 == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "description or image_base64 required"})
		return
	}

	result, err := aiClient.IdentifyParts(c.Request.Context(), ai.PartsRequest{
		Description:  request.Description,
		ImageBase64:  request.ImageBase64,
		MachineModel: request.MachineModel,
		Language:     request.Language,
	})
	if err != nil {
		log.Printf("Parts identification failed: %v", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "Part identification unavailable"})
		return
	}

	description := request.Description
	if description == "" {
		description = "image"
	}
	collection := db.GetCollection("parts_searches")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := collection.InsertOne(ctx, gin.H{
		"_id":         uuid.NewString(),
		"description": description,
		"results":     string(result),
		"language":    request.Language,
		"created_at":  time.Now().UTC(),
	}); err != nil {
		log.Printf("Failed to persist parts search: %v", err)
	}

	c.Data(http.StatusOK, "application/json", result)
}
