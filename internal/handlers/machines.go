package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/fieldmind/fieldmind-go-backend/internal/models"
)

func Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "app": "FieldMind", "version": "2.0.0"})
}

// Machines serves the static CAT/JCB equipment catalog.
func Machines(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"data": models.MachineCatalog})
}
