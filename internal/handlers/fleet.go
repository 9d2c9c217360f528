package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/fieldmind/fieldmind-go-backend/internal/db"
	"github.com/fieldmind/fieldmind-go-backend/internal/models"
)

// FleetAnalytics aggregates completed inspections for the supervisor view:
// totals, breakdown by overall status and the most recent reports.
func FleetAnalytics(c *gin.Context) {
	collection := db.GetCollection("inspections")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	total, err := collection.CountDocuments(ctx, bson.M{})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	pipeline := []bson.M{
		{"$match": bson.M{"status": models.InspectionComplete}},
		{"$group": bson.M{"_id": "$overall_status", "n": bson.M{"$sum": 1}}},
	}
	cur, err := collection.Aggregate(ctx, pipeline)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	defer cur.Close(ctx)

	byStatus := []bson.M{}
	for cur.Next(ctx) {
		var row bson.M
		if err := cur.Decode(&row); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		byStatus = append(byStatus, row)
	}

	findOptions := options.Find()
	findOptions.SetSort(bson.D{{Key: "created_at", Value: -1}})
	findOptions.SetLimit(20)
	recentCur, err := collection.Find(ctx, bson.M{"status": models.InspectionComplete}, findOptions)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	defer recentCur.Close(ctx)

	var recent []models.Inspection
	if err := recentCur.All(ctx, &recent); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if recent == nil {
		recent = []models.Inspection{}
	}

	c.JSON(http.StatusOK, gin.H{
		"total_inspections": total,
		"by_status":         byStatus,
		"recent":            recent,
	})
}
