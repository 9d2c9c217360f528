package main

import (
	"os"
	"time"

	"github.com/fieldmind/fieldmind-go-backend/internal/ai"
	"github.com/fieldmind/fieldmind-go-backend/internal/auth"
	"github.com/fieldmind/fieldmind-go-backend/internal/handlers"
	"github.com/fieldmind/fieldmind-go-backend/internal/inspection"
	"github.com/fieldmind/fieldmind-go-backend/internal/ledger"
	"github.com/fieldmind/fieldmind-go-backend/internal/middleware"
	"github.com/fieldmind/fieldmind-go-backend/internal/store"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func main() {
	aiClient := ai.NewClient(ai.Config{
		URL:    os.Getenv("OPENAI_URL"),
		APIKey: os.Getenv("OPENAI_API_KEY"),
		Model:  os.Getenv("OPENAI_MODEL"),
	})
	ledgerClient := ledger.NewClient(os.Getenv("LEDGER_URL"), os.Getenv("LEDGER_API_KEY"))
	svc := inspection.NewService(store.NewMongoStore(), aiClient, ledgerClient)
	handlers.Init(svc)
	handlers.InitParts(aiClient)

	r := gin.Default()
	r.Use(cors.New(cors.Config{
		AllowAllOrigins:  true,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Authorization", "X-Requested-With", "Content-Type", "Accept"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	r.GET("/api/health", handlers.Health)
	r.POST("/register", handlers.Register)
	r.POST("/login", handlers.Login)
	r.POST("/refresh", handlers.RefreshToken)
	r.GET("/verify/:reference", handlers.VerifyByReference)

	protected := r.Group("/api")
	protected.Use(auth.AuthMiddleware(), middleware.RateLimit(120))
	{
		protected.GET("/machines", handlers.Machines)

		protected.POST("/inspections", handlers.CreateInspection)
		protected.GET("/inspections", handlers.ListInspections)
		protected.GET("/inspections/:id", handlers.GetInspection)
		protected.POST("/inspections/:id/components", handlers.RecordFinding)
		protected.POST("/inspections/:id/components/mark-go", handlers.MarkGo)
		protected.POST("/inspections/:id/complete", handlers.CompleteInspection)
		protected.POST("/inspections/:id/anchor", handlers.AnchorInspection)

		protected.GET("/fleet/analytics", handlers.FleetAnalytics)
		protected.POST("/parts/identify", handlers.IdentifyParts)
	}

	r.Run(":8080")
}
