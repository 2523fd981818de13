package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"postpulse/internal/auth"
	"postpulse/internal/database"
	"postpulse/internal/handlers"
	"postpulse/internal/linkedin"
	"postpulse/internal/worker"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	// Load database configuration
	dbConfig := database.LoadConfig()

	// Connect to database
	if err := database.Connect(dbConfig); err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	defer database.Close()

	// Run migrations
	if err := database.Migrate(); err != nil {
		log.Fatal("Failed to run migrations:", err)
	}

	// Initialize the scrape provider client
	scraperClient := linkedin.NewClient("", "")
	if !scraperClient.HasCredentials() {
		log.Println("⚠️ SCRAPER_BASE_URL / SCRAPER_API_KEY not set; jobs will fail until configured")
	}

	// Initialize and start the background job runner
	workerService := worker.NewService(database.DB, scraperClient)
	if err := workerService.Start(); err != nil {
		log.Fatal("Failed to start background workers:", err)
	}

	// Setup graceful shutdown
	setupGracefulShutdown(workerService)

	// Setup HTTP server
	setupServer(workerService)
}

func setupGracefulShutdown(workerService *worker.Service) {
	// Setup signal handling for graceful shutdown
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-c
		log.Println("Received shutdown signal, gracefully shutting down...")

		// Stop background workers
		workerService.Stop()

		// Close database connection
		database.Close()

		log.Println("Shutdown complete")
		os.Exit(0)
	}()
}

func setupServer(workerService *worker.Service) {
	// Set Gin mode based on environment
	if os.Getenv("GIN_MODE") == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Create router
	r := gin.Default()

	// CORS middleware
	r.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	// Initialize handlers
	verifier := auth.NewTokenVerifier()
	jobsHandler := handlers.NewJobsHandler(database.DB)
	postsHandler := handlers.NewPostsHandler(database.DB)
	profilesHandler := handlers.NewProfilesHandler(database.DB)
	systemHandler := handlers.NewSystemHandler(workerService)
	docsHandler := handlers.NewDocsHandler()

	// Health check
	r.GET("/health", systemHandler.HealthCheck)

	// Serve Markdown documentation as HTML
	r.GET("/doc/:doc", docsHandler.ServeMarkdownAsHTML)

	// API routes
	api := r.Group("/api")
	{
		jobs := api.Group("/jobs")
		{
			jobs.POST("", verifier.Middleware(), jobsHandler.CreateJob)
			jobs.GET("/:id", jobsHandler.GetJob)
			jobs.GET("/:id/events", jobsHandler.GetJobEvents)
			jobs.GET("/:id/stream", jobsHandler.StreamJobProgress)
		}

		posts := api.Group("/posts")
		{
			posts.POST("", verifier.Middleware(), postsHandler.CreatePost)
			posts.GET("", postsHandler.ListPosts)
			posts.GET("/:id/engagement", postsHandler.GetPostEngagement)
		}

		profiles := api.Group("/profiles")
		{
			profiles.GET("", profilesHandler.ListProfiles)
			profiles.GET("/:id", profilesHandler.GetProfile)
		}

		workerGroup := api.Group("/worker")
		{
			workerGroup.GET("/status", systemHandler.WorkerStatus)
		}
	}

	// Get port from environment or default to 8080
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	log.Printf("Server starting on port %s", port)
	if err := r.Run(":" + port); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}
