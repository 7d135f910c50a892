// @title           Flux Achat API
// @version         1.0
// @description     Procurement RFQ backend: supplier consultations, response tracking, offer comparison and purchase order generation.

// @contact.name   Service Achats

// @BasePath  /

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

// @schemes http https
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"fluxachat/config"
	"fluxachat/handlers"
	"fluxachat/services"
	"fluxachat/storage"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func CORSConfig() cors.Config {
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{
		"http://localhost:9000",
		"http://localhost:8080",
		"http://localhost:3000",
	}
	corsConfig.AllowCredentials = true
	corsConfig.AddAllowHeaders("Authorization", "Content-Type")
	corsConfig.AddAllowMethods("GET", "POST", "PUT", "DELETE", "OPTIONS")
	return corsConfig
}

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})

	cfg := config.New()

	db := storage.InitDB()
	defer db.Close()
	gormDB := storage.InitGormDB()

	store := storage.NewStore(db)
	audit := storage.NewAuditLogger(gormDB, logger)

	mailer := services.NewEmailService(cfg, logger)
	lifecycle := services.NewLifecycleService(store, cfg, audit, mailer, logger)
	ingestion := services.NewIngestionService(store, lifecycle, audit)
	comparison := services.NewComparisonService(store, cfg, audit)
	selection := services.NewSelectionService(store, comparison, audit)
	orders := services.NewOrderService(store, cfg, audit, logger)
	rfqs := services.NewRFQService(store, cfg, audit, mailer)

	// Escalation scan: relances and expirations on a cron tick.
	scheduler := cron.New()
	cronSpec := cfg.GetString(config.KeyEscalationCronSpec)
	if _, err := scheduler.AddFunc(cronSpec, func() {
		relances, expirations := lifecycle.EscalationScan()
		if relances > 0 || expirations > 0 {
			logger.WithFields(logrus.Fields{
				"relances":    relances,
				"expirations": expirations,
			}).Info("escalation scan done")
		}
	}); err != nil {
		log.Fatalf("Invalid escalation cron spec %q: %v", cronSpec, err)
	}
	scheduler.Start()

	r := gin.Default()
	r.Use(cors.New(CORSConfig()))

	// Public supplier-facing endpoints. The RFQ UUID is the credential.
	r.GET("/api/track/open/:uuid", handlers.TrackOpen(lifecycle))
	r.GET("/api/track/click/:uuid", handlers.TrackClick(lifecycle, cfg.GetString(config.KeyPublicFormBaseURL)))
	r.POST("/api/rfqs/:uuid/response", handlers.RecordResponse(ingestion))
	r.POST("/api/rfqs/:uuid/rejection", handlers.RecordRejection(ingestion))
	r.POST("/api/login", handlers.Login(db))

	// Buyer endpoints.
	api := r.Group("/api", handlers.RequireAuth())
	{
		api.POST("/suppliers", handlers.CreateSupplier(db, audit))
		api.GET("/suppliers", handlers.ListSuppliers(db))
		api.GET("/suppliers/:code", handlers.GetSupplier(db))
		api.PUT("/suppliers/:code", handlers.UpdateSupplier(db, audit))
		api.POST("/suppliers/:code/blacklist", handlers.BlacklistSupplier(db, audit))
		api.DELETE("/suppliers/:code/blacklist", handlers.UnblacklistSupplier(db, audit))

		api.GET("/das", handlers.ListDAs(db))
		api.POST("/das/import", handlers.ImportDAs(db, audit))

		api.POST("/rfqs", handlers.IssueRFQ(rfqs))
		api.GET("/rfqs", handlers.ListRFQs(db))
		api.GET("/rfqs/export/unanswered", handlers.ExportUnansweredRFQs(db))
		api.GET("/rfqs/:uuid", handlers.GetRFQ(store, db))
		api.GET("/rfqs/:uuid/qrcode", handlers.RFQQRCode(store, cfg))

		api.GET("/comparisons", handlers.GetComparison(comparison))
		api.GET("/comparisons/dashboard", handlers.ComparisonDashboard(db))
		api.POST("/comparisons/decision", handlers.DecideComparison(comparison))

		api.POST("/selections", handlers.SelectOffer(selection))
		api.POST("/selections/auto", handlers.AutoSelect(selection))
		api.GET("/selections", handlers.ListSelections(db))
		api.DELETE("/selections/:id", handlers.DeleteSelection(db, audit))

		api.POST("/orders/generate", handlers.GenerateOrders(orders))
		api.GET("/orders", handlers.ListOrders(db))
		api.GET("/orders/:numero", handlers.GetOrder(store))
		api.POST("/orders/:numero/validate", handlers.ValidateOrder(orders))
		api.GET("/orders/:numero/pdf", handlers.GenerateOrderPDF(store))
	}

	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	port := os.Getenv("PORT")
	if port == "" {
		port = "9000"
	}
	if _, err := strconv.Atoi(port); err != nil {
		log.Fatalf("Invalid PORT environment variable: %s. Must be a number.", port)
	}

	srv := &http.Server{
		Addr:    ":" + port,
		Handler: r,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	<-quit
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Stop the scheduler first so no scan starts mid-shutdown.
	cronCtx := scheduler.Stop()
	select {
	case <-cronCtx.Done():
	case <-time.After(20 * time.Second):
		log.Println("Warning: escalation scan still running at shutdown")
	}

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}
	log.Println("Server exiting")
}
