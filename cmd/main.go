package main

import (
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/Pratiksha-287/library-management-system/internal/config"
	"github.com/Pratiksha-287/library-management-system/internal/handlers"
	"github.com/Pratiksha-287/library-management-system/internal/models"
	"github.com/Pratiksha-287/library-management-system/internal/repositories"
	"github.com/Pratiksha-287/library-management-system/internal/services"
)

func main() {
	cfg := config.Load()
	if cfg.Database.URL == "" {
		log.Fatal("database URL is required (set LIBRARY_DATABASE_URL or DATABASE_URL)")
	}

	db, err := gorm.Open(postgres.Open(cfg.Database.URL), &gorm.Config{})
	if err != nil {
		log.Fatalf("failed to connect database: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		log.Fatalf("failed to get generic DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(20)
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := db.AutoMigrate(
		&models.User{},
		&models.Book{},
		&models.Member{},
		&models.Transaction{},
	); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	userRepo := repositories.NewUserRepository(db)
	bookRepo := repositories.NewBookRepository(db)
	memberRepo := repositories.NewMemberRepository(db)
	txRepo := repositories.NewTransactionRepository(db)

	lending := services.NewLendingService(db, userRepo, bookRepo, txRepo, nil, cfg.Lending.LoanDays, cfg.Lending.FinePerDay)
	catalog := services.NewCatalogService(db, userRepo, bookRepo, memberRepo)

	router := gin.Default()
	handlers.RegisterRoutes(router, lending, catalog)

	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	log.Printf("Starting server on %s (loan period %d days, fine %.2f/day)",
		cfg.Server.Addr, cfg.Lending.LoanDays, cfg.Lending.FinePerDay)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("server error: %v", err)
	}
}
