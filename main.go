package main

import (
	"context"
	"log"
	"os"

	"github.com/Abdullah02020/back/cmd"
	"github.com/Abdullah02020/back/internal/balance"
	"github.com/Abdullah02020/back/internal/config"
	"github.com/Abdullah02020/back/internal/database"
	"github.com/Abdullah02020/back/internal/directory"
	"github.com/Abdullah02020/back/internal/invoices"
	"github.com/Abdullah02020/back/internal/ledger"
	"github.com/Abdullah02020/back/internal/logger"
	"github.com/Abdullah02020/back/internal/middleware"
	"github.com/Abdullah02020/back/internal/orders"
	"github.com/Abdullah02020/back/internal/repository"
	"github.com/Abdullah02020/back/internal/stock"
	"github.com/Abdullah02020/back/internal/transfers"
	"github.com/Abdullah02020/back/pkg/security"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func init() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Load .env file, but don't overwrite system environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: No .env file found, falling back to system environment variables.")
	}

	cmd.Execute(ctx)
}

func main() {
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL is not set")
	}

	db, err := database.NewPostgresConnection(dbURL)
	if err != nil {
		log.Fatalf("Error: %v", err)
	}
	defer db.Close()

	zapLog := logger.NewLogger()
	defer zapLog.Sync()

	zapLog.Info("Connected to the database successfully")

	repo := repository.NewRepository(db)
	defaults := config.LoadDefaults()

	directoryRepo := directory.NewRepository(repo)
	ledgerRepo := ledger.NewRepository(repo)
	balanceRepo := balance.NewRepository(repo)
	transferRepo := transfers.NewRepository(repo)
	salesRepo := orders.NewSalesRepository(repo)
	invoiceRepo := invoices.NewRepository(repo)

	stockService := stock.NewService(repo, ledgerRepo, balanceRepo, zapLog)
	orderService := orders.NewService(repo, directoryRepo, balanceRepo, salesRepo, zapLog)
	transferService := transfers.NewService(repo, stockService, transferRepo, zapLog)
	invoiceService := invoices.NewService(repo, salesRepo, invoiceRepo, zapLog)

	router := gin.Default()
	router.Use(middleware.RecoveryMiddleware(zapLog))
	router.Use(security.JWTMiddleware())

	stock.RegisterRoutes(router, stockService, directoryRepo, ledgerRepo, defaults, zapLog)
	orders.RegisterRoutes(router, orderService, directoryRepo, defaults, zapLog)
	transfers.RegisterRoutes(router, transferService, directoryRepo, defaults, zapLog)
	invoices.RegisterRoutes(router, invoiceService, directoryRepo, defaults, zapLog)

	router.GET("/health", middleware.HealthCheckMiddleware())

	if err := router.Run(os.Getenv("APP_HOST")); err != nil {
		panic(err)
	}
}
