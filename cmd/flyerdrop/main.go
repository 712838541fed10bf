package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mhersey/flyerdrop/internal/blob"
	"github.com/mhersey/flyerdrop/internal/database"
	"github.com/mhersey/flyerdrop/internal/extract"
	"github.com/mhersey/flyerdrop/internal/format"
	"github.com/mhersey/flyerdrop/internal/logging"
	"github.com/mhersey/flyerdrop/internal/server"
	"github.com/mhersey/flyerdrop/internal/sheet"
)

func main() {
	logger := logging.Setup(os.Getenv("FLYERDROP_LOG_LEVEL"), os.Getenv("FLYERDROP_LOG_FORMAT"))

	port := os.Getenv("FLYERDROP_PORT")
	if port == "" {
		port = "8080"
	}

	dbPath := os.Getenv("FLYERDROP_DB_PATH")
	if dbPath == "" {
		dbPath = "flyerdrop.db"
	}

	db, err := database.Open(dbPath)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	extractor := extract.NewClient(
		os.Getenv("FLYERDROP_OPENAI_API_KEY"),
		os.Getenv("FLYERDROP_OPENAI_MODEL"),
	)
	if !extractor.Configured() {
		logger.Warn("extraction API key not set, inbound flyers will fail extraction")
	}

	uploader := blob.NewUploader(blob.Config{
		Endpoint:      os.Getenv("FLYERDROP_S3_ENDPOINT"),
		Bucket:        os.Getenv("FLYERDROP_S3_BUCKET"),
		Region:        os.Getenv("FLYERDROP_S3_REGION"),
		AccessKey:     os.Getenv("FLYERDROP_S3_ACCESS_KEY"),
		SecretKey:     os.Getenv("FLYERDROP_S3_SECRET_KEY"),
		PublicBaseURL: os.Getenv("FLYERDROP_S3_PUBLIC_URL"),
	}, logger.With("component", "blob"))
	if !uploader.Configured() {
		logger.Warn("blob storage not configured, rows will carry empty flyer links")
	}

	writer, err := newSheetWriter(logger)
	if err != nil {
		log.Fatalf("failed to configure sheets client: %v", err)
	}

	srv := server.New(db, server.Config{
		WebhookToken: os.Getenv("FLYERDROP_WEBHOOK_TOKEN"),
	}, extractor, uploader, writer, logger)

	httpServer := &http.Server{
		Addr:         ":" + port,
		Handler:      srv.Router(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		fmt.Printf("flyerdrop running at http://localhost:%s\n", port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	fmt.Println("\nShutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		log.Fatalf("shutdown error: %v", err)
	}
}

// newSheetWriter assembles the spreadsheet writer from the environment. A
// missing spreadsheet ID or credentials file is tolerated at startup; the
// writer reports it as a configuration error on the first append instead.
func newSheetWriter(logger *slog.Logger) (*sheet.Writer, error) {
	spreadsheetID := os.Getenv("FLYERDROP_SPREADSHEET_ID")
	credsPath := os.Getenv("FLYERDROP_GOOGLE_CREDENTIALS")
	policy := format.ParseCostPolicy(os.Getenv("FLYERDROP_NULL_COST_POLICY"))

	var ts sheet.TokenSource
	if credsPath != "" {
		creds, err := sheet.LoadCredentials(credsPath)
		if err != nil {
			return nil, fmt.Errorf("load google credentials: %w", err)
		}
		ts, err = sheet.NewServiceAccountTokenSource(creds)
		if err != nil {
			return nil, fmt.Errorf("service account token source: %w", err)
		}
	} else {
		logger.Warn("google credentials not set, sheet appends will fail")
		ts = sheet.StaticTokenSource("")
	}

	client := sheet.NewClient(ts)
	return sheet.NewWriter(client, spreadsheetID, os.Getenv("FLYERDROP_SHEET_RANGE"), policy,
		logger.With("component", "sheet")), nil
}
