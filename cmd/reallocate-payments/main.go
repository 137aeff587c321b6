package main

import (
	"context"
	"fmt"
	"log"

	"github.com/getsentry/sentry-go"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/unionhall/ledgerhub/db"
	"github.com/unionhall/ledgerhub/lib/logging"
	"github.com/unionhall/ledgerhub/lib/service"
)

// script to re-run allocation for every payment, repairing entries that
// drifted from their payment's status
func main() {

	c := &service.Config{}

	// Load configruation from environment variables
	err := godotenv.Load(".env")
	if err != nil {
		fmt.Println("Failed to load .env file")
	}
	err = envconfig.Process("", c)
	if err != nil {
		log.Fatalf("Error loading environment variables: %v", err)
	}

	logger := logging.Logger(c.LogFilePath, c.LogLevel)

	dbConn, err := db.Open(c)
	if err != nil {
		logger.Fatalf("Error initializing db connection: %v", err)
	}
	defer dbConn.Close()

	if c.SentryDSN != "" {
		if err = sentry.Init(sentry.ClientOptions{
			Dsn: c.SentryDSN,
		}); err != nil {
			logger.Errorf("sentry init error: %v", err)
		}
	}

	svc := &service.LedgerService{
		Config: c,
		DB:     dbConn,
		Logger: logger,
	}

	changed, err := svc.ReallocateAllPayments(context.Background())
	if err != nil {
		sentry.CaptureException(err)
		logger.Fatalf("Error reallocating payments: %v", err)
	}
	logger.Infof("Reallocation done, %d payments changed", changed)
}
