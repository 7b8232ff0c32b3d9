//go:build !js && !wasm
// +build !js,!wasm

package main

import (
	"flag"
	"os"
	"strings"

	"github.com/himanishpuri/MelodicDNA/pkg/logger"
	"github.com/himanishpuri/MelodicDNA/pkg/melodicdna"
	"github.com/himanishpuri/MelodicDNA/pkg/utils"
)

var (
	port           int
	dbPath         string
	tempDir        string
	maxResults     int
	allowedOrigins string
	logLevel       string
	logRequests    bool
)

func init() {
	flag.IntVar(&port, "port", 8080, "HTTP server port")
	flag.StringVar(&dbPath, "db", getEnvOrDefault("MELODIC_DB_PATH", "melodicdna.sqlite3"), "Path to SQLite database")
	flag.StringVar(&tempDir, "temp", getEnvOrDefault("MELODIC_TEMP_DIR", os.TempDir()), "Temporary directory for uploads")
	flag.IntVar(&maxResults, "max", 1000, "Maximum number of occurrences per request (0 = unlimited)")
	flag.StringVar(&allowedOrigins, "origins", "*", "Comma-separated list of allowed CORS origins (use * for all)")
	flag.StringVar(&logLevel, "log-level", getEnvOrDefault("LOG_LEVEL", "info"), "Log level: debug, info, warn, error")
	flag.BoolVar(&logRequests, "log-requests", false, "Log every HTTP request")
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func main() {
	flag.Parse()

	log := logger.GetLogger()
	if level, ok := logger.ParseLevel(logLevel); ok {
		log.SetLevel(level)
	}

	// Parse allowed origins
	var origins []string
	if allowedOrigins == "*" {
		origins = []string{"*"}
	} else {
		origins = strings.Split(allowedOrigins, ",")
		for i := range origins {
			origins[i] = strings.TrimSpace(origins[i])
		}
	}

	if err := utils.MakeDir(tempDir); err != nil {
		log.Fatalf("Failed to create temp dir: %v", err)
	}

	service, err := melodicdna.NewService(
		melodicdna.WithDBPath(dbPath),
		melodicdna.WithTempDir(tempDir),
		melodicdna.WithMaxResults(maxResults),
	)
	if err != nil {
		log.Fatalf("Failed to create service: %v", err)
	}
	defer service.Close()

	config := &ServerConfig{
		Port:           port,
		DBPath:         dbPath,
		TempDir:        tempDir,
		AllowedOrigins: origins,
		LogRequests:    logRequests,
	}

	server := NewServer(service, config)
	if err := server.Start(); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
