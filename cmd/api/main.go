package main

import (
	"fmt"
	"log"
	"net/http"
	"os"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"

	"github.com/oolongworks/teausage/internal/config"
	"github.com/oolongworks/teausage/internal/drive"
)

// Drive intake server: browses the shop's shared Drive folder and pulls
// register exports into the raw input directory for the pipeline.
func main() {
	_ = godotenv.Load()

	cfg := config.Load()

	driveService, err := drive.NewService(os.Getenv("GOOGLE_DRIVE_CREDENTIALS_JSON"))
	if err != nil {
		log.Fatalf("Failed to initialize Google Drive service: %v", err)
	}

	r := mux.NewRouter()

	fetcher := drive.NewFetcher(driveService)
	driveHandler := drive.NewHandler(driveService, fetcher, cfg.App.RawDir)
	driveHandler.RegisterRoutes(r)

	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	}).Methods("GET")

	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	log.Printf("Drive intake server starting on %s\n", addr)
	log.Fatal(http.ListenAndServe(addr, r))
}
