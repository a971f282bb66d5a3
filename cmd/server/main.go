package main

import (
	"log/slog"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"

	"triage-bot/internal/catalog"
	"triage-bot/internal/config"
	"triage-bot/internal/conversation"
	"triage-bot/internal/diagnostic"
	"triage-bot/internal/directory"
	"triage-bot/internal/httpclient"
	"triage-bot/internal/phone"
	"triage-bot/internal/platform/whatsapp"
	"triage-bot/internal/records"
	"triage-bot/internal/review"
	"triage-bot/internal/router"
	"triage-bot/internal/server"
	"triage-bot/internal/session"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(log)

	cfg, err := config.Load()
	if err != nil {
		log.Error("configuration error", "error", err)
		os.Exit(1)
	}

	cat, err := catalog.Load(cfg.CatalogPath)
	if err != nil {
		log.Error("catalog error", "error", err)
		os.Exit(1)
	}

	canon := &phone.Canonicalizer{CountryCode: cfg.CountryCode}

	hc := httpclient.New(httpclient.Options{
		ConnectTimeout: cfg.ConnectTimeout,
		ReadTimeout:    cfg.ReadTimeout,
		Logger:         log,
	})

	gateway := whatsapp.NewClient(cfg.GraphURL(), cfg.MediaURL(), cfg.WhatsAppToken, hc, log)
	diag := diagnostic.NewClient(cfg.DiagnosticURL, hc, log)
	dir := directory.NewClient(cfg.DirectoryURL, "", hc, log)

	var recs conversation.RecordStore
	if cfg.RecordsURL != "" {
		recs = records.NewClient(cfg.RecordsURL, cfg.RecordsToken, hc, log)
	} else {
		log.Warn("RECORDS_API_URL not set, case records will not be archived")
	}

	users := session.NewStore(session.NewUser)
	reviewers := session.NewStore(session.NewReviewer)

	dispatcher := review.NewDispatcher(users, reviewers, dir, canon, gateway, cat, log)
	userEngine := conversation.NewEngine(users, cat, gateway, diag, recs, dispatcher, log)
	reviewerEngine := review.NewEngine(reviewers, cat, gateway, userEngine, log)

	rt := router.New(reviewers, userEngine, reviewerEngine, canon, log)
	handler := server.NewHandler(cfg.VerifyToken, rt, users, reviewers, canon, log)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	server.RegisterRoutes(r, handler)

	log.Info("server starting", "port", cfg.Port)
	if err := http.ListenAndServe(":"+cfg.Port, r); err != nil {
		log.Error("server stopped", "error", err)
		os.Exit(1)
	}
}
