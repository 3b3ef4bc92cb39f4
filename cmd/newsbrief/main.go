package main

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/swen/newsbrief/internal/app"
	"github.com/swen/newsbrief/internal/config"
	"github.com/swen/newsbrief/internal/metrics"
	"github.com/swen/newsbrief/internal/news"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("❌ Config error: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg)
	if err != nil {
		log.Fatalf("❌ Startup error: %v", err)
	}
	defer a.Close()

	go startServer(a)

	a.Run(ctx)
	log.Printf("Shutting down")
}

func startServer(a *app.App) {
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/health", healthHandler(a))
	mux.HandleFunc("/metrics", metricsHandler)
	mux.HandleFunc("/related", relatedHandler(a))
	mux.HandleFunc("/admin/embeddings/batch", batchHandler(a))
	mux.HandleFunc("/admin/embeddings/stats", statsHandler(a))

	log.Printf("Starting HTTP server on port %s", port)
	if err := http.ListenAndServe(":"+port, mux); err != nil {
		log.Printf("HTTP server error: %v", err)
	}
}

func healthHandler(a *app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stats := metrics.Global.GetStats()

		status := "ok"
		if !stats["is_healthy"].(bool) {
			status = "degraded"
		}

		writeJSON(w, http.StatusOK, map[string]interface{}{
			"status":     status,
			"last_run":   stats["last_run_time"],
			"last_error": stats["last_error"],
		})
	}
}

func metricsHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, metrics.Global.GetStats())
}

// relatedRequest carries either a script to match against recent
// embeddings or just the current article for a content match.
type relatedRequest struct {
	Script  string `json:"script,omitempty"`
	Title   string `json:"title"`
	Link    string `json:"link"`
	Content string `json:"content,omitempty"`
}

func relatedHandler(a *app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}

		var req relatedRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}

		current := news.Article{
			Title:       req.Title,
			Link:        req.Link,
			Description: req.Content,
		}
		current.Publisher = news.PublisherFromLink(current)

		var recs []news.Article
		if req.Script != "" {
			recs = a.RecommendByScript(r.Context(), req.Script, current)
		} else {
			recs = a.Recommend(r.Context(), current)
		}

		writeJSON(w, http.StatusOK, map[string]interface{}{
			"count":           len(recs),
			"recommendations": recs,
		})
	}
}

func batchHandler(a *app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}

		a.Scheduler.Trigger()
		writeJSON(w, http.StatusAccepted, map[string]string{"status": "batch triggered"})
	}
}

func statsHandler(a *app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		count, err := a.Store.Count(r.Context())
		if err != nil {
			http.Error(w, "store unavailable", http.StatusServiceUnavailable)
			return
		}

		stats := map[string]interface{}{
			"stored_embeddings": count,
			"metrics":           metrics.Global.GetStats(),
		}
		if a.Limiter != nil {
			stats["rate_limits"] = a.Limiter.GetStats()
		}
		writeJSON(w, http.StatusOK, stats)
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("⚠️ Writing response: %v", err)
	}
}
