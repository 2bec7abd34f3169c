package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/boothmap/boothmap/internal/access"
	"github.com/boothmap/boothmap/internal/asset"
	"github.com/boothmap/boothmap/internal/collab"
	"github.com/boothmap/boothmap/internal/config"
	"github.com/boothmap/boothmap/internal/document"
	"github.com/boothmap/boothmap/internal/export"
	"github.com/boothmap/boothmap/internal/layout"
	mw "github.com/boothmap/boothmap/internal/middleware"
	"github.com/boothmap/boothmap/internal/render"
	"github.com/boothmap/boothmap/internal/store"
	"github.com/boothmap/boothmap/internal/typeid"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.Level()})))

	settings, err := config.LoadSettings(cfg.SettingsFile)
	if err != nil {
		slog.Error("load editor settings", "error", err, "path", cfg.SettingsFile)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := store.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		slog.Error("connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	accessService := access.NewService(db, cfg.JWTSecret)
	accessHandler := access.NewHandler(accessService)

	layoutService := layout.NewService(db)
	layoutHandler := layout.NewHandler(layoutService, accessService)

	fonts, err := render.NewFonts()
	if err != nil {
		slog.Error("load fonts", "error", err)
		os.Exit(1)
	}
	assetHandler := asset.NewHandler(cfg.AssetDir)
	exportHandler := export.NewHandler(layoutService, assetHandler, fonts, settings.LabelLineSpacing)

	saveDocument := func(ctx context.Context, layoutID string, doc *document.Document) error {
		_, err := layoutService.SaveDocument(ctx, layoutID, doc)
		return err
	}

	hub := collab.NewHub(layoutService.LatestDocument, saveDocument, collab.Options{
		Settings: settings.Engine(),
		Measurer: fonts,
		Autosave: cfg.AutosaveInterval,
	})
	go hub.Run()

	r := mux.NewRouter()

	// Global middleware
	r.Use(mw.Recovery)
	r.Use(mw.Logger)

	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods("GET")

	r.HandleFunc("/assets/upload", assetHandler.Upload).Methods("POST")
	r.PathPrefix("/assets/").Handler(assetHandler.Serve()).Methods("GET")

	r.HandleFunc("/api/layouts", layoutHandler.List).Methods("GET")
	r.HandleFunc("/api/layouts", layoutHandler.Create).Methods("POST")
	r.HandleFunc("/api/layouts/{layoutId}/access", accessHandler.Grant).Methods("POST")

	// Token-protected layout routes
	api := r.PathPrefix("/api/layouts/{layoutId}").Subrouter()
	api.Use(accessService.Middleware)

	api.HandleFunc("", layoutHandler.Get).Methods("GET")
	api.HandleFunc("", access.RequireEdit(layoutHandler.Delete)).Methods("DELETE")
	api.HandleFunc("/document", layoutHandler.GetDocument).Methods("GET")
	api.HandleFunc("/document", access.RequireEdit(layoutHandler.PutDocument)).Methods("PUT")
	api.HandleFunc("/background", access.RequireEdit(layoutHandler.SetBackground)).Methods("PUT")
	api.HandleFunc("/passphrase", access.RequireEdit(accessHandler.SetPassphrase)).Methods("PUT")
	api.HandleFunc("/report", layoutHandler.Report).Methods("GET")
	api.HandleFunc("/export.csv", exportHandler.ExportCSV).Methods("GET")
	api.HandleFunc("/export.png", exportHandler.ExportPNG).Methods("GET")

	// WebSocket endpoint
	r.HandleFunc("/ws/layout/{layoutId}", func(w http.ResponseWriter, r *http.Request) {
		handleWebSocket(w, r, hub, accessService, cfg.Origins())
	})

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      mw.CORS(cfg.Origins())(r),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down server")

		// Stop hub first to save all dirty documents
		slog.Info("saving all documents...")
		hub.Stop()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		srv.Shutdown(shutdownCtx)
	}()

	slog.Info("server starting", "addr", addr, "database", store.Kind(cfg.DatabaseURL))
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
}

func handleWebSocket(w http.ResponseWriter, r *http.Request, hub *collab.Hub, accessSvc *access.Service, origins []string) {
	layoutID := mux.Vars(r)["layoutId"]

	token := access.TokenFromRequest(r)
	if token == "" {
		http.Error(w, "missing token", http.StatusUnauthorized)
		return
	}

	claims, err := accessSvc.ValidateToken(token)
	if err != nil {
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return
	}
	if claims.LayoutID != layoutID {
		http.Error(w, "token is for another layout", http.StatusForbidden)
		return
	}

	displayName := r.URL.Query().Get("name")
	if displayName == "" {
		displayName = "Guest-" + uuid.New().String()[:8]
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: originHosts(origins),
	})
	if err != nil {
		slog.Error("websocket accept", "error", err)
		return
	}

	client := collab.NewClient(hub, conn, typeid.NewClientID(), layoutID, displayName, claims.Role)

	hub.Register(client)

	ctx := r.Context()
	go client.WritePump(ctx)
	client.ReadPump(ctx)
}
