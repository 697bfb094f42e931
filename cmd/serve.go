package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/wayfare-group/trip-planner-cli/internal/model"
	"github.com/wayfare-group/trip-planner-cli/internal/monitoring"
	"github.com/wayfare-group/trip-planner-cli/internal/store"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API for planning requests",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initPlanner(ctx, "serve")
		if err != nil {
			return err
		}
		defer env.Close()

		collector := monitoring.NewCollector(env.Store)

		if cfg.Monitoring.Enabled {
			alerter := monitoring.NewAlerter(cfg.Monitoring)
			checker := monitoring.NewChecker(collector, alerter, cfg.Monitoring)
			go checker.Run(ctx)
		}

		r := chi.NewRouter()
		r.Use(middleware.RequestID)
		r.Use(middleware.Recoverer)
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: []string{"*"},
			AllowedMethods: []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Content-Type"},
		}))

		r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		})

		r.Get("/metrics", func(w http.ResponseWriter, req *http.Request) {
			lookback := 24
			if v := req.URL.Query().Get("lookback_hours"); v != "" {
				if n, err := strconv.Atoi(v); err == nil && n > 0 {
					lookback = n
				}
			}
			snap, err := collector.Collect(req.Context(), lookback)
			if err != nil {
				writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "metrics collection failed"})
				return
			}
			writeJSON(w, http.StatusOK, snap)
		})

		r.Post("/plan", func(w http.ResponseWriter, req *http.Request) {
			var body struct {
				Destination string            `json:"destination"`
				Preferences model.Preferences `json:"preferences"`
			}
			if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
				writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
				return
			}
			if body.Destination == "" {
				writeJSON(w, http.StatusBadRequest, map[string]string{"error": "destination is required"})
				return
			}

			run, err := env.Store.CreateRun(req.Context(), body.Destination, body.Preferences)
			if err != nil {
				zap.L().Error("failed to create run", zap.Error(err))
				writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to create run"})
				return
			}

			// Plan asynchronously against the server context so the run
			// survives the request connection.
			go func() {
				if err := env.Store.UpdateRunStatus(ctx, run.ID, model.RunStatusPlanning); err != nil {
					zap.L().Warn("failed to mark run planning", zap.String("run_id", run.ID), zap.Error(err))
				}
				result, runErr := env.Pipeline.Run(ctx, body.Destination, body.Preferences)
				status := runStatusFor(result, runErr)
				if err := env.Store.CompleteRun(ctx, run.ID, status, result); err != nil {
					zap.L().Error("failed to persist run result", zap.String("run_id", run.ID), zap.Error(err))
					return
				}
				zap.L().Info("planning run finished",
					zap.String("run_id", run.ID),
					zap.String("destination", body.Destination),
					zap.String("status", string(status)),
				)
			}()

			writeJSON(w, http.StatusAccepted, map[string]string{
				"run_id":      run.ID,
				"status":      string(run.Status),
				"destination": body.Destination,
			})
		})

		r.Get("/runs", func(w http.ResponseWriter, req *http.Request) {
			filter := store.RunFilter{
				Status:      model.RunStatus(req.URL.Query().Get("status")),
				Destination: req.URL.Query().Get("destination"),
			}
			if v := req.URL.Query().Get("limit"); v != "" {
				if n, err := strconv.Atoi(v); err == nil {
					filter.Limit = n
				}
			}
			runs, err := env.Store.ListRuns(req.Context(), filter)
			if err != nil {
				zap.L().Error("failed to list runs", zap.Error(err))
				writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to list runs"})
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{"runs": runs})
		})

		r.Get("/runs/{id}", func(w http.ResponseWriter, req *http.Request) {
			run, err := env.Store.GetRun(req.Context(), chi.URLParam(req, "id"))
			if err != nil {
				writeJSON(w, http.StatusNotFound, map[string]string{"error": "run not found"})
				return
			}
			writeJSON(w, http.StatusOK, run)
		})

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           r,
			ReadHeaderTimeout: 10 * time.Second,
		}

		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
