package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/skycast-labs/forecast-cli/internal/contract"
	"github.com/skycast-labs/forecast-cli/internal/provider"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the cached forecast over HTTP",
	Long:  "Starts a read-only HTTP API over the local forecast cache.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		mux := http.NewServeMux()

		mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
		})

		mux.HandleFunc("GET /api/locations", func(w http.ResponseWriter, r *http.Request) {
			locs, err := env.Provider.QueryLocations(r.Context(), contract.Locations(), provider.Query{OrderBy: "_id ASC"})
			if err != nil {
				zap.L().Error("locations query failed", zap.Error(err))
				http.Error(w, `{"error":"query failed"}`, http.StatusInternalServerError)
				return
			}
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(locs)
		})

		mux.HandleFunc("GET /api/forecast/{location}", func(w http.ResponseWriter, r *http.Request) {
			location := r.PathValue("location")

			addr := contract.WeatherForLocation(location)
			if s := r.URL.Query().Get("start"); s != "" {
				startSec, err := strconv.ParseInt(s, 10, 64)
				if err != nil {
					http.Error(w, `{"error":"start must be epoch seconds"}`, http.StatusBadRequest)
					return
				}
				addr = contract.WeatherForLocationFrom(location, startSec)
			}

			rows, err := env.Provider.QueryWeather(r.Context(), addr, provider.Query{OrderBy: "weather.date ASC"})
			if err != nil {
				zap.L().Error("forecast query failed", zap.String("location", location), zap.Error(err))
				http.Error(w, `{"error":"query failed"}`, http.StatusInternalServerError)
				return
			}
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(rows)
		})

		mux.HandleFunc("GET /api/forecast/{location}/{date}", func(w http.ResponseWriter, r *http.Request) {
			location := r.PathValue("location")
			dateSec, err := strconv.ParseInt(r.PathValue("date"), 10, 64)
			if err != nil {
				http.Error(w, `{"error":"date must be epoch seconds"}`, http.StatusBadRequest)
				return
			}

			addr := contract.WeatherForLocationDate(location, dateSec)
			rows, err := env.Provider.QueryWeather(r.Context(), addr, provider.Query{})
			if err != nil {
				zap.L().Error("forecast query failed", zap.String("location", location), zap.Error(err))
				http.Error(w, `{"error":"query failed"}`, http.StatusInternalServerError)
				return
			}
			if len(rows) == 0 {
				http.Error(w, `{"error":"not found"}`, http.StatusNotFound)
				return
			}
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(rows[0])
		})

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
		}

		// Graceful shutdown
		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			srv.Shutdown(ctx)
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
