package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	zsconfig "github.com/3drobotics/zipstream/internal/config"
	"github.com/3drobotics/zipstream/internal/gateway"
	"github.com/3drobotics/zipstream/internal/objectstore"
)

func main() {
	cfg := &zsconfig.Config{}
	if err := buildRootCommand(cfg).Execute(); err != nil {
		os.Exit(1)
	}
}

func runServe(ctx context.Context, cfg *zsconfig.Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger := slog.New(slog.NewJSONHandler(os.Stderr, nil))
	slog.SetDefault(logger)

	awsCfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return fmt.Errorf("loading AWS configuration: %w", err)
	}
	store := objectstore.NewS3Client(s3.NewFromConfig(awsCfg))

	gw := gateway.New(cfg, http.DefaultClient, store, logger)

	router := mux.NewRouter()
	registerAdministrativeEndpoints(router)
	router.PathPrefix("/").Handler(gw)

	logger.Info("listening", "addr", cfg.Listen)
	return http.ListenAndServe(cfg.Listen, router)
}

// registerAdministrativeEndpoints wires /metrics and /-/healthy ahead of
// the catch-all gateway handler, so they are never shadowed by an
// upstream path of the same name.
func registerAdministrativeEndpoints(router *mux.Router) {
	router.Handle("/metrics", promhttp.Handler())
	router.HandleFunc("/-/healthy", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}
