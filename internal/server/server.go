package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/minibucket/minibucket/internal/files"
)

type Config struct {
	Addr          string        `env:"MINIBUCKET_ADDR" envDefault:":8080"`
	DataDir       string        `env:"MINIBUCKET_DATA_DIR" envDefault:"./data"`
	DBPath        string        `env:"MINIBUCKET_DB_PATH"`
	MaxSize       int64         `env:"MINIBUCKET_MAX_SIZE" envDefault:"33554432"`
	SweepInterval time.Duration `env:"MINIBUCKET_SWEEP_INTERVAL" envDefault:"1m"`
}

// New creates the HTTP server over the file service.
func New(cfg *Config, fileService *files.Service) *http.Server {
	router := chi.NewRouter()
	router.Use(loggingMiddleware, metricsMiddleware, limitBody(cfg.MaxSize))

	router.Get("/healthz", healthz)
	router.Method(http.MethodGet, "/metrics", promhttp.Handler())

	router.Route("/files", func(r chi.Router) {
		r.Post("/", uploadFile(fileService))
		r.Get("/", listFiles(fileService))
		r.Get("/by-name/{filename}", listFilesByName(fileService))
		r.Get("/by-name/{filename}/download", downloadFileByName(fileService))
		r.Delete("/by-name/{filename}", deleteFilesByName(fileService))
		r.Get("/{id}", downloadFile(fileService))
		r.Delete("/{id}", deleteFile(fileService))
	})

	return &http.Server{
		Addr:         cfg.Addr,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
}

func healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}
