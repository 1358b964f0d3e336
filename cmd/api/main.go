package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/hafizmfadli/movie-catalog/internal/config"
	"github.com/hafizmfadli/movie-catalog/internal/data"
	"github.com/hafizmfadli/movie-catalog/internal/jsonlog"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// Application version number
const version = "1.0.0"

// application struct hold the dependencies for our HTTP handlers, helpers, and middleware.
type application struct {
	config config.Config
	logger *jsonlog.Logger
	models data.Models
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		jsonlog.NewLogger(os.Stdout, jsonlog.LevelInfo).PrintFatal(err, nil)
	}

	// Flags override whatever the config file and environment said.
	flag.IntVar(&cfg.Port, "port", cfg.Port, "API server port")
	flag.StringVar(&cfg.Env, "env", cfg.Env, "Environment (development|staging|production)")
	flag.StringVar(&cfg.StaticDir, "static-dir", cfg.StaticDir, "Directory holding the built front-end (production only)")
	flag.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Minimum log level (info|error|fatal|off)")
	flag.StringVar(&cfg.DB.URI, "db-uri", cfg.DB.URI, "MongoDB connection string")
	flag.StringVar(&cfg.DB.Name, "db-name", cfg.DB.Name, "MongoDB database name")
	flag.DurationVar(&cfg.DB.Timeout, "db-timeout", cfg.DB.Timeout, "Timeout for each MongoDB operation")
	flag.Uint64Var(&cfg.DB.MaxPoolSize, "db-max-pool-size", cfg.DB.MaxPoolSize, "MongoDB max connection pool size")
	flag.Float64Var(&cfg.Limiter.RPS, "limiter-rps", cfg.Limiter.RPS, "Rate limiter maximum requests per second")
	flag.IntVar(&cfg.Limiter.Burst, "limiter-burst", cfg.Limiter.Burst, "Rate limiter maximum burst")
	flag.BoolVar(&cfg.Limiter.Enabled, "limiter-enabled", cfg.Limiter.Enabled, "Enable rate limiter")

	flag.Func("cors-trusted-origins", "Trusted CORS origins (space separated, \"*\" for any)", func(val string) error {
		cfg.CORS.TrustedOrigins = strings.Fields(val)
		return nil
	})

	displayVersion := flag.Bool("version", false, "Display version and exit")

	flag.Parse()

	if *displayVersion {
		fmt.Printf("Version:\t%s\n", version)
		os.Exit(0)
	}

	logger := jsonlog.NewLogger(os.Stdout, jsonlog.ParseLevel(cfg.LogLevel))

	if err := cfg.Validate(); err != nil {
		logger.PrintFatal(err, nil)
	}

	client, err := openDB(cfg)
	if err != nil {
		logger.PrintFatal(err, nil)
	}

	logger.PrintInfo("database connection established", map[string]string{
		"database": cfg.DB.Name,
	})

	db := client.Database(cfg.DB.Name)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	err = data.EnsureIndexes(ctx, db)
	cancel()
	if err != nil {
		logger.PrintFatal(err, nil)
	}

	app := &application{
		config: cfg,
		logger: logger,
		models: data.NewModels(db, cfg.DB.Timeout),
	}

	err = app.serve()

	// Close the connection pool whether or not the server stopped cleanly.
	ctx, cancel = context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if derr := client.Disconnect(ctx); derr != nil {
		logger.PrintError(derr, nil)
	} else {
		logger.PrintInfo("database connection closed", nil)
	}

	if err != nil {
		logger.PrintFatal(err, nil)
	}
}

// openDB connects to MongoDB and verifies the server answers.
func openDB(cfg config.Config) (*mongo.Client, error) {
	opts := options.Client().
		ApplyURI(cfg.DB.URI).
		SetServerSelectionTimeout(5 * time.Second)

	if cfg.DB.MaxPoolSize > 0 {
		opts.SetMaxPoolSize(cfg.DB.MaxPoolSize)
	}

	client, err := mongo.Connect(opts)
	if err != nil {
		return nil, fmt.Errorf("connect to MongoDB: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// If the server can't be reached within the 5 second deadline, give up.
	err = client.Ping(ctx, nil)
	if err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping MongoDB: %w", err)
	}

	return client, nil
}
