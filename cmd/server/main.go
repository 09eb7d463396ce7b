package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/Spok95/omr-grader/internal/api"
	"github.com/Spok95/omr-grader/internal/config"
	"github.com/Spok95/omr-grader/internal/db"
	"github.com/Spok95/omr-grader/internal/grading"
	"github.com/Spok95/omr-grader/internal/jobs"
	"github.com/Spok95/omr-grader/internal/logging"
	"github.com/Spok95/omr-grader/internal/observability"
	"github.com/Spok95/omr-grader/internal/recognizer"
	"github.com/Spok95/omr-grader/internal/storage"
)

var version = "dev"

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Не удалось загрузить .env файл, используем переменные окружения")
	}

	app := &cli.App{
		Name:    "omr-server",
		Usage:   "проверка бланков ответов",
		Version: version,
		Action:  serve,
		Commands: []*cli.Command{
			{Name: "serve", Usage: "HTTP API (по умолчанию)", Action: serve},
			{Name: "migrate", Usage: "применить миграции и выйти", Action: migrate},
			{
				Name:  "token",
				Usage: "выпустить токен учителя для отладки",
				Flags: []cli.Flag{
					&cli.Int64Flag{Name: "teacher", Required: true, Usage: "id учителя"},
					&cli.DurationFlag{Name: "ttl", Value: 72 * time.Hour},
				},
				Action: issueToken,
			},
		},
	}
	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func serve(c *cli.Context) error {
	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	lg, err := logging.Init(cfg.LogLevel, cfg.Env)
	if err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	defer lg.Closer()

	flush, err := observability.InitSentry(cfg.SentryDSN, cfg.Env, version)
	if err != nil {
		lg.Base.Warn("sentry init failed", zap.Error(err))
	}
	defer flush()

	database, err := db.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer func() { _ = database.Close() }()
	if err := db.Migrate(ctx, database); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	scans, err := storage.NewLocal(cfg.StorageDir, cfg.PublicBaseURL)
	if err != nil {
		return err
	}

	var rec recognizer.Recognizer
	if cfg.RecognizerURL != "" {
		rec = recognizer.NewHTTP(cfg.RecognizerURL, cfg.RecognizerTimeout)
		lg.Base.Info("recognizer: http", zap.String("url", cfg.RecognizerURL))
	} else {
		rec = recognizer.NewProcess(cfg.RecognizerCmd, "")
		lg.Base.Info("recognizer: process", zap.Strings("cmd", cfg.RecognizerCmd))
	}
	rec = recognizer.NewLimited(rec, cfg.RecognizerConcurrency)

	scorer := grading.NewService(grading.NewSQLStore(database), rec, scans, cfg.RecognizerTimeout, lg)

	runner := jobs.New(ctx, lg)
	runner.Every(time.Hour, "debug_image_cleanup", jobs.DebugImageCleanup(scans, cfg.DebugImageTTL, lg))

	srv := api.New(api.Deps{
		Store:      api.NewSQLStore(database),
		Scorer:     scorer,
		JWTSecret:  cfg.JWTSecret,
		StorageDir: scans.Root(),
		Log:        lg,
	})

	lg.Base.Info("http server starting", zap.String("addr", cfg.HTTPAddr), zap.String("env", cfg.Env))
	if err := srv.Run(ctx, cfg.HTTPAddr); err != nil {
		observability.CaptureErr(err)
		return fmt.Errorf("http server: %w", err)
	}
	lg.Base.Info("http server stopped")
	return nil
}

func migrate(c *cli.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(c.Context, 2*time.Minute)
	defer cancel()

	database, err := db.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer func() { _ = database.Close() }()
	return db.Migrate(ctx, database)
}

func issueToken(c *cli.Context) error {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		return fmt.Errorf("JWT_SECRET не задан")
	}
	tok, err := api.IssueToken(secret, c.Int64("teacher"), c.Duration("ttl"))
	if err != nil {
		return err
	}
	fmt.Println(tok)
	return nil
}
