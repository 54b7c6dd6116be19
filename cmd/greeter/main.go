package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/LoisM94/birthday-greeting/internal/app"
	"github.com/LoisM94/birthday-greeting/internal/config"
	"github.com/LoisM94/birthday-greeting/internal/logging"
	"github.com/LoisM94/birthday-greeting/internal/metrics"
	"github.com/LoisM94/birthday-greeting/internal/secrets"
	"github.com/LoisM94/birthday-greeting/internal/version"
	"github.com/LoisM94/birthday-greeting/pkg/greeting/clock"
	"github.com/LoisM94/birthday-greeting/pkg/greeting/core"
	"github.com/LoisM94/birthday-greeting/pkg/greeting/io/local"
	"github.com/LoisM94/birthday-greeting/pkg/greeting/redact"
	"github.com/LoisM94/birthday-greeting/pkg/greeting/retry"
	"github.com/LoisM94/birthday-greeting/pkg/greeting/validate"
	"github.com/LoisM94/birthday-greeting/pkg/sendgrid"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if len(os.Args) < 2 {
		usage(os.Stderr)
		os.Exit(2)
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		_, _ = fmt.Fprintf(os.Stderr, "load .env: %v\n", err)
		os.Exit(2)
	}

	var code int
	switch os.Args[1] {
	case "help", "-h", "--help":
		usage(os.Stdout)
	case "version":
		_, _ = fmt.Fprintln(os.Stdout, version.Current)
	case "run":
		code = runConfig(ctx, os.Args[2:])
	case "local":
		code = runLocal(ctx, os.Args[2:])
	default:
		_, _ = fmt.Fprintf(os.Stderr, "unknown command: %s\n\n", os.Args[1])
		usage(os.Stderr)
		code = 2
	}
	stop()
	os.Exit(code)
}

func runConfig(ctx context.Context, args []string) int {
	fset := flag.NewFlagSet("run", flag.ContinueOnError)
	fset.SetOutput(os.Stderr)
	configPath := fset.String("config", "greeter.yaml", "Path to the YAML configuration file")
	debug := fset.Bool("debug", false, "Enable debug logging")
	if err := fset.Parse(args); err != nil {
		return 2
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "config error: %s\n", redact.Secrets(err.Error()))
		return 2
	}

	level, err := logging.ParseLevel(cfg.Logging.Level)
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "config error: %s\n", err)
		return 2
	}
	if *debug {
		level = slog.LevelDebug
	}
	logger := logging.New(os.Stderr, level, cfg.Logging.Format)
	slog.SetDefault(logger)

	clk, err := clock.New(cfg.Timezone)
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "config error: %s\n", err)
		return 2
	}

	apiKey := ""
	if id := strings.TrimSpace(cfg.SendGrid.APIKeySecretID); id != "" {
		sm, err := secrets.New(ctx, cfg.SendGrid.SecretRegion, logger)
		if err != nil {
			logger.Error("secrets manager setup failed", "error", redact.Secrets(err.Error()))
			return 1
		}
		apiKey, err = sm.APIKey(ctx, id)
		if err != nil {
			logger.Error("sendgrid api key lookup failed", "secret_id", id, "error", redact.Secrets(err.Error()))
			return 1
		}
	}

	channel, err := sendgrid.New(cfg.SendGridConfig(apiKey))
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "sendgrid config error: %s\n", redact.Secrets(err.Error()))
		return 2
	}

	source, closeSource, err := app.OpenSource(ctx, cfg.Source, logger)
	if err != nil {
		logger.Error("record source setup failed", "kind", cfg.Source.Kind, "error", redact.Secrets(err.Error()))
		return 1
	}
	defer closeSource()

	rec := metrics.New()
	g, err := app.New(app.Deps{
		Clock:     clk,
		Source:    source,
		Validator: validate.PersonValidator{},
		Channel:   channel,
		Retry:     cfg.RetryPolicy(),
		Logger:    logger,
		Metrics:   rec,
	})
	if err != nil {
		logger.Error("greeter setup failed", "error", err)
		return 1
	}

	g.Run(ctx)

	if err := rec.Push(cfg.Metrics.PushgatewayURL, cfg.Metrics.Job); err != nil {
		logger.Warn("metrics push failed", "error", redact.Secrets(err.Error()))
	}
	return 0
}

func runLocal(ctx context.Context, args []string) int {
	env, err := loadLocalEnv()
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "config error: %s\n", redact.Secrets(err.Error()))
		return 2
	}

	fset := flag.NewFlagSet("local", flag.ContinueOnError)
	fset.SetOutput(os.Stderr)
	var inputPath string
	var dryRun bool
	fset.StringVar(&inputPath, "input", "", "Input CSV file path (first_name,last_name,email,date_of_birth)")
	fset.StringVar(&env.FromAddress, "from", env.FromAddress, "Sender address (env: FROM_ADDRESS)")
	fset.StringVar(&env.BaseURL, "sendgrid-base-url", env.BaseURL, "SendGrid API base URL override (env: SENDGRID_BASE_URL)")
	fset.IntVar(&env.MaxRetries, "max-retries", env.MaxRetries, "Max retries per greeting for transport failures (env: MAX_RETRIES)")
	fset.DurationVar(&env.BaseDelay, "retry-base-delay", env.BaseDelay, "Retry k waits base*2^k (env: RETRY_BASE_DELAY)")
	fset.StringVar(&env.Timezone, "timezone", env.Timezone, "IANA zone used to decide today's date (env: TIMEZONE)")
	fset.StringVar(&env.LogLevel, "log-level", env.LogLevel, "debug, info, warn or error (env: LOG_LEVEL)")
	fset.BoolVar(&dryRun, "dry-run", false, "Log greetings instead of sending them")
	if err := fset.Parse(args); err != nil {
		return 2
	}
	if inputPath == "" {
		_, _ = fmt.Fprintln(os.Stderr, "local requires --input")
		return 2
	}
	if env.MaxRetries < 0 {
		_, _ = fmt.Fprintln(os.Stderr, "--max-retries must be >= 0")
		return 2
	}

	level, err := logging.ParseLevel(env.LogLevel)
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "config error: %s\n", err)
		return 2
	}
	logger := logging.New(os.Stderr, level, "text")
	slog.SetDefault(logger)

	clk, err := clock.New(env.Timezone)
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "config error: %s\n", err)
		return 2
	}

	var channel core.DeliveryChannel
	if dryRun {
		channel = app.DryRunChannel{Logger: logger, Message: sendgrid.Message}
	} else {
		c, err := sendgrid.New(sendgrid.Config{
			APIKey:      env.APIKey,
			FromAddress: env.FromAddress,
			BaseURL:     env.BaseURL,
		})
		if err != nil {
			_, _ = fmt.Fprintf(os.Stderr, "sendgrid config error: %s\n", redact.Secrets(err.Error()))
			return 2
		}
		channel = c
	}

	g, err := app.New(app.Deps{
		Clock:     clk,
		Source:    &local.FileSource{Path: inputPath, Logger: logger},
		Validator: validate.PersonValidator{},
		Channel:   channel,
		Retry:     retry.Policy{MaxRetries: env.MaxRetries, BaseDelay: env.BaseDelay},
		Logger:    logger,
	})
	if err != nil {
		logger.Error("greeter setup failed", "error", err)
		return 1
	}
	g.Run(ctx)
	return 0
}

func usage(w *os.File) {
	_, _ = fmt.Fprintf(w, `greeter: sends a birthday e-mail to everyone whose birthday is today

Usage:
  greeter <command> [flags]

Commands:
  run      Run from a YAML config (CSV, S3 or Postgres source; optional Redis cache)
  local    Run against a local CSV using environment/flag settings
  version  Print the version

Examples:
  greeter run --config greeter.yaml
  greeter local --input people.csv --dry-run

Environment (local):
  SENDGRID_API_KEY   SendGrid API key (required unless --dry-run)
  FROM_ADDRESS       Sender address (required unless --dry-run)
  SENDGRID_BASE_URL  Optional base URL override (proxies/testing)
  MAX_RETRIES        Retries per greeting (default %d)
  RETRY_BASE_DELAY   Backoff base (default %s)
  TIMEZONE           IANA zone for "today" (default: host zone)
  LOG_LEVEL          debug, info, warn or error

A .env file in the working directory is loaded first when present.

`, retry.DefaultMaxRetries, retry.DefaultBaseDelay)
}

type localEnv struct {
	APIKey      string
	FromAddress string
	BaseURL     string
	MaxRetries  int
	BaseDelay   time.Duration
	Timezone    string
	LogLevel    string
}

func loadLocalEnv() (localEnv, error) {
	maxRetries, err := envInt("MAX_RETRIES", retry.DefaultMaxRetries)
	if err != nil {
		return localEnv{}, err
	}
	baseDelay, err := envDuration("RETRY_BASE_DELAY", retry.DefaultBaseDelay)
	if err != nil {
		return localEnv{}, err
	}
	return localEnv{
		APIKey:      strings.TrimSpace(os.Getenv("SENDGRID_API_KEY")),
		FromAddress: strings.TrimSpace(os.Getenv("FROM_ADDRESS")),
		BaseURL:     strings.TrimSpace(os.Getenv("SENDGRID_BASE_URL")),
		MaxRetries:  maxRetries,
		BaseDelay:   baseDelay,
		Timezone:    strings.TrimSpace(os.Getenv("TIMEZONE")),
		LogLevel:    strings.TrimSpace(os.Getenv("LOG_LEVEL")),
	}, nil
}
