package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/davitran/lawlens/internal/analysis"
	"github.com/davitran/lawlens/internal/analysis/demo"
	"github.com/davitran/lawlens/internal/analysis/domain"
	"github.com/davitran/lawlens/internal/analysis/remote"
	"github.com/davitran/lawlens/internal/config"
	"github.com/davitran/lawlens/shared/logger"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables or flags")
	}

	defaultConfigPath := os.Getenv("ANALYZER_CLI_CONFIG_PATH")
	if defaultConfigPath == "" {
		defaultConfigPath = "configs/analyzer-cli/config.yaml"
	}
	configPath := flag.String("config", defaultConfigPath, "Path to configuration file")
	filePath := flag.String("file", "", "Path to the .html or .xml legal document")
	risk := flag.String("risk", "MEDIUM", "Risk profile: SAFE, MEDIUM or RISKY")
	demoMode := flag.Bool("demo", false, "Run against the local simulated backend")
	flag.Parse()

	if *filePath == "" {
		return fmt.Errorf("-file is required")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if !*demoMode {
		if err := cfg.ValidateClientConfig(); err != nil {
			return fmt.Errorf("invalid config: %w", err)
		}
	}

	appLogger := logger.New(os.Stderr, &logger.Config{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		AddSource: cfg.Logging.EnableCaller,
	})

	profile, err := domain.ParseRiskProfile(strings.ToUpper(*risk))
	if err != nil {
		return err
	}

	var driver analysis.Driver
	if *demoMode {
		d := demo.NewDriver(appLogger, demo.Options{})
		defer d.Close()
		driver = d
	} else {
		driver = remote.NewClient(cfg.Client.APIBaseURL, cfg.Client.RequestTimeout, appLogger)
	}

	controller := analysis.NewController(driver, appLogger, analysis.Options{
		GraceDelay:        cfg.Client.GraceDelay,
		PollInterval:      cfg.Client.PollInterval,
		PollFailureBudget: cfg.Client.PollFailureBudget,
	})

	f, err := os.Open(*filePath)
	if err != nil {
		return fmt.Errorf("failed to open document: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("failed to stat document: %w", err)
	}

	file := domain.SourceFile{
		Name:     filepath.Base(*filePath),
		ByteSize: info.Size(),
	}
	file.ContentType = file.ResolveContentType()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	updates, err := controller.Submit(ctx, file, f, profile)
	if err != nil {
		return err
	}

	// First interrupt cancels the submission; the controller then closes
	// the updates channel and the loop below drains naturally.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-quit
		appLogger.Warn("Interrupt received, cancelling analysis")
		controller.CancelAll()
	}()

	fmt.Printf("Analyzing %s (risk %s)...\n", file.Name, profile)

	lastStatus := domain.Status("")
	lastProgress := 0
	for snap := range updates {
		if snap.Status != lastStatus {
			lastStatus = snap.Status
			fmt.Printf("status: %s\n", snap.Status)
		}
		if snap.Progress > lastProgress {
			lastProgress = snap.Progress
			fmt.Printf("progress: %d%%\n", snap.Progress)
		}
	}

	final := controller.Snapshot()

	if final.Status == domain.StatusCompleted && final.Result == nil && final.Err != nil {
		appLogger.Warn("Result fetch failed, retrying once",
			slog.String("error", final.Err.Error()),
		)
		if err := controller.RetryFetch(ctx); err == nil {
			final = controller.Snapshot()
		}
	}

	switch final.Status {
	case domain.StatusCompleted:
		printResult(final.Result)
		return nil
	case domain.StatusUnknown:
		return fmt.Errorf("job %s disappeared from the backend", final.JobID)
	default:
		if final.Err != nil {
			return fmt.Errorf("analysis failed: %w", final.Err)
		}
		return fmt.Errorf("analysis ended in status %s", final.Status)
	}
}

func printResult(result *domain.ResultPayload) {
	if result == nil {
		fmt.Println("Analysis completed, but the result payload could not be fetched.")
		return
	}
	fmt.Println()
	fmt.Println(result.Summary)
	fmt.Printf("Recommended stocks: %s\n", strings.Join(result.Stocks, ", "))
	fmt.Println(result.Comment)
}
