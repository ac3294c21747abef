package main

// Analyze a single document from the command line:
//   go run ./cmd/analyze -file ./samples/doc.txt -lang en

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"doclex-backend/internal/analyses"
	"doclex-backend/internal/configs"
	"doclex-backend/internal/languages"
	"doclex-backend/internal/shared/config"
	"doclex-backend/internal/shared/storage/db"
	"doclex-backend/internal/stages"
)

func main() {
	filePath := flag.String("file", "", "document to analyze (UTF-8 text or PDF)")
	langHint := flag.String("lang", "", "language code hint; empty means detect")
	configID := flag.String("config", "", "configuration id; empty means the active one")
	configVersion := flag.Int("config-version", 0, "configuration version; 0 means latest")
	mimeType := flag.String("mime", "", "declared MIME type; empty means infer")
	flag.Parse()

	if *filePath == "" {
		fmt.Fprintln(os.Stderr, "usage: analyze -file <path> [-lang code] [-config id]")
		os.Exit(2)
	}

	cfg := config.Load()
	ctx := context.Background()

	svc, cleanup, err := buildService(ctx, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "setup failed: %v\n", err)
		os.Exit(1)
	}
	defer cleanup()

	data, err := os.ReadFile(*filePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "read %s: %v\n", *filePath, err)
		os.Exit(1)
	}

	result, err := svc.AnalyzeBytes(ctx, data, *mimeType, filepath.Base(*filePath), analyses.AnalyzeRequest{
		LanguageHint:  *langHint,
		ConfigID:      *configID,
		ConfigVersion: *configVersion,
	})
	if err != nil {
		// A resolution failure still committed the document and its log
		// entry; report that alongside the error.
		if errors.Is(err, analyses.ErrLanguageResolution) {
			printResult(result)
		}
		fmt.Fprintf(os.Stderr, "analysis failed [%s]: %v\n", analyses.CodeFor(err), err)
		os.Exit(1)
	}
	printResult(result)
}

func buildService(ctx context.Context, cfg config.Config) (*analyses.Service, func(), error) {
	registry, err := buildLanguages(cfg)
	if err != nil {
		return nil, nil, err
	}
	store, err := buildConfigs(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	gateway, cleanup, err := buildGateway(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}

	svc := &analyses.Service{
		Languages:        registry,
		Configs:          store,
		Stages:           stages.DefaultRegistry(),
		Gateway:          gateway,
		MaxDocumentBytes: cfg.MaxDocumentBytes,
		CommitAttempts:   cfg.CommitAttempts,
	}
	return svc, cleanup, nil
}

func buildLanguages(cfg config.Config) (*languages.Registry, error) {
	langs := languages.Builtin()
	if cfg.LanguagesFile != "" {
		loaded, err := languages.LoadFile(cfg.LanguagesFile)
		if err != nil {
			return nil, fmt.Errorf("load languages: %w", err)
		}
		langs = loaded
	}
	return languages.NewRegistry(languages.Options{MinConfidence: cfg.DetectMinScore}, langs...)
}

func buildConfigs(ctx context.Context, cfg config.Config) (configs.Store, error) {
	if cfg.ConfigsFile == "" {
		return configs.Seed(configs.Default())
	}
	loaded, err := configs.LoadFile(cfg.ConfigsFile)
	if err != nil {
		return nil, fmt.Errorf("load configurations: %w", err)
	}
	store, err := configs.Seed(loaded...)
	if err != nil {
		return nil, err
	}
	// A file with no active configuration still needs a default target.
	if _, err := store.GetActive(ctx); errors.Is(err, configs.ErrNoActiveConfig) && len(loaded) > 0 {
		if err := store.Activate(ctx, loaded[0].ID, loaded[0].Version); err != nil {
			return nil, err
		}
	}
	return store, nil
}

func buildGateway(ctx context.Context, cfg config.Config) (analyses.Gateway, func(), error) {
	switch cfg.StoreBackend {
	case "memory":
		return analyses.NewMemoryGateway(), func() {}, nil
	case "postgres":
		sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, db.OptionsFromEnv(db.DefaultServerOptions()))
		if err != nil {
			return nil, nil, fmt.Errorf("connect database: %w", err)
		}
		return &analyses.PGGateway{DB: sqlDB}, func() { sqlDB.Close() }, nil
	default:
		if err := os.MkdirAll(filepath.Dir(cfg.SQLitePath), 0o755); err != nil {
			return nil, nil, err
		}
		gw, err := analyses.OpenSQLiteGateway(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, nil, fmt.Errorf("open sqlite store: %w", err)
		}
		return gw, func() { gw.Close() }, nil
	}
}

func printResult(result analyses.AnalyzeResult) {
	payload, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "encode result: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(string(payload))
}
