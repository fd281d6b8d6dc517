// Package main is the resumechat CLI entry point.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/hyperjump/resumechat/internal/cli"
	"github.com/hyperjump/resumechat/internal/config"
	"github.com/hyperjump/resumechat/internal/models"
	"github.com/hyperjump/resumechat/internal/prompt"
	"github.com/hyperjump/resumechat/internal/server"
	"github.com/hyperjump/resumechat/internal/watcher"
	"github.com/hyperjump/resumechat/pkg/utils"
)

var version = "dev"

const defaultConfigPath = "/usr/local/etc/resumechat/config.yaml"

// loadConfig loads config from path. When path is the default, config.yaml in
// the current directory wins if it exists, and built-in defaults are used when
// neither file exists. Returns the config and the path actually loaded ("" for
// built-in defaults).
func loadConfig(path string) (*config.Config, string, error) {
	if path == defaultConfigPath {
		if cwd, err := os.Getwd(); err == nil {
			fallback := filepath.Join(cwd, "config.yaml")
			if _, err := os.Stat(fallback); err == nil {
				cfg, err := config.Load(fallback)
				if err != nil {
					return nil, "", err
				}
				return cfg, fallback, nil
			}
		}
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			cfg, err := defaultConfig()
			return cfg, "", err
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

func defaultConfig() (*config.Config, error) {
	cfg := &config.Config{}
	config.ApplyDefaults(cfg)
	if err := config.ApplyEnv(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadEnvFile reads .env from the working directory if present.
func loadEnvFile() error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

func main() {
	if err := loadEnvFile(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to load .env: %v\n", err)
	}
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	command := os.Args[1]
	switch command {
	case "build":
		runBuild()
	case "serve", "server":
		runServe()
	case "retrieve":
		runRetrieve()
	case "prompt":
		runPrompt()
	case "ask":
		runAsk()
	case "status":
		runStatus()
	case "init":
		runInit()
	case "version", "--version", "-v":
		fmt.Printf("resumechat version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

// setup parses common flags, loads config and builds the logger. It exits the
// process on failure like every other command path.
func setup(fs *flag.FlagSet, args []string) (*config.Config, *zap.Logger) {
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging")
	_ = fs.Parse(args)

	cfg, resolved, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	cfg.Debug = cfg.Debug || *debug
	logger, err := utils.NewLogger(cfg.Debug)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	if resolved == "" {
		resolved = "(built-in defaults)"
	}
	logger.Debug("config loaded", zap.String("config_path", resolved), zap.Bool("debug", cfg.Debug))
	return cfg, logger
}

func runBuild() {
	fs := flag.NewFlagSet("build", flag.ExitOnError)
	cfg, logger := setup(fs, os.Args[2:])
	defer logger.Sync()

	app, err := newApp(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize", zap.Error(err))
	}
	defer app.Close()

	rec, err := app.build(context.Background())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Build failed: %v\n", err)
		os.Exit(1)
	}
	cli.WriteBuildSummary(os.Stdout, rec)
}

func runServe() {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	cfg, logger := setup(fs, os.Args[2:])
	defer logger.Sync()

	app, err := newApp(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize", zap.Error(err))
	}
	defer app.Close()

	if err := app.retriever.Warm(); err != nil {
		logger.Fatal("Failed to load index; run 'resumechat build' first", zap.Error(err))
	}
	app.checkEmbedder(context.Background())

	svc, err := app.chatService()
	if err != nil {
		logger.Fatal("Failed to initialize language model client", zap.Error(err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if cfg.Retrieval.ReloadOnChange {
		w, err := watcher.ReloadOnChange(ctx, cfg.Storage.IndexPath, cfg.Storage.MetadataPath, app.retriever.Reload, logger)
		if err != nil {
			logger.Fatal("Failed to start artifact watcher", zap.Error(err))
		}
		defer w.Stop()
	}

	srv := server.NewServer(svc, app.retriever, app.catalog, cfg, logger)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down...")
	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	_ = srv.Stop(shutdownCtx)
}

// reorderArgs moves flags that follow the question to the front so flag.Parse
// sees them; Go's flag package stops at the first positional argument.
func reorderArgs(args []string) []string {
	for i, a := range args {
		if len(a) > 0 && a[0] == '-' {
			if i == 0 {
				return args
			}
			reordered := make([]string, 0, len(args))
			reordered = append(reordered, args[i:]...)
			reordered = append(reordered, args[:i]...)
			return reordered
		}
	}
	return args
}

// joinQuestion joins positional args so quoting the question is optional.
func joinQuestion(args []string) string {
	return strings.TrimSpace(strings.Join(args, " "))
}

func questionOrExit(fs *flag.FlagSet) string {
	q := joinQuestion(fs.Args())
	if q == "" {
		fmt.Fprintf(fs.Output(), "Usage: resumechat %s [flags] <question>\n\n", fs.Name())
		fs.PrintDefaults()
		os.Exit(1)
	}
	return q
}

func runRetrieve() {
	fs := flag.NewFlagSet("retrieve", flag.ExitOnError)
	topK := fs.Int("top-k", 0, "number of chunks (default from config)")
	output := fs.String("output", "text", "output format: text, compact or json")
	cfg, logger := setup(fs, reorderArgs(os.Args[2:]))
	defer logger.Sync()
	question := questionOrExit(fs)

	format, err := cli.ParseOutputFormat(*output)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	app, err := newApp(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize", zap.Error(err))
	}
	defer app.Close()

	req := models.RetrieveRequest{Question: question, TopK: *topK}
	if err := req.Validate(cfg.Retrieval.TopK); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid request: %v\n", err)
		os.Exit(1)
	}
	start := time.Now()
	results, err := app.retriever.RetrieveScored(context.Background(), req.Question, req.TopK)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Retrieve failed: %v\n", err)
		os.Exit(1)
	}
	resp := &models.RetrieveResponse{
		Question:  req.Question,
		Results:   results,
		Total:     len(results),
		QueryTime: time.Since(start).Milliseconds(),
	}
	if err := cli.WriteRetrieveResults(os.Stdout, resp, format); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
}

func runPrompt() {
	fs := flag.NewFlagSet("prompt", flag.ExitOnError)
	topK := fs.Int("top-k", 0, "number of chunks (default from config)")
	cfg, logger := setup(fs, reorderArgs(os.Args[2:]))
	defer logger.Sync()
	question := questionOrExit(fs)

	app, err := newApp(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize", zap.Error(err))
	}
	defer app.Close()

	k := *topK
	if k <= 0 {
		k = cfg.Retrieval.TopK
	}
	chunks, err := app.retriever.Retrieve(context.Background(), question, k)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Retrieve failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(prompt.NewAssembler(prompt.PersonaFromConfig(cfg.Persona)).Build(question, chunks))
}

func runAsk() {
	fs := flag.NewFlagSet("ask", flag.ExitOnError)
	cfg, logger := setup(fs, reorderArgs(os.Args[2:]))
	defer logger.Sync()
	question := questionOrExit(fs)

	app, err := newApp(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize", zap.Error(err))
	}
	defer app.Close()

	svc, err := app.chatService()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize language model client: %v\n", err)
		os.Exit(1)
	}
	resp, err := svc.Answer(context.Background(), question)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Ask failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(resp.Answer)
	if resp.Document != nil {
		fmt.Printf("Document: %s (%s)\n", resp.Document.Name, resp.Document.URL)
	}
}

func runStatus() {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	output := fs.String("output", "text", "output format: text or json")
	cfg, logger := setup(fs, os.Args[2:])
	defer logger.Sync()

	format, err := cli.ParseOutputFormat(*output)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	app, err := newApp(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize", zap.Error(err))
	}
	defer app.Close()

	if err := app.retriever.Warm(); err != nil {
		fmt.Fprintf(os.Stderr, "Index not loaded: %v\n", err)
	}
	st := server.CollectStatus(context.Background(), app.retriever, app.catalog, cfg, logger)
	if err := cli.WriteStatus(os.Stdout, st, format); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
}

// writeDefaultConfig saves the built-in defaults to path. An existing file is
// left alone unless force is set.
func writeDefaultConfig(path string, force bool) error {
	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("%s already exists (use --force to overwrite)", path)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	cfg := &config.Config{}
	config.ApplyDefaults(cfg)
	return config.Save(path, cfg)
}

func runInit() {
	fs := flag.NewFlagSet("init", flag.ExitOnError)
	configPath := fs.String("config", "config.yaml", "where to write the config")
	force := fs.Bool("force", false, "overwrite an existing file")
	_ = fs.Parse(os.Args[2:])

	if err := writeDefaultConfig(*configPath, *force); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to write config: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Wrote default config to %s\n", *configPath)
}

func printUsage() {
	fmt.Println(`resumechat - résumé question answering over a local vector index

Usage:
  resumechat build [flags]                Extract, chunk and embed documents into the index
  resumechat serve [flags]                Start the HTTP chat server
  resumechat retrieve [flags] <question>  Show the chunks retrieved for a question
  resumechat prompt [flags] <question>    Print the prompt that would be sent to the model
  resumechat ask [flags] <question>       Answer a question from the command line
  resumechat status [flags]               Show index and build status
  resumechat init [--config path]         Write a default config file (default ./config.yaml)
  resumechat version                      Show version
  resumechat help                         Show this help

Common Flags:
  --config string    Config file path (default: /usr/local/etc/resumechat/config.yaml,
                     or ./config.yaml when present)
  --debug            Enable debug logging

Retrieve Flags:
  --top-k int        Number of chunks (default from retrieval.top_k)
  --output string    Output format: text, compact or json (default: text)

Prompt Flags:
  --top-k int        Number of chunks (default from retrieval.top_k)

Status Flags:
  --output string    Output format: text or json (default: text)

Environment:
  GROQ_API_KEY       API key for the language model (read from .env when present)
  PORT               Overrides server.port
  RESUMECHAT_DEBUG   Overrides debug

Examples:
  resumechat build
  resumechat serve
  resumechat retrieve --top-k 5 "What is his degree?"
  resumechat retrieve what projects has he built --output json
  resumechat ask "Tell me about his projects"
  resumechat status --output json`)
}
