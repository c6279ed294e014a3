// Package main is the kotae CLI entry point.
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

	"github.com/hyperjump/kotae/internal/cli"
	"github.com/hyperjump/kotae/internal/config"
	"github.com/hyperjump/kotae/internal/models"
	"github.com/hyperjump/kotae/internal/pipeline"
	"github.com/hyperjump/kotae/internal/server"
	"github.com/hyperjump/kotae/internal/watcher"
	"github.com/hyperjump/kotae/pkg/utils"
	"go.uber.org/zap"
)

var version = "dev"

const defaultConfigPath = "/usr/local/etc/kotae/config.yaml"

// loadConfig loads config from path. For the default path, config.yaml in the current
// directory wins when present, and a missing default file falls back to built-in defaults.
// Returns the config and the path actually loaded ("" when none was).
func loadConfig(path string) (*config.Config, string, error) {
	if path == defaultConfigPath {
		if cwd, err := os.Getwd(); err == nil {
			fallback := filepath.Join(cwd, "config.yaml")
			if _, statErr := os.Stat(fallback); statErr == nil {
				cfg, loadErr := config.Load(fallback)
				if loadErr != nil {
					return nil, "", loadErr
				}
				return cfg, fallback, nil
			}
		}
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			return config.Default(), "", nil
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

func main() {
	if err := config.LoadDotEnv(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load .env: %v\n", err)
	}
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	command := os.Args[1]
	switch command {
	case "server":
		runServer()
	case "index":
		runIndex()
	case "ask":
		runAsk()
	case "retrieve":
		runRetrieve()
	case "documents":
		runDocuments()
	case "status":
		runStatus()
	case "clear":
		runClear()
	case "watch":
		runWatch()
	case "version", "--version", "-v":
		fmt.Printf("kotae version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

// fatalf prints to stderr and exits with status 1.
func fatalf(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}

// stringList is a repeatable string flag.
type stringList []string

func (s *stringList) String() string { return strings.Join(*s, ",") }

func (s *stringList) Set(v string) error {
	*s = append(*s, v)
	return nil
}

// buildQuery joins all positional args with spaces so multi-word questions
// work the same with or without shell quoting.
func buildQuery(args []string) string {
	return strings.TrimSpace(strings.Join(args, " "))
}

// argsReorder moves flags that appear after the question to the front so flag.Parse sees
// them. The flag package stops at the first non-flag argument.
func argsReorder(args []string) []string {
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

// openPipeline loads config and builds an in-process pipeline with a CLI logger.
func openPipeline(configPath string, debug bool) (*pipeline.Pipeline, *zap.Logger) {
	cfg, _, err := loadConfig(configPath)
	if err != nil {
		fatalf("Failed to load config: %v", err)
	}
	logger, err := utils.NewCLILogger(cfg.Debug || debug)
	if err != nil {
		fatalf("Failed to create logger: %v", err)
	}
	p, err := pipeline.NewFromConfig(context.Background(), cfg, logger)
	if err != nil {
		fatalf("Failed to initialize: %v", err)
	}
	return p, logger
}

func runServer() {
	fs := flag.NewFlagSet("server", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging")
	_ = fs.Parse(os.Args[2:])

	cfg, resolvedConfigPath, err := loadConfig(*configPath)
	if err != nil {
		fatalf("Failed to load config: %v", err)
	}
	debugMode := cfg.Debug || *debug
	logger, err := utils.NewLogger(debugMode)
	if err != nil {
		fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	logger.Info("config loaded",
		zap.String("config_path", resolvedConfigPath),
		zap.String("store_backend", cfg.Storage.Backend),
		zap.Bool("debug", debugMode),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	p, err := pipeline.NewFromConfig(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize pipeline", zap.Error(err))
	}
	defer p.Close()

	watchSvc := watcher.NewWatcher(
		p.Indexer(),
		cfg.Watch.Directories,
		p.Settings().Extensions,
		cfg.Watch.RecursiveOrDefault(),
		watcher.WithLogger(logger),
	)
	if err := watchSvc.Start(ctx); err != nil {
		logger.Fatal("Failed to start watcher", zap.Error(err))
	}
	defer watchSvc.Stop()
	watchSvc.SyncExistingFiles()

	srv := server.NewServer(p, &cfg.Server, logger, server.WithWatch(watchSvc, resolvedConfigPath, cfg))
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

func runIndex() {
	fs := flag.NewFlagSet("index", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	serverURL := fs.String("server", "", "server URL (empty = index in-process)")
	recursive := fs.Bool("recursive", true, "descend into subdirectories")
	debug := fs.Bool("debug", false, "enable debug logging")
	_ = fs.Parse(argsReorder(os.Args[2:]))

	if fs.NArg() < 1 {
		fmt.Println("Usage: kotae index [flags] <file-or-directory>...")
		os.Exit(1)
	}

	if *serverURL != "" {
		c := newAPIClient(*serverURL)
		for _, path := range fs.Args() {
			abs, _ := filepath.Abs(path)
			resp, err := c.Index(context.Background(), &models.IndexRequest{Path: abs})
			if err != nil {
				fatalf("Indexing %s failed: %v", path, err)
			}
			fmt.Printf("Indexed %s: %s (%d chunks)\n", path, resp.ID, resp.Chunks)
		}
		return
	}

	p, logger := openPipeline(*configPath, *debug)
	defer logger.Sync()
	defer p.Close()

	ctx := context.Background()
	for _, path := range fs.Args() {
		info, err := os.Stat(path)
		if err != nil {
			fatalf("Failed to stat path: %v", err)
		}
		if info.IsDir() {
			n, err := p.IndexDirectory(ctx, path, *recursive)
			if err != nil {
				fatalf("Indexing directory failed: %v", err)
			}
			fmt.Printf("Indexed %d file(s) from %s\n", n, path)
			continue
		}
		doc, err := p.IndexDocument(ctx, path)
		if err != nil {
			fatalf("Indexing failed: %v", err)
		}
		fmt.Printf("Indexed %s: %s (%d chunks)\n", path, doc.ID, doc.ChunkCount)
	}
}

func runAsk() {
	fs := flag.NewFlagSet("ask", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	serverURL := fs.String("server", "", "server URL (empty = answer in-process)")
	retrieveK := fs.Int("retrieve-k", 0, "chunks to retrieve (0 = configured default)")
	rerankK := fs.Int("rerank-k", 0, "chunks kept after reranking (0 = configured default)")
	outputFormat := fs.String("output", "text", "output format: text or json")
	asJSON := fs.Bool("json", false, "shorthand for --output json")
	debug := fs.Bool("debug", false, "enable debug logging")
	var docs stringList
	fs.Var(&docs, "doc", "file to index before answering (repeatable, in-process only)")
	_ = fs.Parse(argsReorder(os.Args[2:]))

	question := buildQuery(fs.Args())
	if question == "" {
		fmt.Println("Usage: kotae ask [flags] <question>")
		os.Exit(1)
	}
	format := resolveFormat(*outputFormat, *asJSON)

	req := &models.AskRequest{Query: question, RetrieveK: *retrieveK, RerankK: *rerankK}
	var (
		resp *models.AskResponse
		err  error
	)
	if *serverURL != "" {
		if len(docs) > 0 {
			fatalf("--doc is not supported with --server; use kotae index --server first")
		}
		resp, err = newAPIClient(*serverURL).Ask(context.Background(), req)
	} else {
		p, logger := openPipeline(*configPath, *debug)
		defer logger.Sync()
		defer p.Close()
		ctx := context.Background()
		for _, d := range docs {
			if _, err := p.IndexDocument(ctx, d); err != nil {
				fatalf("Indexing %s failed: %v", d, err)
			}
		}
		resp, err = p.AnswerQuery(ctx, req.Query, req.RetrieveK, req.RerankK)
	}
	if err != nil {
		fatalf("Ask failed: %v", err)
	}
	if err := cli.WriteAnswer(os.Stdout, resp, format); err != nil {
		fatalf("Output failed: %v", err)
	}
}

func runRetrieve() {
	fs := flag.NewFlagSet("retrieve", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	serverURL := fs.String("server", "", "server URL (empty = retrieve in-process)")
	k := fs.Int("k", 0, "chunks to retrieve (0 = configured default)")
	outputFormat := fs.String("output", "text", "output format: text or json")
	asJSON := fs.Bool("json", false, "shorthand for --output json")
	debug := fs.Bool("debug", false, "enable debug logging")
	var docs stringList
	fs.Var(&docs, "doc", "file to index before retrieving (repeatable, in-process only)")
	_ = fs.Parse(argsReorder(os.Args[2:]))

	query := buildQuery(fs.Args())
	if query == "" {
		fmt.Println("Usage: kotae retrieve [flags] <query>")
		os.Exit(1)
	}
	format := resolveFormat(*outputFormat, *asJSON)

	var resp *models.RetrieveResponse
	if *serverURL != "" {
		if len(docs) > 0 {
			fatalf("--doc is not supported with --server; use kotae index --server first")
		}
		var err error
		resp, err = newAPIClient(*serverURL).Retrieve(context.Background(), &models.RetrieveRequest{Query: query, K: *k})
		if err != nil {
			fatalf("Retrieve failed: %v", err)
		}
	} else {
		p, logger := openPipeline(*configPath, *debug)
		defer logger.Sync()
		defer p.Close()
		ctx := context.Background()
		for _, d := range docs {
			if _, err := p.IndexDocument(ctx, d); err != nil {
				fatalf("Indexing %s failed: %v", d, err)
			}
		}
		chunks, err := p.RetrieveOnly(ctx, query, *k)
		if err != nil {
			fatalf("Retrieve failed: %v", err)
		}
		resp = &models.RetrieveResponse{Query: query, Chunks: chunks}
	}
	if err := cli.WriteChunks(os.Stdout, resp, format); err != nil {
		fatalf("Output failed: %v", err)
	}
}

func runDocuments() {
	fs := flag.NewFlagSet("documents", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	serverURL := fs.String("server", "", "server URL (empty = read the catalog in-process)")
	offset := fs.Int("offset", 0, "entries to skip")
	limit := fs.Int("limit", 50, "entries to list")
	outputFormat := fs.String("output", "text", "output format: text or json")
	asJSON := fs.Bool("json", false, "shorthand for --output json")
	_ = fs.Parse(os.Args[2:])
	format := resolveFormat(*outputFormat, *asJSON)

	var (
		docs []*models.Document
		err  error
	)
	if *serverURL != "" {
		docs, err = newAPIClient(*serverURL).Documents(context.Background(), *offset, *limit)
	} else {
		p, logger := openPipeline(*configPath, false)
		defer logger.Sync()
		defer p.Close()
		docs, err = p.Documents(context.Background(), *offset, *limit)
	}
	if err != nil {
		fatalf("List documents failed: %v", err)
	}
	if err := cli.WriteDocuments(os.Stdout, docs, format); err != nil {
		fatalf("Output failed: %v", err)
	}
}

func runStatus() {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	serverURL := fs.String("server", "", "server URL (empty = inspect in-process)")
	outputFormat := fs.String("output", "text", "output format: text or json")
	asJSON := fs.Bool("json", false, "shorthand for --output json")
	_ = fs.Parse(os.Args[2:])
	format := resolveFormat(*outputFormat, *asJSON)

	var (
		st  *models.Status
		err error
	)
	if *serverURL != "" {
		st, err = newAPIClient(*serverURL).Status(context.Background())
	} else {
		p, logger := openPipeline(*configPath, false)
		defer logger.Sync()
		defer p.Close()
		st, err = p.Status(context.Background())
	}
	if err != nil {
		fatalf("Status failed: %v", err)
	}
	if err := cli.WriteStatus(os.Stdout, st, format); err != nil {
		fatalf("Output failed: %v", err)
	}
}

func runClear() {
	fs := flag.NewFlagSet("clear", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	serverURL := fs.String("server", "", "server URL (empty = clear in-process)")
	_ = fs.Parse(os.Args[2:])

	var err error
	if *serverURL != "" {
		err = newAPIClient(*serverURL).Clear(context.Background())
	} else {
		p, logger := openPipeline(*configPath, false)
		defer logger.Sync()
		defer p.Close()
		err = p.Clear(context.Background())
	}
	if err != nil {
		fatalf("Clear failed: %v", err)
	}
	fmt.Println("Index cleared")
}

func runWatch() {
	if len(os.Args) < 3 {
		fmt.Println("Usage: kotae watch <add|remove|list> [path]")
		fmt.Println("  kotae watch add <path>     Add directory to watch")
		fmt.Println("  kotae watch remove <path>  Remove directory from watch")
		fmt.Println("  kotae watch list           List watched directories")
		os.Exit(1)
	}
	sub := os.Args[2]
	fs := flag.NewFlagSet("watch", flag.ExitOnError)
	serverURL := fs.String("server", "http://localhost:8080", "server URL")
	_ = fs.Parse(os.Args[3:])
	c := newAPIClient(*serverURL)
	ctx := context.Background()
	switch sub {
	case "add", "remove":
		if fs.NArg() < 1 {
			fmt.Printf("Usage: kotae watch %s <path>\n", sub)
			os.Exit(1)
		}
		path, _ := filepath.Abs(fs.Arg(0))
		var err error
		if sub == "add" {
			err = c.AddWatchDirectory(ctx, path)
		} else {
			err = c.RemoveWatchDirectory(ctx, path)
		}
		if err != nil {
			fatalf("Watch %s failed: %v", sub, err)
		}
		fmt.Printf("%s: %s\n", map[string]string{"add": "Added", "remove": "Removed"}[sub], path)
	case "list":
		dirs, err := c.WatchDirectories(ctx)
		if err != nil {
			fatalf("List failed: %v", err)
		}
		for _, d := range dirs {
			fmt.Println(d)
		}
	default:
		fatalf("Unknown watch subcommand: %s", sub)
	}
}

func resolveFormat(output string, asJSON bool) cli.OutputFormat {
	if asJSON {
		return cli.OutputJSON
	}
	format, err := cli.ParseFormat(output)
	if err != nil {
		fatalf("%v", err)
	}
	return format
}

func printUsage() {
	fmt.Println(`kotae - Local retrieval-augmented question answering

Usage:
  kotae server [flags]              Start the HTTP server and directory watcher
  kotae index [flags] <path>...     Index files or directories
  kotae ask [flags] <question>      Answer a question from the indexed documents
  kotae retrieve [flags] <query>    Show the chunks most similar to a query
  kotae documents [flags]           List indexed documents
  kotae status [flags]              Show pipeline status
  kotae clear [flags]               Drop every indexed document
  kotae watch <add|remove|list>     Manage watched directories (server must be running)
  kotae version                     Show version
  kotae help                        Show this help

Common Flags:
  --config string    Config file path (default: /usr/local/etc/kotae/config.yaml,
                     or ./config.yaml when present)
  --server string    Server URL. When set, the command goes through the HTTP API
                     instead of opening the stores in-process.
  --output string    Output format: text or json (default: text)
  --json             Shorthand for --output json
  --debug            Enable debug logging

Ask Flags:
  --retrieve-k int   Chunks to retrieve (default from config)
  --rerank-k int     Chunks kept after reranking (default from config)
  --doc string       File to index before answering (repeatable, in-process only)

Retrieve Flags:
  --k int            Chunks to retrieve (default from config)
  --doc string       File to index before retrieving (repeatable, in-process only)

Index Flags:
  --recursive        Descend into subdirectories (default: true)

Examples:
  kotae ask --doc notes.md "What is the capital of France?"
  kotae index ./docs
  kotae server
  kotae ask --server http://localhost:8080 "What is the capital of France?"
  kotae retrieve --json --k 3 capital of France
  kotae status --server http://localhost:8080
  kotae watch add /path/to/docs`)
}
