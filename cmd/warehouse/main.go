// Package main provides the warehouse CLI: the forensic graph-warehouse
// loader's single entrypoint for ingesting chain archives, enriching the
// graph with operator-supplied metadata, and running the offline
// exchange-account analytics.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/forensic-graph/warehouse/internal/config"
	"github.com/forensic-graph/warehouse/internal/enrich"
	"github.com/forensic-graph/warehouse/internal/exchangeload"
	"github.com/forensic-graph/warehouse/internal/graphstore"
	"github.com/forensic-graph/warehouse/internal/ingest"
	"github.com/forensic-graph/warehouse/internal/matcher"
	"github.com/forensic-graph/warehouse/internal/rescue"
	"github.com/forensic-graph/warehouse/internal/scan"
	"github.com/forensic-graph/warehouse/internal/storage"
	"github.com/forensic-graph/warehouse/internal/unzip"
	"github.com/forensic-graph/warehouse/internal/warehouse"
	"github.com/forensic-graph/warehouse/pkg/logging"
)

var (
	version = "0.1.0-dev"
	commit  = "unknown"
)

func main() {
	dataDir := flag.String("data-dir", "~/.warehouse", "Data directory (config and local audit cache)")
	dbURI := flag.String("db-uri", "", "Graph database URI, e.g. neo4j+s://localhost:7687 (overrides config/env)")
	dbUser := flag.String("db-user", "", "Graph database username (overrides config/env)")
	dbPass := flag.String("db-pass", "", "Graph database password (overrides config/env)")
	logLevel := flag.String("log-level", "", "Log level: debug, info, warn, error (overrides config)")
	showVersion := flag.Bool("version", false, "Show version and exit")
	flag.Usage = printUsage
	flag.Parse()

	log := logging.New(&logging.Config{Level: "info", TimeFormat: time.TimeOnly})
	logging.SetDefault(log)

	if *showVersion {
		log.Infof("warehouse %s (commit: %s)", version, commit)
		os.Exit(0)
	}

	args := flag.Args()
	if len(args) == 0 {
		flag.Usage()
		os.Exit(1)
	}
	sub, rest := args[0], args[1:]

	cfg, err := config.LoadConfigFile(expandPath(*dataDir))
	if err != nil {
		log.Fatal("loading config", "error", err)
	}
	if *logLevel != "" {
		cfg.Logging.Level = *logLevel
	}
	log = logging.New(&logging.Config{Level: cfg.Logging.Level, TimeFormat: time.TimeOnly})
	logging.SetDefault(log)

	if creds, err := graphstore.CredentialsFromEnv(); err == nil {
		cfg.Graph.URI = creds.URI
		cfg.Graph.User = creds.Username
		cfg.Graph.Password = creds.Password
	}
	if *dbURI != "" {
		cfg.Graph.URI = *dbURI
	}
	if *dbUser != "" {
		cfg.Graph.User = *dbUser
	}
	if *dbPass != "" {
		cfg.Graph.Password = *dbPass
	}

	store, err := storage.New(&storage.Config{DataDir: expandPath(*dataDir)})
	if err != nil {
		log.Fatal("initializing local audit cache", "error", err)
	}
	defer store.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Info("received interrupt, shutting down...")
		cancel()
	}()

	if err := dispatch(ctx, cfg, store, sub, rest); err != nil {
		log.Fatal("command failed", "command", sub, "error", err)
	}
}

func dispatch(ctx context.Context, cfg *config.Config, store *storage.Storage, sub string, args []string) error {
	switch sub {
	case "ingest-all":
		return cmdIngestAll(ctx, cfg, store, args)
	case "ingest-one":
		return cmdIngestOne(ctx, cfg, store, args)
	case "check":
		return cmdCheck(args)
	case "enrich-exchange":
		return cmdEnrichExchange(ctx, cfg, args)
	case "enrich-onramp":
		return cmdEnrichOnramp(ctx, cfg, args)
	case "enrich-whitepages":
		return cmdEnrichWhitepages(ctx, cfg, args)
	case "rescue-v5":
		return cmdRescueV5(ctx, cfg, args)
	case "match":
		return cmdMatch(ctx, cfg, args)
	case "status":
		return cmdStatus(store)
	default:
		flag.Usage()
		return fmt.Errorf("unknown subcommand %q", sub)
	}
}

// openGraph connects to the graph database using cfg.Graph, into which main
// has already folded env credentials over the config file and CLI flags
// over both.
func openGraph(ctx context.Context, cfg *config.Config) (*graphstore.Store, error) {
	if cfg.Graph.URI == "" {
		return nil, fmt.Errorf("no graph credentials: set FORENSIC_GRAPH_DB_URI or configure warehouse.yaml")
	}
	creds := graphstore.Credentials{URI: cfg.Graph.URI, Username: cfg.Graph.User, Password: cfg.Graph.Password}
	store, err := graphstore.Open(ctx, creds)
	if err != nil {
		return nil, err
	}
	if err := store.EnsureSchema(ctx); err != nil {
		store.Close(ctx)
		return nil, err
	}
	return store, nil
}

// defaultDecoder is the decoder wired in when the operator hasn't supplied
// a real one. A production deployment replaces this with a decoder built
// against its own Move/BCS bytecode bindings — see
// internal/warehouse.EntryFunctionDecoder.
func defaultDecoder() warehouse.EntryFunctionDecoder {
	return warehouse.ChainDecoders(warehouse.FakeDecoder("v7"), warehouse.FakeDecoder("v6"))
}

func cmdIngestAll(ctx context.Context, cfg *config.Config, store *storage.Storage, args []string) error {
	fs := flag.NewFlagSet("ingest-all", flag.ExitOnError)
	startPath := fs.String("start-path", "", "path to start crawling from")
	batchSize := fs.Int("batch-size", cfg.Load.BatchSize, "size of each batch to load")
	clearQueue := fs.Bool("clear-queue", false, "force clear and re-enqueue the load queue")
	fs.Parse(args)
	if *startPath == "" {
		return fmt.Errorf("ingest-all requires -start-path")
	}

	archiveMap, err := scan.ScanDirArchive(*startPath)
	if err != nil {
		return err
	}

	graph, err := openGraph(ctx, cfg)
	if err != nil {
		return err
	}
	defer graph.Close(ctx)

	controller := &ingest.Controller{Store: graph, Extractor: ingest.NewFakeExtractor(), BatchSize: *batchSize}

	if err := store.RecordAttempt(*startPath); err != nil {
		logging.GetDefault().Warn("recording local audit attempt", "error", err)
	}
	if err := controller.IngestAll(ctx, archiveMap, *clearQueue); err != nil {
		_ = store.RecordFailure(*startPath, err)
		return err
	}
	_ = store.RecordSuccess(*startPath, uint64(len(archiveMap.Manifests)))
	return nil
}

func cmdIngestOne(ctx context.Context, cfg *config.Config, store *storage.Storage, args []string) error {
	fs := flag.NewFlagSet("ingest-one", flag.ExitOnError)
	archiveDir := fs.String("archive-dir", "", "location of archive")
	fs.Parse(args)
	if *archiveDir == "" {
		return fmt.Errorf("ingest-one requires -archive-dir")
	}

	logging.GetDefault().Info("checking if we need to decompress")
	resolvedDir, scoped, err := unzip.MaybeHandleGz(*archiveDir)
	if err != nil {
		return err
	}
	if scoped != nil {
		defer scoped.Close()
	}

	archiveMap, err := scan.ScanDirArchive(resolvedDir)
	if err != nil {
		return err
	}
	if len(archiveMap.Manifests) == 0 {
		return fmt.Errorf("no manifest found under %s", resolvedDir)
	}

	graph, err := openGraph(ctx, cfg)
	if err != nil {
		return err
	}
	defer graph.Close(ctx)

	controller := &ingest.Controller{Store: graph, Extractor: ingest.NewFakeExtractor(), BatchSize: cfg.Load.BatchSize}

	if err := store.RecordAttempt(*archiveDir); err != nil {
		logging.GetDefault().Warn("recording local audit attempt", "error", err)
	}
	if err := controller.IngestAll(ctx, archiveMap, false); err != nil {
		_ = store.RecordFailure(*archiveDir, err)
		return err
	}
	_ = store.RecordSuccess(*archiveDir, 1)
	return nil
}

func cmdCheck(args []string) error {
	fs := flag.NewFlagSet("check", flag.ExitOnError)
	archiveDir := fs.String("archive-dir", "", "location of archive")
	fs.Parse(args)
	if *archiveDir == "" {
		return fmt.Errorf("check requires -archive-dir")
	}

	am, err := scan.ScanDirArchive(*archiveDir)
	if err != nil {
		return err
	}
	if len(am.Manifests) == 0 {
		return fmt.Errorf("cannot find a manifest file under %s", *archiveDir)
	}
	for _, m := range am.Manifests {
		logging.GetDefault().Info("manifest found", "path", m.ManifestPath, "content", m.Content.String(), "version", m.Version)
	}
	return nil
}

func cmdEnrichExchange(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("enrich-exchange", flag.ExitOnError)
	exchangeJSON := fs.String("exchange-json", "", "file with exchange order records")
	batchSize := fs.Int("batch-size", cfg.Load.BatchSize, "size of each batch to load")
	fs.Parse(args)
	if *exchangeJSON == "" {
		return fmt.Errorf("enrich-exchange requires -exchange-json")
	}

	graph, err := openGraph(ctx, cfg)
	if err != nil {
		return err
	}
	defer graph.Close(ctx)

	merged, ignored, err := exchangeload.LoadFromJSON(ctx, graph, *exchangeJSON, *batchSize)
	if err != nil {
		return err
	}
	logging.GetDefault().Info("exchange transactions merged", "merged", merged, "ignored", ignored)
	return nil
}

func cmdEnrichOnramp(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("enrich-onramp", flag.ExitOnError)
	onboardingJSON := fs.String("onboarding-json", "", "file with onboarding accounts")
	fs.Parse(args)
	if *onboardingJSON == "" {
		return fmt.Errorf("enrich-onramp requires -onboarding-json")
	}

	batch, err := enrich.ParseOnRampFile(*onboardingJSON)
	if err != nil {
		return err
	}

	graph, err := openGraph(ctx, cfg)
	if err != nil {
		return err
	}
	defer graph.Close(ctx)

	merged, err := enrich.LinkOnRamps(ctx, graph, batch)
	if err != nil {
		return err
	}
	fmt.Printf("SUCCESS: %d exchange onramp accounts linked\n", merged)
	return nil
}

func cmdEnrichWhitepages(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("enrich-whitepages", flag.ExitOnError)
	ownerJSON := fs.String("owner-json", "", "file with owner map")
	fs.Parse(args)
	if *ownerJSON == "" {
		return fmt.Errorf("enrich-whitepages requires -owner-json")
	}

	batch, err := enrich.ParseWhitepagesFile(*ownerJSON)
	if err != nil {
		return err
	}

	graph, err := openGraph(ctx, cfg)
	if err != nil {
		return err
	}
	defer graph.Close(ctx)

	merged, err := enrich.LinkOwners(ctx, graph, batch)
	if err != nil {
		return err
	}
	fmt.Printf("SUCCESS: %d owner accounts linked\n", merged)
	return nil
}

func cmdRescueV5(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("rescue-v5", flag.ExitOnError)
	archiveDir := fs.String("archive-dir", "", "starting path for v5 .tgz rescue files")
	threads := fs.Int("threads", cfg.Load.Threads, "max tasks to run in parallel")
	fs.Parse(args)
	if *archiveDir == "" {
		return fmt.Errorf("rescue-v5 requires -archive-dir")
	}

	graph, err := openGraph(ctx, cfg)
	if err != nil {
		return err
	}
	defer graph.Close(ctx)

	total, err := rescue.RipConcurrentLimited(ctx, graph, *archiveDir, defaultDecoder(), *threads)
	if err != nil {
		return err
	}
	logging.GetDefault().Info("v5 rescue complete", "transactions_loaded", total)
	return nil
}

func cmdMatch(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("match", flag.ExitOnError)
	startDay := fs.String("start-day", "", "start day (exclusive), YYYY-MM-DD")
	endDay := fs.String("end-day", "", "end day (exclusive), YYYY-MM-DD")
	clearCache := fs.Bool("clear-cache", false, "clear the local matcher cache before running")
	saveDir := fs.String("save-dir", ".", "directory to read/write the matcher cache from")
	replayBalances := fs.Bool("replay-balances", true, "run the top-N breadth/depth balance search")
	searchDumps := fs.Bool("search-dumps", false, "match exact-seller accounts (entire ledger history is outflows) against exchange deposits")
	fs.Parse(args)
	if *startDay == "" || *endDay == "" {
		return fmt.Errorf("match requires -start-day and -end-day")
	}
	if !*replayBalances && !*searchDumps {
		return fmt.Errorf("match requires at least one of -replay-balances or -search-dumps")
	}

	start, err := time.Parse("2006-01-02", *startDay)
	if err != nil {
		return fmt.Errorf("parsing -start-day: %w", err)
	}
	end, err := time.Parse("2006-01-02", *endDay)
	if err != nil {
		return fmt.Errorf("parsing -end-day: %w", err)
	}

	if *clearCache {
		if err := matcher.ClearCache(*saveDir); err != nil {
			return err
		}
	}

	m, err := matcher.ReadCacheFromFile(*saveDir)
	if err != nil {
		m = matcher.New()
	}

	graph, err := openGraph(ctx, cfg)
	if err != nil {
		return err
	}
	defer graph.Close(ctx)

	if *replayBalances {
		if err := m.DepthSearchByTopNAccounts(ctx, graph, start, end, cfg.Matcher.TopNStart, *saveDir); err != nil {
			return err
		}
	}

	if *searchDumps {
		userList, err := matcher.GetExchangeUsersOnlyOutflows(ctx, graph)
		if err != nil {
			return fmt.Errorf("fetching exact-seller users: %w", err)
		}
		matcher.SortFunded(userList)

		deposits, err := matcher.GetDateRangeDeposits(ctx, graph, start, end)
		if err != nil {
			logging.GetDefault().Warn("fetching deposits for exact-seller match failed, proceeding with none", "error", err)
			deposits = nil
		}

		m.MatchExactSellers(userList, deposits, cfg.Matcher.Tolerance)
	}

	if err := m.WriteCacheToFile(*saveDir); err != nil {
		return err
	}
	return m.WriteDefiniteToFile(*saveDir)
}

func cmdStatus(store *storage.Storage) error {
	failed, err := store.ListFailedRuns()
	if err != nil {
		return err
	}
	if len(failed) == 0 {
		fmt.Println("no failed archive runs recorded locally")
		return nil
	}
	for _, run := range failed {
		fmt.Printf("%s: failed %d time(s), last at %s: %s\n",
			run.ArchivePath, run.AttemptCount, run.LastAttemptAt.Format(time.RFC3339), run.LastError)
	}
	return nil
}

func printUsage() {
	fmt.Fprintf(os.Stderr, `warehouse - forensic graph-warehouse loader

Usage: warehouse [global flags] <command> [command flags]

Commands:
  ingest-all          scan a directory tree for archive bundles and load all of them
  ingest-one          process and load a single archive directory
  check               verify an archive directory has a readable manifest
  enrich-exchange     load an exchange order export, with RMS/shill enrichment
  enrich-onramp       link on-chain addresses to exchange on-ramp user IDs
  enrich-whitepages   link on-chain addresses to operator-asserted owner aliases
  rescue-v5           load a tree of V5 JSON-rescue .tgz archives
  match               run the offline exchange-account matcher over a date range
  status              list locally recorded failed archive loads

Global flags:
`)
	flag.PrintDefaults()
}

func expandPath(path string) string {
	if len(path) > 0 && path[0] == '~' {
		home, _ := os.UserHomeDir()
		return home + path[1:]
	}
	return path
}
