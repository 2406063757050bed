package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"pdf-rag/internal/api"
	"pdf-rag/internal/backup"
	"pdf-rag/internal/config"
	"pdf-rag/internal/embedding"
	"pdf-rag/internal/helper"
	"pdf-rag/internal/ingest"
	"pdf-rag/internal/llmservice"
	"pdf-rag/internal/rag"
	"pdf-rag/internal/session"
	"pdf-rag/internal/vectorstore"
)

const configFilePath = "./config.yaml"

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}).With().Caller().Logger()

	configPath := flag.String("config", configFilePath, "Path to the optional config file")
	serve := flag.Bool("serve", false, "Start the HTTP server")
	ingestPath := flag.String("ingest", "", "Path to a document file to ingest")
	scan := flag.Bool("scan", false, "Scan the PDF storage directory and ingest new documents")
	query := flag.String("query", "", "Question to be answered")
	reset := flag.Bool("reset", false, "Reset the vector index")
	exportPath := flag.String("export", "", "Export an index snapshot to a file")
	importPath := flag.String("import", "", "Import an index snapshot from a file")
	backupTarget := flag.String("backup", "", "Back up a directory to object storage: vector_store, pdfs or full")
	restorePrefix := flag.String("restore", "", "Backup prefix to restore, e.g. backups/vector_store/20240101_120000")
	restoreDest := flag.String("dest", "", "Destination directory for -restore")
	listBackups := flag.Bool("list-backups", false, "List backups in object storage")
	cleanup := flag.Bool("cleanup", false, "Delete backups older than the retention period")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Error loading config")
	}
	setLogLevel(cfg.LogLevel)

	ctx := context.Background()

	switch {
	case *serve:
		runServer(ctx, cfg)
	case *ingestPath != "":
		runIngest(ctx, cfg, *ingestPath)
	case *scan:
		runScan(ctx, cfg)
	case *query != "":
		runQuery(ctx, cfg, *query)
	case *reset:
		runReset(cfg)
	case *exportPath != "":
		runSnapshot(cfg, *exportPath, false)
	case *importPath != "":
		runSnapshot(cfg, *importPath, true)
	case *backupTarget != "":
		runBackup(ctx, cfg, *backupTarget)
	case *restorePrefix != "":
		runRestore(ctx, cfg, *restorePrefix, *restoreDest)
	case *listBackups:
		runListBackups(ctx, cfg)
	case *cleanup:
		runCleanup(ctx, cfg)
	default:
		flag.Usage()
	}
}

func setLogLevel(level string) {
	parsed, err := zerolog.ParseLevel(level)
	if err != nil {
		parsed = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(parsed)
}

func openCore(cfg *config.Config) (*vectorstore.Store, *ingest.Ingestor, *rag.Answerer) {
	embedder, err := embedding.NewEmbedder(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Error initializing embedder")
	}

	store, err := vectorstore.Open(cfg.VectorStorePath, embedding.ProviderID(&cfg.Embedder),
		vectorstore.Options{Strict: cfg.StrictIndexLoad})
	if err != nil {
		log.Fatal().Err(err).Msg("Error opening vector store")
	}

	model, err := llmservice.NewClient(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Error initializing llm client")
	}

	ingestor := ingest.New(embedder, store, cfg.ChunkSize, cfg.ChunkOverlap)
	answerer := rag.New(embedder, store, model, cfg)
	return store, ingestor, answerer
}

func runServer(ctx context.Context, cfg *config.Config) {
	store, ingestor, answerer := openCore(cfg)
	sess := session.New()

	// documents already staged on disk are picked up at startup
	if _, err := os.Stat(cfg.PDFStorageDir); err == nil {
		report, err := ingestor.Dir(ctx, sess, cfg.PDFStorageDir)
		if err != nil {
			log.Error().Err(err).Msg("Error scanning PDF directory")
		} else {
			log.Info().Int("processed", report.Processed).Int("chunks", report.Chunks).Msg("Startup scan finished")
		}
	}

	server := api.NewServer(cfg, sess, ingestor, answerer, store)
	if err := server.ListenAndServe(); err != nil {
		log.Fatal().Err(err).Msg("HTTP server stopped")
	}
}

func runIngest(ctx context.Context, cfg *config.Config, path string) {
	_, ingestor, _ := openCore(cfg)

	count, err := ingestor.File(ctx, path)
	if err != nil {
		log.Fatal().Err(err).Msg("Error ingesting document")
	}
	fmt.Printf("Ingested %s: %d chunks\n", path, count)
}

func runScan(ctx context.Context, cfg *config.Config) {
	_, ingestor, _ := openCore(cfg)

	report, err := ingestor.Dir(ctx, session.New(), cfg.PDFStorageDir)
	if err != nil {
		log.Fatal().Err(err).Msg("Error scanning PDF directory")
	}
	helper.PrettyPrint(report)
}

func runQuery(ctx context.Context, cfg *config.Config, query string) {
	_, _, answerer := openCore(cfg)

	answer, err := answerer.Answer(ctx, query)
	if err != nil {
		log.Fatal().Err(err).Msg("Error querying")
	}

	fmt.Printf("%s\n\n", answer.Text)
	for i, src := range answer.Sources {
		fmt.Printf("Source %d: %s (page %s)\n", i+1, src.Filename, src.Page)
	}
}

func runReset(cfg *config.Config) {
	store, _, _ := openCore(cfg)
	if err := store.Reset(); err != nil {
		log.Fatal().Err(err).Msg("Error resetting vector store")
	}
	fmt.Println("Vector index reset")
}

func runSnapshot(cfg *config.Config, path string, restore bool) {
	store, _, _ := openCore(cfg)
	key := os.Getenv("SNAPSHOT_ENCRYPTION_KEY")

	if restore {
		if err := store.Import(path, key); err != nil {
			log.Fatal().Err(err).Msg("Error importing snapshot")
		}
		fmt.Printf("Imported snapshot from %s (%d chunks)\n", path, store.Count())
		return
	}
	if err := store.Export(path, key); err != nil {
		log.Fatal().Err(err).Msg("Error exporting snapshot")
	}
	fmt.Printf("Exported snapshot to %s\n", path)
}

func runBackup(ctx context.Context, cfg *config.Config, target string) {
	manager, err := backup.NewManager(&cfg.Backup)
	if err != nil {
		log.Fatal().Err(err).Msg("Error initializing backup manager")
	}

	targets := map[string]string{
		"vector_store": cfg.VectorStorePath,
		"pdfs":         cfg.PDFStorageDir,
	}
	if target != "full" {
		dir, ok := targets[target]
		if !ok {
			log.Fatal().Str("target", target).Msg("Unknown backup target")
		}
		targets = map[string]string{target: dir}
	}

	for name, dir := range targets {
		prefix, err := manager.Push(ctx, dir, name, cfg.Backup.RetentionDays)
		if err != nil {
			log.Error().Err(err).Str("target", name).Msg("Backup failed")
			continue
		}
		fmt.Printf("Backed up %s to %s\n", name, prefix)
	}
}

func runRestore(ctx context.Context, cfg *config.Config, prefix, dest string) {
	if dest == "" {
		log.Fatal().Msg("Please provide a destination directory with -dest")
	}
	manager, err := backup.NewManager(&cfg.Backup)
	if err != nil {
		log.Fatal().Err(err).Msg("Error initializing backup manager")
	}
	if err := manager.Pull(ctx, prefix, dest); err != nil {
		log.Fatal().Err(err).Msg("Restore failed")
	}
	fmt.Printf("Restored %s to %s\n", prefix, dest)
}

func runListBackups(ctx context.Context, cfg *config.Config) {
	manager, err := backup.NewManager(&cfg.Backup)
	if err != nil {
		log.Fatal().Err(err).Msg("Error initializing backup manager")
	}
	infos, err := manager.List(ctx, "")
	if err != nil {
		log.Fatal().Err(err).Msg("Error listing backups")
	}
	helper.PrettyPrint(infos)
}

func runCleanup(ctx context.Context, cfg *config.Config) {
	manager, err := backup.NewManager(&cfg.Backup)
	if err != nil {
		log.Fatal().Err(err).Msg("Error initializing backup manager")
	}
	for _, name := range []string{"vector_store", "pdfs"} {
		deleted, err := manager.Cleanup(ctx, name, cfg.Backup.RetentionDays)
		if err != nil {
			log.Error().Err(err).Str("target", name).Msg("Cleanup failed")
			continue
		}
		fmt.Printf("Deleted %d expired %s backup(s)\n", deleted, name)
	}
}
