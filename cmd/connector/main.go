package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/meiro/showads-connector/internal/config"
	"github.com/meiro/showads-connector/internal/ingest"
	"github.com/meiro/showads-connector/internal/pipeline"
	"github.com/meiro/showads-connector/internal/pkg/logger"
	"github.com/meiro/showads-connector/internal/showads"
)

func main() {
	var (
		configPath string
		inputPath  string
	)
	flag.StringVar(&configPath, "config", "config.yaml", "path to the YAML config file (optional)")
	flag.StringVar(&inputPath, "input", "", "customer CSV to process: local path or s3://bucket/key")
	flag.Parse()

	// The input may also be given as the first positional argument, so
	// `connector data.csv` just works; positional wins over -input.
	if flag.NArg() > 0 {
		inputPath = flag.Arg(0)
	}
	if inputPath == "" {
		fmt.Fprintln(os.Stderr, "Usage: connector [-config config.yaml] [-input] <file.csv | s3://bucket/key>")
		os.Exit(1)
	}

	cfg, err := config.LoadFromEnv(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid config: %v", err)
	}

	logger.SetLevel(logger.ParseLevel(cfg.Logging.Level))
	logger.SetRedactPII(cfg.Logging.ShouldRedactPII())

	log.Println("Starting ShowAds connector...")

	// Cancel the run on SIGINT/SIGTERM so an interrupted pass stops at
	// the next batch boundary instead of mid-request.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-quit
		log.Printf("Received %s, stopping...", sig)
		cancel()
	}()

	src, err := ingest.Open(ctx, inputPath, cfg.Ingest)
	if err != nil {
		log.Fatalf("Failed to open input: %v", err)
	}
	defer src.Close()

	reader, err := ingest.NewReader(src, cfg.Ingest.ChunkSize)
	if err != nil {
		log.Fatalf("Invalid input: %v", err)
	}

	client := showads.NewClient(cfg.ShowAds)
	p := pipeline.New(cfg, reader, client)

	log.Printf("Processing %s (batch size %d, chunk size %d)",
		inputPath, cfg.ShowAds.BatchSize, cfg.Ingest.ChunkSize)

	stats, err := p.Run(ctx)
	if err != nil {
		log.Fatalf("Run aborted: %v", err)
	}

	log.Printf("Done: %d read, %d valid, %d rejected, %d submitted, %d failed in %s",
		stats.TotalRead, stats.TotalValid, stats.TotalRejected,
		stats.TotalSubmitted, stats.TotalFailed,
		stats.Duration.Round(time.Millisecond))
	for _, r := range stats.SampleRejections {
		log.Printf("  rejected: %s", r)
	}
}
