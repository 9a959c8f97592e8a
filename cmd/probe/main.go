// Command probe checks candidate source URLs for status, latency and
// anti-bot markers, and writes the findings to a spreadsheet.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"

	"regscrape/internal/config"
	"regscrape/internal/crawler"
	"regscrape/internal/exporter"
	"regscrape/internal/logger"
	"regscrape/internal/probe"
)

func main() {
	os.Exit(run())
}

func run() int {
	urlsFile := flag.String("urls", "", "File with one URL per line (default: the built-in candidate list)")
	output := flag.String("output", "url_check_results.xlsx", "Output spreadsheet")
	workers := flag.Int("workers", 4, "Concurrent checks")
	timeout := flag.Int("timeout", 10, "Per-request timeout in seconds")
	cloudflare := flag.Bool("cloudflare", false, "Use the Cloudflare bypass transport")
	level := flag.String("log-level", "info", "Log level")

	flag.Parse()

	log := logger.NewLogger(*level)

	urls := probe.DefaultURLs

	if *urlsFile != "" {
		f, err := os.Open(*urlsFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error opening url list: %v\n", err)
			return 1
		}

		urls, err = probe.ReadURLs(f)
		f.Close()

		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return 1
		}
	}

	if len(urls) == 0 {
		fmt.Fprintln(os.Stderr, "Error: no URLs to check")
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	policy := config.RetryPolicy{MaxAttempts: 1, TimeoutSec: *timeout}

	var opts []crawler.FetcherOption
	if *cloudflare {
		opts = append(opts, crawler.WithCloudflareBypass())
	}

	prober := probe.New(crawler.NewHTTPFetcher(policy, log, opts...), *workers, log)

	log.Info(fmt.Sprintf("🔎 Checking %d URLs", len(urls)))

	results, err := prober.CheckAll(ctx, urls)
	if err != nil {
		log.Warn("probe stopped early, writing partial results", "error", err)
	}

	cfg := config.Default()
	if err := exporter.New(cfg, log).ExportTo(probe.Dataset(results), *output, "probe", false); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing results: %v\n", err)
		return 1
	}

	fmt.Printf("\nResults saved to %s\n", *output)

	return 0
}
