// ABOUTME: Stem separation tool
// ABOUTME: Splits a file into vocals, drums, bass and other and prints the stem paths
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/stemdeck/stemdeck-go/internal/cache"
	"github.com/stemdeck/stemdeck-go/internal/config"
	"github.com/stemdeck/stemdeck-go/internal/version"
	"github.com/stemdeck/stemdeck-go/pkg/stems"
)

func main() {
	cfg := config.Load()

	flag.StringVar(&cfg.SplitMethod, "method", cfg.SplitMethod, "Separation method: demucs or spleeter")
	flag.StringVar(&cfg.CacheDir, "cache-dir", cfg.CacheDir, "Cache directory")
	flag.StringVar(&cfg.DemucsBin, "demucs", cfg.DemucsBin, "demucs executable")
	flag.StringVar(&cfg.SpleeterBin, "spleeter", cfg.SpleeterBin, "spleeter executable")
	flag.StringVar(&cfg.FFmpegBin, "ffmpeg", cfg.FFmpegBin, "ffmpeg executable")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "%s split %s\n\nUsage: %s [flags] file\n\n",
			version.Product, version.Version, os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}
	method, err := stems.ParseMethod(cfg.SplitMethod)
	if err != nil {
		log.Fatalf("%v", err)
	}

	c, err := cache.New(cfg.CacheDir)
	if err != nil {
		log.Fatalf("Failed to create cache: %v", err)
	}
	sep, err := stems.New(stems.Config{
		DemucsBin:   cfg.DemucsBin,
		SpleeterBin: cfg.SpleeterBin,
		FFmpegBin:   cfg.FFmpegBin,
		Cache:       c,
	})
	if err != nil {
		log.Fatalf("Failed to create separator: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	paths, err := sep.Separate(ctx, flag.Arg(0), method)
	if err != nil {
		log.Fatalf("%v", err)
	}
	for i, p := range paths {
		fmt.Printf("%-7s %s\n", stems.Names[i], p)
	}
}
