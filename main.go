// ABOUTME: Entry point for the Stemdeck workstation
// ABOUTME: Parses CLI flags, wires the workstation and runs the TUI
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/stemdeck/stemdeck-go/internal/app"
	"github.com/stemdeck/stemdeck-go/internal/cache"
	"github.com/stemdeck/stemdeck-go/internal/config"
	"github.com/stemdeck/stemdeck-go/internal/ui"
	"github.com/stemdeck/stemdeck-go/internal/version"
	"github.com/stemdeck/stemdeck-go/pkg/audio/output"
	"github.com/stemdeck/stemdeck-go/pkg/stems"
)

func main() {
	cfg := config.Load()

	flag.IntVar(&cfg.SampleRate, "sample-rate", cfg.SampleRate, "Output sample rate in Hz")
	flag.IntVar(&cfg.Channels, "channels", cfg.Channels, "Output channels (1 or 2)")
	flag.IntVar(&cfg.Slots, "slots", cfg.Slots, "Number of track slots (2-4)")
	flag.StringVar(&cfg.Output, "output", cfg.Output, "Audio backend: oto, malgo or headless")
	flag.BoolVar(&cfg.Headless, "headless", cfg.Headless, "Run without a sound device")
	flag.StringVar(&cfg.CacheDir, "cache-dir", cfg.CacheDir, "Cache directory for separation")
	flag.StringVar(&cfg.SplitMethod, "method", cfg.SplitMethod, "Stem separation method: demucs or spleeter")
	flag.IntVar(&cfg.ExportBitDepth, "bit-depth", cfg.ExportBitDepth, "Export bit depth (16 or 24)")
	syncOn := flag.Bool("sync", false, "Start with track sync enabled")
	logFile := flag.String("log-file", "stemdeck.log", "Log file path")
	noTUI := flag.Bool("no-tui", false, "Disable TUI, use streaming logs instead")
	showVersion := flag.Bool("version", false, "Print version and exit")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "%s %s\n\nUsage: %s [flags] [file ...]\n\nFiles are loaded into slots in order.\n\n",
			version.Product, version.Version, os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	if *showVersion {
		fmt.Printf("%s %s\n", version.Product, version.Version)
		return
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(2)
	}

	// Set up logging
	f, err := os.OpenFile(*logFile, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
	if err != nil {
		log.Fatalf("error opening log file: %v", err)
	}
	defer func() { _ = f.Close() }()

	if *noTUI {
		log.SetOutput(io.MultiWriter(os.Stdout, f))
	} else {
		log.SetOutput(f)
	}

	log.Printf("Starting %s %s", version.Product, version.Version)

	c, err := cache.New(cfg.CacheDir)
	if err != nil {
		log.Fatalf("Failed to create cache: %v", err)
	}
	separator, err := stems.New(stems.Config{
		DemucsBin:   cfg.DemucsBin,
		SpleeterBin: cfg.SpleeterBin,
		FFmpegBin:   cfg.FFmpegBin,
		Cache:       c,
	})
	if err != nil {
		log.Fatalf("Failed to create separator: %v", err)
	}

	// Snapshots go to the TUI once it exists
	snapshots := make(chan app.Snapshot, 16)
	ws, err := app.New(app.Config{
		SampleRate:     cfg.SampleRate,
		Channels:       cfg.Channels,
		Slots:          cfg.Slots,
		ExportBitDepth: cfg.ExportBitDepth,
		Splitter:       separator,
		OnChange: func(s app.Snapshot) {
			select {
			case snapshots <- s:
			default:
			}
		},
	})
	if err != nil {
		log.Fatalf("Failed to create workstation: %v", err)
	}

	device, err := output.New(cfg.Output)
	if err != nil {
		log.Fatalf("Failed to create output: %v", err)
	}
	if err := ws.Start(device); err != nil {
		log.Fatalf("Failed to start audio output: %v", err)
	}
	defer func() {
		if err := ws.Close(); err != nil {
			log.Printf("Error closing workstation: %v", err)
		}
	}()

	for i, path := range flag.Args() {
		if err := ws.Import(i+1, path); err != nil {
			log.Printf("Failed to load %s: %v", path, err)
		}
	}
	ws.SetSync(*syncOn)

	if *noTUI {
		runHeadless(ws)
		return
	}

	prog := ui.Run(ws, cfg.Method())
	go func() {
		for s := range snapshots {
			prog.Send(ui.SnapshotMsg(s))
		}
	}()

	if _, err := prog.Run(); err != nil {
		log.Printf("TUI error: %v", err)
	}
	log.Printf("Workstation stopped")
}

// runHeadless plays every loaded track together until a signal arrives
func runHeadless(ws *app.Workstation) {
	if err := ws.SyncPlay(); err != nil {
		log.Printf("Playback error: %v", err)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan
	log.Printf("Shutdown signal received")
}
