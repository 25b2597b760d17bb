// ABOUTME: Offline mixdown tool
// ABOUTME: Loads files into tracks, applies gains and effects, and writes one mixed file
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/stemdeck/stemdeck-go/internal/app"
	"github.com/stemdeck/stemdeck-go/internal/config"
	"github.com/stemdeck/stemdeck-go/internal/version"
	"github.com/stemdeck/stemdeck-go/pkg/effects"
)

var (
	outPath  = flag.String("o", "mix.wav", "Output file")
	bitDepth = flag.Int("bit-depth", 16, "Output bit depth (16 or 24)")
	channels = flag.Int("channels", 2, "Output channels (1 or 2)")
	volumes  = flag.String("volumes", "", "Comma-separated track volumes in [0,1], in file order")
	effectsF = flag.String("effects", "", "Comma-separated effect names (none, reverb, delay, chorus, phaser), in file order")
	paramsF  = flag.String("params", "", "Comma-separated effect parameters per track, name=value joined by ':' (e.g. room_size=0.8:wet_level=0.5,delay_seconds=0.25)")
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "%s mixdown %s\n\nUsage: %s [flags] file ...\n\n",
			version.Product, version.Version, os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	files := flag.Args()
	if len(files) == 0 {
		flag.Usage()
		os.Exit(2)
	}

	gains, err := parseVolumes(*volumes, len(files))
	if err != nil {
		log.Fatalf("Invalid -volumes: %v", err)
	}
	fx, err := parseEffects(*effectsF, *paramsF, len(files))
	if err != nil {
		log.Fatalf("Invalid -params: %v", err)
	}

	cfg := config.Load()
	ws, err := app.New(app.Config{
		SampleRate:     cfg.SampleRate,
		Channels:       *channels,
		Slots:          len(files),
		ExportBitDepth: *bitDepth,
	})
	if err != nil {
		log.Fatalf("Failed to create workstation: %v", err)
	}
	defer ws.Close()

	for i, path := range files {
		slot := i + 1
		if err := ws.Import(slot, path); err != nil {
			log.Fatalf("Failed to load %s: %v", path, err)
		}
		ws.SetVolume(slot, gains[i])
		ws.SetEffect(slot, fx[i])
	}

	if err := ws.Mixdown(*outPath); err != nil {
		log.Fatalf("Export failed: %v", err)
	}
	fmt.Printf("Wrote %s\n", *outPath)
}

// parseVolumes returns one gain per track; missing entries are 1
func parseVolumes(s string, n int) ([]float64, error) {
	gains := make([]float64, n)
	for i := range gains {
		gains[i] = 1
	}
	if s == "" {
		return gains, nil
	}
	for i, field := range strings.Split(s, ",") {
		if i >= n {
			break
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(field), 64)
		if err != nil {
			return nil, err
		}
		gains[i] = v
	}
	return gains, nil
}

// parseEffects returns one effect per track. Parameters not given in
// params keep their defaults and values are clamped to range.
func parseEffects(names, params string, n int) ([]effects.Effect, error) {
	kinds := make([]effects.Kind, n)
	if names != "" {
		for i, name := range strings.Split(names, ",") {
			if i >= n {
				break
			}
			kinds[i] = effects.ParseKind(strings.TrimSpace(name))
		}
	}

	values := make([]map[string]float64, n)
	if params != "" {
		for i, field := range strings.Split(params, ",") {
			if i >= n {
				break
			}
			v, err := parseParams(kinds[i], field)
			if err != nil {
				return nil, fmt.Errorf("track %d: %w", i+1, err)
			}
			values[i] = v
		}
	}

	fx := make([]effects.Effect, n)
	for i := range fx {
		fx[i] = effects.FromParams(kinds[i].String(), values[i])
	}
	return fx, nil
}

// parseParams reads "name=value:name=value" for an effect of kind k
func parseParams(k effects.Kind, field string) (map[string]float64, error) {
	out := make(map[string]float64)
	field = strings.TrimSpace(field)
	if field == "" {
		return out, nil
	}

	known := make(map[string]bool)
	for _, p := range effects.ParamSpecs(k) {
		known[p.Name] = true
	}
	for _, pair := range strings.Split(field, ":") {
		name, raw, ok := strings.Cut(pair, "=")
		name = strings.TrimSpace(name)
		if !ok {
			return nil, fmt.Errorf("expected name=value, got %q", pair)
		}
		if !known[name] {
			return nil, fmt.Errorf("%s has no parameter %q", k, name)
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			return nil, fmt.Errorf("parameter %s: %w", name, err)
		}
		out[name] = v
	}
	return out, nil
}
