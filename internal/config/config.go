// ABOUTME: Runtime configuration loaded from environment variables
// ABOUTME: Entry points override individual fields from command line flags
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/stemdeck/stemdeck-go/pkg/stems"
)

// Slot limits for the track grid
const (
	MinSlots = 2
	MaxSlots = 4
)

// Config holds all runtime configuration
type Config struct {
	// Output format
	SampleRate int
	Channels   int

	// Track grid
	Slots int

	// Stem separation
	CacheDir    string
	SplitMethod string
	DemucsBin   string
	SpleeterBin string
	FFmpegBin   string

	// Export
	ExportBitDepth int

	// Device: oto, malgo or headless
	Output   string
	Headless bool
}

// Load reads configuration from environment variables with defaults
func Load() Config {
	return Config{
		SampleRate: envInt("STEMDECK_SAMPLE_RATE", 44100),
		Channels:   envInt("STEMDECK_CHANNELS", 2),
		Slots:      envInt("STEMDECK_SLOTS", 4),

		CacheDir:    envStr("STEMDECK_CACHE_DIR", ""),
		SplitMethod: envStr("STEMDECK_SPLIT_METHOD", "demucs"),
		DemucsBin:   envStr("STEMDECK_DEMUCS_BIN", "demucs"),
		SpleeterBin: envStr("STEMDECK_SPLEETER_BIN", "spleeter"),
		FFmpegBin:   envStr("STEMDECK_FFMPEG_BIN", "ffmpeg"),

		ExportBitDepth: envInt("STEMDECK_EXPORT_BIT_DEPTH", 16),

		Output:   envStr("STEMDECK_OUTPUT", "oto"),
		Headless: envBool("STEMDECK_HEADLESS", false),
	}
}

// Validate clamps the slot count into range and rejects settings the
// workstation cannot run with
func (c *Config) Validate() error {
	if c.Slots < MinSlots {
		c.Slots = MinSlots
	}
	if c.Slots > MaxSlots {
		c.Slots = MaxSlots
	}

	if c.SampleRate <= 0 {
		return fmt.Errorf("invalid sample rate %d", c.SampleRate)
	}
	if c.Channels != 1 && c.Channels != 2 {
		return fmt.Errorf("unsupported channel count %d (want 1 or 2)", c.Channels)
	}
	if c.ExportBitDepth != 16 && c.ExportBitDepth != 24 {
		return fmt.Errorf("unsupported export bit depth %d (want 16 or 24)", c.ExportBitDepth)
	}
	if _, err := stems.ParseMethod(c.SplitMethod); err != nil {
		return err
	}

	c.Output = strings.ToLower(c.Output)
	if c.Headless {
		c.Output = "headless"
	}
	return nil
}

// Method returns the parsed separation method
func (c Config) Method() stems.Method {
	m, _ := stems.ParseMethod(c.SplitMethod)
	return m
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}
