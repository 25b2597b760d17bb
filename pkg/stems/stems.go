// ABOUTME: Stem separation by invoking demucs or spleeter as a subprocess
// ABOUTME: Takes a source path and a method and returns four stem file paths
package stems

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/stemdeck/stemdeck-go/internal/cache"
)

// Method selects the separation model
type Method int

const (
	MethodDemucs Method = iota
	MethodSpleeter
)

func (m Method) String() string {
	switch m {
	case MethodDemucs:
		return "demucs"
	case MethodSpleeter:
		return "spleeter"
	default:
		return fmt.Sprintf("Method(%d)", int(m))
	}
}

// ParseMethod parses a method name, case-insensitively
func ParseMethod(name string) (Method, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "demucs":
		return MethodDemucs, nil
	case "spleeter":
		return MethodSpleeter, nil
	default:
		return 0, fmt.Errorf("unknown separation method %q (want demucs or spleeter)", name)
	}
}

// Names are the stems every method produces, in slot order
var Names = [4]string{"vocals", "drums", "bass", "other"}

// SeparationError reports a failed separation. No stems are returned with it.
type SeparationError struct {
	Method Method
	Path   string
	Err    error

	// Stderr holds the tail of the tool's error output, if it ran
	Stderr string
}

func (e *SeparationError) Error() string {
	msg := fmt.Sprintf("%s separation of %s failed: %v", e.Method, e.Path, e.Err)
	if e.Stderr != "" {
		msg += "\n" + e.Stderr
	}
	return msg
}

func (e *SeparationError) Unwrap() error {
	return e.Err
}

// Config holds separator configuration
type Config struct {
	DemucsBin   string
	SpleeterBin string
	FFmpegBin   string

	// Cache holds converted sources and separation output
	Cache *cache.Cache
}

// Separator runs the external separation tools
type Separator struct {
	config Config
}

// New creates a separator. Empty binary names fall back to the tool name on PATH.
func New(config Config) (*Separator, error) {
	if config.DemucsBin == "" {
		config.DemucsBin = "demucs"
	}
	if config.SpleeterBin == "" {
		config.SpleeterBin = "spleeter"
	}
	if config.FFmpegBin == "" {
		config.FFmpegBin = "ffmpeg"
	}
	if config.Cache == nil {
		c, err := cache.New("")
		if err != nil {
			return nil, err
		}
		config.Cache = c
	}

	return &Separator{config: config}, nil
}

// Separate splits path into stems and returns their paths in Names order
func (s *Separator) Separate(ctx context.Context, path string, method Method) ([]string, error) {
	return s.Run(ctx, path, method, nil)
}

// Run is Separate with progress messages delivered to progress, which may be nil
func (s *Separator) Run(ctx context.Context, path string, method Method, progress func(string)) ([]string, error) {
	report := func(msg string) {
		log.Printf("Stems: %s", msg)
		if progress != nil {
			progress(msg)
		}
	}

	fail := func(err error, stderr string) ([]string, error) {
		return nil, &SeparationError{Method: method, Path: path, Err: err, Stderr: stderr}
	}

	if _, err := os.Stat(path); err != nil {
		return fail(err, "")
	}

	report("preparing " + filepath.Base(path))
	input, err := s.prepare(ctx, path)
	if err != nil {
		return fail(err, "")
	}

	var (
		bin    string
		outDir string
		args   []string
	)
	switch method {
	case MethodDemucs:
		bin = s.config.DemucsBin
		if outDir, err = s.config.Cache.Subdir("Demucs_Output"); err != nil {
			return fail(err, "")
		}
		args = []string{"--out", outDir, input}
	case MethodSpleeter:
		bin = s.config.SpleeterBin
		if outDir, err = s.config.Cache.Subdir("Spleeter_Output"); err != nil {
			return fail(err, "")
		}
		args = []string{"separate",
			"-p", "spleeter:4stems",
			"-o", outDir,
			"-c", "wav",
			"-f", "{filename}/{instrument}.{codec}",
			input}
	default:
		return fail(fmt.Errorf("unsupported method"), "")
	}

	report(fmt.Sprintf("running %s", method))
	if stderr, err := s.run(ctx, bin, args...); err != nil {
		return fail(err, stderr)
	}

	base := strings.TrimSuffix(filepath.Base(input), filepath.Ext(input))
	stems, err := collect(method, outDir, base)
	if err != nil {
		return fail(err, "")
	}

	report(fmt.Sprintf("separated %s into %d stems", filepath.Base(path), len(stems)))
	return stems, nil
}

// run executes bin and returns the tail of its stderr on failure
func (s *Separator) run(ctx context.Context, bin string, args ...string) (string, error) {
	resolved, err := exec.LookPath(bin)
	if err != nil {
		return "", fmt.Errorf("%s not found in PATH: %w", bin, err)
	}

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, resolved, args...)
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return tail(stderr.String(), 20), fmt.Errorf("%s: %w", filepath.Base(bin), err)
	}
	return "", nil
}

// collect locates the four stem files the tool wrote for base
func collect(method Method, outDir, base string) ([]string, error) {
	dirs := []string{filepath.Join(outDir, base)}
	if method == MethodDemucs {
		// Demucs nests output under the model name
		dirs = append([]string{filepath.Join(outDir, "htdemucs", base)}, dirs...)
		if matches, _ := filepath.Glob(filepath.Join(outDir, "*", base)); len(matches) > 0 {
			dirs = append(dirs, matches...)
		}
	}

	for _, dir := range dirs {
		if stems, ok := stemsIn(dir); ok {
			return stems, nil
		}
	}
	return nil, fmt.Errorf("expected stems not found under %s", filepath.Join(outDir, base))
}

func stemsIn(dir string) ([]string, bool) {
	stems := make([]string, 0, len(Names))
	for _, name := range Names {
		path := filepath.Join(dir, name+".wav")
		if _, err := os.Stat(path); err != nil {
			return nil, false
		}
		stems = append(stems, path)
	}
	return stems, true
}

func tail(s string, lines int) string {
	parts := strings.Split(strings.TrimRight(s, "\n"), "\n")
	if len(parts) > lines {
		parts = parts[len(parts)-lines:]
	}
	return strings.Join(parts, "\n")
}
