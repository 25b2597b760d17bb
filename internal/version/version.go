// ABOUTME: Product and version constants
// ABOUTME: Shown in the TUI header and CLI usage output
package version

// Version is overridden at build time with -ldflags "-X .../internal/version.Version=..."
var Version = "0.1.0"

const (
	Product      = "Stemdeck"
	Manufacturer = "Stemdeck"
)
