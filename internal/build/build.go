// Package build carries the provenance baked into the binary at link time
// and the host identity reported alongside it in ops records.
package build

// Overridden through -ldflags at release build time.
var (
	Version = "dev"
	Date    = "unknown"
	Info    = ""
)

// Binary is the provenance triple of the monitor binary.
type Binary struct {
	Version string
	Date    string
	Info    string
}

// Current returns the provenance of the running binary.
func Current() Binary {
	return Binary{Version: Version, Date: Date, Info: Info}
}

// System identifies the host operating system.
type System struct {
	Name    string
	Version string
	Build   string
}
