package observability

import (
	"fmt"
	"strings"

	"github.com/pkg/profile"
)

// Config captures opt-in profiling that wraps the process lifetime.
type Config struct {
	// Profile is one of cpu, mem, trace. Empty or off disables profiling.
	Profile string
	Path    string
}

// Enabled reports whether a profile mode is selected.
func (c Config) Enabled() bool {
	mode := strings.ToLower(strings.TrimSpace(c.Profile))
	return mode != "" && mode != "off"
}

// Start begins the configured profile and returns the function that flushes
// it. The returned stop is always safe to call.
func Start(cfg Config) (func(), error) {
	if !cfg.Enabled() {
		return func() {}, nil
	}
	var mode func(*profile.Profile)
	switch strings.ToLower(strings.TrimSpace(cfg.Profile)) {
	case "cpu":
		mode = profile.CPUProfile
	case "mem":
		mode = profile.MemProfile
	case "trace":
		mode = profile.TraceProfile
	default:
		return func() {}, fmt.Errorf("unknown profile mode %q", cfg.Profile)
	}
	path := cfg.Path
	if path == "" {
		path = "."
	}
	p := profile.Start(mode, profile.ProfilePath(path), profile.NoShutdownHook, profile.Quiet)
	return p.Stop, nil
}
