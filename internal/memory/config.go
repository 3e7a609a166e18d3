// Package memory sets the Go soft memory limit from the container memory
// limit.
package memory

import (
	"fmt"
	"os"
	"runtime/debug"
	"strconv"

	"portfolio-site/internal/logging"
)

// DefaultRatio is the share of the container limit given to the Go heap.
const DefaultRatio = 0.75

// Limit describes the memory limit derived from the environment.
type Limit struct {
	// Source is "GOMEMLIMIT", "MEMORY_LIMIT" or "none".
	Source         string
	ContainerLimit int64
	GoMemLimit     int64
	Ratio          float64
}

// FromEnv computes the limit without applying it. GOMEMLIMIT, when set,
// wins and is left to the runtime.
func FromEnv(getenv func(string) string) (Limit, error) {
	if getenv("GOMEMLIMIT") != "" {
		return Limit{Source: "GOMEMLIMIT"}, nil
	}

	raw := getenv("MEMORY_LIMIT")
	if raw == "" {
		return Limit{Source: "none"}, nil
	}
	container, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || container <= 0 {
		return Limit{Source: "none"}, fmt.Errorf("invalid MEMORY_LIMIT %q", raw)
	}

	ratio := DefaultRatio
	if s := getenv("MEMORY_RATIO"); s != "" {
		r, err := strconv.ParseFloat(s, 64)
		if err != nil || r <= 0 || r > 1 {
			return Limit{Source: "none"}, fmt.Errorf("MEMORY_RATIO %q must be in (0, 1]", s)
		}
		ratio = r
	}

	return Limit{
		Source:         "MEMORY_LIMIT",
		ContainerLimit: container,
		GoMemLimit:     int64(float64(container) * ratio),
		Ratio:          ratio,
	}, nil
}

// ConfigureFromEnv applies the limit from the process environment. Call it
// early in main, before large allocations.
func ConfigureFromEnv() Limit {
	limit, err := FromEnv(os.Getenv)
	if err != nil {
		logging.Warn("Memory limit not configured: %v", err)
		return limit
	}

	switch limit.Source {
	case "GOMEMLIMIT":
		logging.Info("GOMEMLIMIT set via environment: %s", os.Getenv("GOMEMLIMIT"))
	case "MEMORY_LIMIT":
		debug.SetMemoryLimit(limit.GoMemLimit)
		logging.Info("Configured GOMEMLIMIT: %s (%.0f%% of %s container limit)",
			FormatBytes(limit.GoMemLimit), limit.Ratio*100, FormatBytes(limit.ContainerLimit))
	default:
		logging.Debug("MEMORY_LIMIT not set, GOMEMLIMIT left at the runtime default")
	}
	return limit
}

// FormatBytes renders b with a binary unit.
func FormatBytes(b int64) string {
	const unit = 1024
	if b < unit {
		return strconv.FormatInt(b, 10) + " B"
	}
	div, exp := int64(unit), 0
	for n := b / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return strconv.FormatFloat(float64(b)/float64(div), 'f', 1, 64) + " " + string("KMGTPE"[exp]) + "iB"
}
