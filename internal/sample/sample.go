// Package sample defines the raw measurement unit exchanged between the
// acquisition producers and the engine.
package sample

import (
	"fmt"
	"strconv"
	"strings"
)

// Sample is one timestamped rotational-frequency reading from the flywheel.
type Sample struct {
	T float64 `json:"t"` // seconds, device clock
	F float64 `json:"f"` // Hz
}

// Source is anything that can deliver samples over time: the serial device, a
// mock generator, a replay file.
type Source interface {
	Next() (Sample, error)
}

// ParseLine parses the device's "<t>,<f>" line format. Producers drop lines
// that fail to parse; malformed input never reaches the engine.
func ParseLine(line string) (Sample, error) {
	ts, fs, ok := strings.Cut(line, ",")
	if !ok {
		return Sample{}, fmt.Errorf("sample line %q: missing separator", line)
	}
	t, err := strconv.ParseFloat(strings.TrimSpace(ts), 64)
	if err != nil {
		return Sample{}, fmt.Errorf("sample timestamp %q: %w", ts, err)
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(fs), 64)
	if err != nil {
		return Sample{}, fmt.Errorf("sample frequency %q: %w", fs, err)
	}
	return Sample{T: t, F: f}, nil
}
