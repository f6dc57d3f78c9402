// Package config loads the application configuration from a KEY=VALUE text
// file and exposes it through a process-wide singleton.
package config

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/smartinertia/flywheel/internal/engine"
)

// Config holds all application configuration values.
type Config struct {
	// MQTT
	MQTTBroker           string
	MQTTClientIDProducer string
	MQTTClientIDConsole  string
	MQTTClientIDWeb      string

	// Topics
	TopicSamples string
	TopicBars    string
	TopicReport  string

	// Serial device
	SerialPort string
	SerialBaud int

	// Web server
	WebServerPort         int
	DisplayUpdateInterval int // milliseconds between live bar refreshes

	// Persistence
	DBPath     string
	ArchiveDir string

	// Engine tunables, see engine.Config.
	SamplingFreq   float64
	CutoffFreq     float64
	MinFreq        float64
	HystLow        float64
	HystHigh       float64
	FilterWindow   int
	MinWindowTime  float64
	StartRuns      int
	CountedRuns    int
	DynamicGravity bool
}

// Package-level singleton, initialized once via InitGlobal and read through
// Get. The RWMutex keeps concurrent readers cheap.
var (
	globalConfig *Config
	globalErr    error
	configOnce   sync.Once
	configMu     sync.RWMutex
)

// Default returns the configuration used when a key is absent from the file.
func Default() *Config {
	ec := engine.DefaultConfig()
	return &Config{
		MQTTBroker:           "tcp://localhost:1883",
		MQTTClientIDProducer: "flywheel-producer",
		MQTTClientIDConsole:  "flywheel-console",
		MQTTClientIDWeb:      "flywheel-web",

		TopicSamples: "flywheel/samples",
		TopicBars:    "flywheel/bars",
		TopicReport:  "flywheel/report",

		SerialPort: "/dev/ttyUSB0",
		SerialBaud: 115200,

		WebServerPort:         8080,
		DisplayUpdateInterval: 16, // 60 FPS, the cadence of the original display

		DBPath:     "flywheel.db",
		ArchiveDir: "runs",

		SamplingFreq:   ec.SamplingFreq,
		CutoffFreq:     ec.CutoffFreq,
		MinFreq:        ec.MinFreq,
		HystLow:        ec.HystLow,
		HystHigh:       ec.HystHigh,
		FilterWindow:   ec.FilterWindow,
		MinWindowTime:  ec.MinWindowTime,
		StartRuns:      ec.StartRuns,
		CountedRuns:    ec.CountedRuns,
		DynamicGravity: ec.DynamicGravity,
	}
}

// Load reads the configuration file over the defaults and returns the result.
func Load(configPath string) (*Config, error) {
	file, err := os.Open(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer file.Close()

	cfg := Default()
	scanner := bufio.NewScanner(file)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		// Parse KEY=VALUE
		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("invalid config line %d: %q", lineNum, line)
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		if err := cfg.setValue(key, value); err != nil {
			return nil, fmt.Errorf("config line %d: %w", lineNum, err)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// setValue sets a config value based on the key.
func (c *Config) setValue(key, value string) error {
	switch key {
	// MQTT
	case "MQTT_BROKER":
		c.MQTTBroker = value
	case "MQTT_CLIENT_ID_PRODUCER":
		c.MQTTClientIDProducer = value
	case "MQTT_CLIENT_ID_CONSOLE":
		c.MQTTClientIDConsole = value
	case "MQTT_CLIENT_ID_WEB":
		c.MQTTClientIDWeb = value

	// Topics
	case "TOPIC_SAMPLES":
		c.TopicSamples = value
	case "TOPIC_BARS":
		c.TopicBars = value
	case "TOPIC_REPORT":
		c.TopicReport = value

	// Serial
	case "SERIAL_PORT":
		c.SerialPort = value
	case "SERIAL_BAUD":
		baud, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid SERIAL_BAUD %q: %w", value, err)
		}
		c.SerialBaud = baud

	// Web server
	case "WEB_SERVER_PORT":
		port, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid WEB_SERVER_PORT %q: %w", value, err)
		}
		c.WebServerPort = port
	case "DISPLAY_UPDATE_INTERVAL":
		interval, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid DISPLAY_UPDATE_INTERVAL %q: %w", value, err)
		}
		c.DisplayUpdateInterval = interval

	// Persistence
	case "DB_PATH":
		c.DBPath = value
	case "ARCHIVE_DIR":
		c.ArchiveDir = value

	// Engine
	case "SAMPLING_FREQ":
		return setFloat(&c.SamplingFreq, key, value)
	case "CUTOFF_FREQ":
		return setFloat(&c.CutoffFreq, key, value)
	case "MIN_FREQ":
		return setFloat(&c.MinFreq, key, value)
	case "HYST_LOW":
		return setFloat(&c.HystLow, key, value)
	case "HYST_HIGH":
		return setFloat(&c.HystHigh, key, value)
	case "FILTER_WINDOW":
		window, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid FILTER_WINDOW %q: %w", value, err)
		}
		c.FilterWindow = window
	case "MIN_WINDOW_TIME":
		return setFloat(&c.MinWindowTime, key, value)
	case "START_RUNS":
		runs, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid START_RUNS %q: %w", value, err)
		}
		c.StartRuns = runs
	case "COUNTED_RUNS":
		runs, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid COUNTED_RUNS %q: %w", value, err)
		}
		c.CountedRuns = runs
	case "DYNAMIC_GRAVITY":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid DYNAMIC_GRAVITY %q: %w", value, err)
		}
		c.DynamicGravity = b

	default:
		return fmt.Errorf("unknown config key: %q", key)
	}

	return nil
}

func setFloat(dst *float64, key, value string) error {
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	*dst = f
	return nil
}

// validate checks that the configuration is internally consistent.
func (c *Config) validate() error {
	if c.MQTTBroker == "" {
		return fmt.Errorf("MQTT_BROKER is required")
	}
	if c.SerialBaud <= 0 {
		return fmt.Errorf("SERIAL_BAUD must be positive, got %d", c.SerialBaud)
	}
	if c.SamplingFreq <= 0 {
		return fmt.Errorf("SAMPLING_FREQ must be positive, got %g", c.SamplingFreq)
	}
	if c.CutoffFreq <= 0 || c.CutoffFreq >= c.SamplingFreq/2 {
		return fmt.Errorf("CUTOFF_FREQ must be in (0, SAMPLING_FREQ/2), got %g", c.CutoffFreq)
	}
	if c.HystLow >= c.HystHigh {
		return fmt.Errorf("HYST_LOW (%g) must be below HYST_HIGH (%g)", c.HystLow, c.HystHigh)
	}
	if c.FilterWindow < 2 {
		return fmt.Errorf("FILTER_WINDOW must be at least 2, got %d", c.FilterWindow)
	}
	if c.StartRuns < 0 {
		return fmt.Errorf("START_RUNS must not be negative, got %d", c.StartRuns)
	}
	if c.CountedRuns < 1 {
		return fmt.Errorf("COUNTED_RUNS must be at least 1, got %d", c.CountedRuns)
	}
	return nil
}

// Engine converts the file-level tunables into the engine's configuration.
func (c *Config) Engine() engine.Config {
	return engine.Config{
		SamplingFreq:   c.SamplingFreq,
		CutoffFreq:     c.CutoffFreq,
		MinFreq:        c.MinFreq,
		HystLow:        c.HystLow,
		HystHigh:       c.HystHigh,
		FilterWindow:   c.FilterWindow,
		MinWindowTime:  c.MinWindowTime,
		StartRuns:      c.StartRuns,
		CountedRuns:    c.CountedRuns,
		DynamicGravity: c.DynamicGravity,
	}
}

// InitGlobal initializes the global configuration from file. The load runs at
// most once even when called repeatedly from shared startup paths; if it
// failed, every subsequent call keeps returning that error so a startup
// failure can never be mistaken for an initialized config.
func InitGlobal(configPath string) error {
	configOnce.Do(func() {
		configMu.Lock()
		defer configMu.Unlock()
		globalConfig, globalErr = Load(configPath)
	})
	return globalErr
}

// Get returns the global configuration instance. InitGlobal must have been
// called first, or this returns nil.
func Get() *Config {
	configMu.RLock()
	defer configMu.RUnlock()
	return globalConfig
}
