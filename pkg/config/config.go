package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// NodeSeed is a statically configured page server the controller should
// know about at startup, before the node registry has probed anything.
type NodeSeed struct {
	ID       uint64 `yaml:"id"`
	Address  string `yaml:"address"`
	Capacity int    `yaml:"capacity"`
}

// Config is the controller process's service configuration.
type Config struct {
	// DataDir is where the embedded persistence store keeps its database
	// file.
	DataDir string `yaml:"dataDir"`

	// ListenAddr is the address the metrics/status HTTP server binds to.
	ListenAddr string `yaml:"listenAddr"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"logLevel"`

	// LogJSON selects JSON output over console output.
	LogJSON bool `yaml:"logJSON"`

	// ReconcileTimeout bounds how long a waiter blocks on the done-seq
	// counter before giving up (the error-seq race is always unbounded).
	ReconcileTimeout time.Duration `yaml:"reconcileTimeout"`

	// TickInterval is how often the controller's periodic sweep calls
	// MaybeReconcile on every shard to catch missed drift.
	TickInterval time.Duration `yaml:"tickInterval"`

	// NodeProbeInterval is how often the node registry probes each
	// registered node's status endpoint.
	NodeProbeInterval time.Duration `yaml:"nodeProbeInterval"`

	// Nodes seeds the node registry and scheduler capacity table at
	// startup. Nodes discovered later through other means can still be
	// added to the registry at runtime; this list only covers the
	// static fleet known when the process starts.
	Nodes []NodeSeed `yaml:"nodes"`
}

// Default returns the configuration used when no file is supplied.
func Default() Config {
	return Config{
		DataDir:           "./data",
		ListenAddr:        ":9100",
		LogLevel:          "info",
		LogJSON:           true,
		ReconcileTimeout:  30 * time.Second,
		TickInterval:      10 * time.Second,
		NodeProbeInterval: 5 * time.Second,
	}
}

// Load reads and parses a YAML configuration file, filling in defaults for
// anything the file leaves zero-valued.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config file: %w", err)
	}

	return cfg, nil
}
