// Package cep is a Go client for the Circular Enterprise APIs: it opens an
// account session, certifies data as ledger transactions through a Network
// Access Gateway (NAG) and polls for their finality.
package cep

import (
	"github.com/circularprotocol/cep/logger"
	"github.com/circularprotocol/cep/metrics"
	"github.com/circularprotocol/cep/types"
	"github.com/circularprotocol/cep/utils"
)

// Version information
const (
	Version = types.LibVersion
)

// New creates an account from config, wiring zap logging and, when
// EnableMetrics is set, Prometheus collectors on the default registry.
// Later options override the wired ones.
func New(config types.Config, opts ...Option) (*Account, error) {
	if err := utils.ValidateConfig(&config); err != nil {
		return nil, err
	}

	var log logger.Logger
	if config.LogFile != "" {
		log = logger.NewZapFileLogger(config.LogFile, config.LogLevel)
	} else {
		log = logger.NewZapLogger(config.LogLevel)
	}

	base := []Option{WithConfig(config), WithLogger(log)}
	if config.EnableMetrics {
		rec, err := metrics.NewPrometheusRecorder(nil)
		if err != nil {
			return nil, types.WrapError(types.ErrConfigError, err, "failed to register metrics")
		}
		base = append(base, WithMetrics(rec))
	}

	return NewAccount(append(base, opts...)...), nil
}

// NewWithDefaults creates an account against the public Circular network.
func NewWithDefaults(opts ...Option) (*Account, error) {
	return New(types.DefaultConfig(), opts...)
}

// NewFromFile loads a YAML, TOML or JSON config file and calls New.
func NewFromFile(path string, opts ...Option) (*Account, error) {
	config, err := utils.LoadConfig(path)
	if err != nil {
		return nil, err
	}
	return New(*config, opts...)
}

// GetVersion returns version information
func GetVersion() map[string]interface{} {
	return map[string]interface{}{
		"library_version": Version,
		"transaction_types": []string{
			types.TxTypeCertificate,
		},
		"supported_networks": []string{
			types.NetworkMainnet, types.NetworkTestnet, types.NetworkDevnet,
		},
	}
}
