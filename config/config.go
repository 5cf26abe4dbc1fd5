// Package config loads the relayrefundd configuration from TOML.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"go.uber.org/zap/zapcore"

	"github.com/blockberries/relayrefund/fee"
	"github.com/blockberries/relayrefund/types"
)

type Config struct {
	DataDir  string `toml:"DataDir"`
	LogLevel string `toml:"LogLevel"`

	Bridge  BridgeConfig  `toml:"bridge"`
	Genesis GenesisConfig `toml:"genesis"`
	Fee     FeeConfig     `toml:"fee"`
	RPC     RPCConfig     `toml:"rpc"`
	Metrics MetricsConfig `toml:"metrics"`
}

// BridgeConfig selects the parachain and lane relayers are refunded for.
type BridgeConfig struct {
	ParachainID uint32 `toml:"ParachainID"`
	// Hex encoded, up to 4 bytes.
	Lane string `toml:"Lane"`
}

// GenesisConfig seeds the bridge trackers at startup.
type GenesisConfig struct {
	BestRelayHeader    uint32 `toml:"BestRelayHeader"`
	ParaHeadAtRelay    uint32 `toml:"ParaHeadAtRelay"`
	BestDeliveredNonce uint64 `toml:"BestDeliveredNonce"`
}

type FeeConfig struct {
	BaseFee              uint64 `toml:"BaseFee"`
	ByteFee              uint64 `toml:"ByteFee"`
	WeightFeeNumerator   uint64 `toml:"WeightFeeNumerator"`
	WeightFeeDenominator uint64 `toml:"WeightFeeDenominator"`
}

type RPCConfig struct {
	ListenAddress string `toml:"ListenAddress"`
}

type MetricsConfig struct {
	// Empty disables the metrics endpoint.
	ListenAddress string `toml:"ListenAddress"`
}

// Default returns the configuration written by Load when no file exists.
func Default() *Config {
	p := fee.DefaultParams()
	return &Config{
		DataDir:  "./relayrefund-data",
		LogLevel: "info",
		Bridge: BridgeConfig{
			ParachainID: 1000,
			Lane:        "00000000",
		},
		Fee: FeeConfig{
			BaseFee:              uint64(p.BaseFee),
			ByteFee:              uint64(p.ByteFee),
			WeightFeeNumerator:   p.WeightFeeNumerator,
			WeightFeeDenominator: p.WeightFeeDenominator,
		},
		RPC:     RPCConfig{ListenAddress: "127.0.0.1:9944"},
		Metrics: MetricsConfig{ListenAddress: "127.0.0.1:9615"},
	}
}

// Load loads the configuration from the given path, writing a default
// file first if none exists.
func Load(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		cfg := Default()
		if err := persist(path, cfg); err != nil {
			return nil, err
		}
		return cfg, nil
	}

	cfg := Default()
	meta, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return nil, fmt.Errorf("decode config %s: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("config file %s has unknown key %s", path, undecoded[0])
	}
	if strings.TrimSpace(cfg.LogLevel) == "" {
		cfg.LogLevel = "info"
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config file %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks the values Load cannot default.
func (c *Config) Validate() error {
	if _, err := types.ParseLaneID(c.Bridge.Lane); err != nil {
		return fmt.Errorf("bridge.Lane: %w", err)
	}
	if c.Fee.WeightFeeDenominator == 0 {
		return errors.New("fee.WeightFeeDenominator must be positive")
	}
	if c.Genesis.ParaHeadAtRelay > c.Genesis.BestRelayHeader {
		return fmt.Errorf("genesis.ParaHeadAtRelay %d is above genesis.BestRelayHeader %d",
			c.Genesis.ParaHeadAtRelay, c.Genesis.BestRelayHeader)
	}
	if strings.TrimSpace(c.RPC.ListenAddress) == "" {
		return errors.New("rpc.ListenAddress required")
	}
	if strings.TrimSpace(c.DataDir) == "" {
		return errors.New("DataDir required")
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	return nil
}

// LaneID returns the configured lane.
func (c *Config) LaneID() types.LaneID {
	lane, _ := types.ParseLaneID(c.Bridge.Lane)
	return lane
}

// FeeParams returns the configured fee coefficients.
func (c *Config) FeeParams() fee.Params {
	return fee.Params{
		BaseFee:              types.Balance(c.Fee.BaseFee),
		ByteFee:              types.Balance(c.Fee.ByteFee),
		WeightFeeNumerator:   c.Fee.WeightFeeNumerator,
		WeightFeeDenominator: c.Fee.WeightFeeDenominator,
	}
}

// Level parses LogLevel.
func (c *Config) Level() (zapcore.Level, error) {
	lvl, err := zapcore.ParseLevel(c.LogLevel)
	if err != nil {
		return zapcore.InfoLevel, fmt.Errorf("LogLevel: %w", err)
	}
	return lvl, nil
}

// LedgerPath is where the reward ledger database lives.
func (c *Config) LedgerPath() string {
	return filepath.Join(c.DataDir, "rewards")
}

func persist(path string, cfg *Config) error {
	dir := filepath.Dir(path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_TRUNC|os.O_CREATE, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	return toml.NewEncoder(f).Encode(cfg)
}
