package engine

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/colorfulnotion/sidechain/common"
	"github.com/colorfulnotion/sidechain/stf"
	"github.com/colorfulnotion/sidechain/stf/evm"
)

// Config describes one shard of the enclave.
type Config struct {
	MrEnclave       common.MrEnclave  `json:"mrenclave"`
	Shard           common.Hash       `json:"shard"`
	UnshieldFundsFn [2]byte           `json:"unshield_funds_fn"`
	EnclaveSigner   common.AccountId  `json:"enclave_signer"`
	CeremonyMaster  *common.AccountId `json:"ceremony_master,omitempty"`
	DataDir         string            `json:"datadir"`
	LogLevel        string            `json:"loglevel"`
	Debug           string            `json:"debug"`
	EnableEVM       bool              `json:"evm"`
}

func DefaultConfig() Config {
	return Config{
		UnshieldFundsFn: [2]byte{7, 1},
		LogLevel:        "info",
	}
}

// LoadConfig reads a JSON config file over the defaults.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("LoadConfig: %w", err)
	}
	if err := json.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("LoadConfig %s: %w", path, err)
	}
	return cfg, nil
}

// ShardId is the configured shard, or the mrenclave when none is set.
func (c *Config) ShardId() common.ShardIdentifier {
	if c.Shard == (common.Hash{}) {
		return common.Hash(c.MrEnclave)
	}
	return c.Shard
}

// Env builds the execution environment of the shard. Without a ceremony
// master only root may read confidential data or change ceremony parameters.
func (c *Config) Env() stf.Env {
	env := stf.Env{
		Shard:           c.ShardId(),
		MrEnclave:       c.MrEnclave,
		EnclaveSigner:   c.EnclaveSigner,
		UnshieldFundsFn: c.UnshieldFundsFn,
		Policy:          stf.RootPolicy,
	}
	if c.CeremonyMaster != nil {
		env.Policy = stf.CeremonyMasterPolicy(*c.CeremonyMaster)
	}
	if c.EnableEVM {
		env.Modules = append(env.Modules, evm.Module)
	}
	return env
}

// String returns the config as indented JSON.
func (c *Config) String() string {
	jsonData, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Sprintf("Error marshaling JSON: %v", err)
	}
	return string(jsonData)
}
