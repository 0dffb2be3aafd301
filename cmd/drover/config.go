package main

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/droverhq/drover"
)

// config is the TOML file at ~/.config/drover/config.toml. Every field is
// optional; flags and environment variables cover the same settings.
type config struct {
	APIKey    string                `toml:"api_key"`
	Model     string                `toml:"model"`
	MaxTokens int                   `toml:"max_tokens"`
	Prices    map[string]priceEntry `toml:"prices"`
}

// priceEntry overrides the per-token USD prices for one model.
type priceEntry struct {
	Input      float64 `toml:"input"`
	Output     float64 `toml:"output"`
	CacheWrite float64 `toml:"cache_write"`
	CacheRead  float64 `toml:"cache_read"`
}

func defaultConfigPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "drover", "config.toml")
}

// loadConfig reads the TOML file at path. A missing file is not an error.
func loadConfig(path string) (config, error) {
	var cfg config
	if path == "" {
		return cfg, nil
	}
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return config{}, nil
		}
		return config{}, err
	}
	return cfg, nil
}

// priceTable overlays the file's price overrides on the built-in defaults.
func (c config) priceTable() drover.PriceTable {
	table := make(drover.PriceTable, len(drover.DefaultPrices)+len(c.Prices))
	for m, p := range drover.DefaultPrices {
		table[m] = p
	}
	for m, p := range c.Prices {
		table[m] = drover.ModelPrice{
			InputTokenPrice:      p.Input,
			OutputTokenPrice:     p.Output,
			CacheWriteTokenPrice: p.CacheWrite,
			CacheHitTokenPrice:   p.CacheRead,
		}
	}
	return table
}
