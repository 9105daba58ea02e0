package config

import (
	_ "embed"
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

//go:embed communities.toml
var defaultCatalog []byte

// TomlCommunity represents one community entry in the catalog
type TomlCommunity struct {
	Id          string   `toml:"id"`
	DisplayName string   `toml:"display_name"`
	Bio         string   `toml:"bio"`
	AvatarPath  string   `toml:"avatar_path"`
	Topics      []string `toml:"topics"`
}

// TomlConfig represents the top-level configuration
type TomlConfig struct {
	Communities []TomlCommunity `toml:"communities"`
}

// LoadConfig reads the community catalog from path. An empty path loads
// the embedded default catalog.
func LoadConfig(path string) (*TomlConfig, error) {
	data := defaultCatalog
	if path != "" {
		fileData, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		data = fileData
	}

	var config TomlConfig
	if err := toml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	return &config, nil
}
