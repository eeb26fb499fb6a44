package cli

import (
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Cache backend names accepted in the config file.
const (
	BackendFile  = "file"
	BackendRedis = "redis"
	BackendMongo = "mongo"
	BackendNone  = "none"
)

// Config is the weft.toml file shape.
type Config struct {
	Cache CacheConfig `toml:"cache"`
	Redis RedisConfig `toml:"redis"`
	Mongo MongoConfig `toml:"mongo"`
}

// CacheConfig selects and tunes the snapshot store.
type CacheConfig struct {
	// Backend is one of "file", "redis", "mongo", "none". Empty means file.
	Backend string `toml:"backend"`
	// Dir overrides the file backend's directory.
	Dir string `toml:"dir"`
	// TTLHours expires entries after this many hours; zero keeps them forever.
	TTLHours int `toml:"ttl_hours"`
}

// RedisConfig configures the redis backend.
type RedisConfig struct {
	Addr     string `toml:"addr"`
	Password string `toml:"password"`
	DB       int    `toml:"db"`
}

// MongoConfig configures the mongo backend.
type MongoConfig struct {
	URI        string `toml:"uri"`
	Database   string `toml:"database"`
	Collection string `toml:"collection"`
}

// LoadConfig reads a weft.toml file.
func LoadConfig(path string) (Config, error) {
	var cfg Config
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// LoadDefaultConfig looks for weft.toml in the working directory, then in the
// XDG config directory, and returns a zero config when neither exists.
// A malformed file is ignored here; commands that need it strictly call
// LoadConfig directly.
func LoadDefaultConfig() Config {
	for _, path := range defaultConfigPaths() {
		if cfg, err := LoadConfig(path); err == nil {
			return cfg
		}
	}
	return Config{}
}

func defaultConfigPaths() []string {
	paths := []string{appName + ".toml"}
	if configHome := os.Getenv("XDG_CONFIG_HOME"); configHome != "" {
		paths = append(paths, filepath.Join(configHome, appName, appName+".toml"))
	} else if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", appName, appName+".toml"))
	}
	return paths
}
