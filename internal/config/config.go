package config

type Config struct {
	Server  ServerConfig
	Storage StorageConfig
	Catalog CatalogConfig
	Digest  DigestConfig
	Log     LogConfig
}

type ServerConfig struct {
	Port int
}

type StorageConfig struct {
	DataDir string
}

type CatalogConfig struct {
	// PremiumSource is the posting source that earns the scoring bonus.
	PremiumSource string
}

type DigestConfig struct {
	Size int
}

type LogConfig struct {
	Level string
}

func defaults() Config {
	return Config{
		Server:  ServerConfig{Port: 4600},
		Storage: StorageConfig{DataDir: defaultDataDir()},
		Catalog: CatalogConfig{PremiumSource: "LinkedIn"},
		Digest:  DigestConfig{Size: 10},
		Log:     LogConfig{Level: "info"},
	}
}

// Load reads configuration from the JSON config file at
// $XDG_CONFIG_HOME/jobtrack/config.json, then applies JOBTRACK_* environment
// variable overrides.
func Load() (Config, error) {
	return loadWith(newFileBackend())
}

func loadWith(b Backend) (Config, error) {
	cfg := defaults()
	if err := applyBackend(&cfg, b); err != nil {
		return Config{}, err
	}
	applyEnvOverrides(&cfg)
	return cfg, nil
}
