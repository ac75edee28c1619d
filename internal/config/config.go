package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		SocketURL string `yaml:"socketUrl"`
		APIURL    string `yaml:"apiUrl"`
	} `yaml:"server"`
	Identity struct {
		UID         string `yaml:"uid"`
		DisplayName string `yaml:"displayName"`
		Token       string `yaml:"token"`
	} `yaml:"identity"`
	Game struct {
		QuestionSeconds int    `yaml:"questionSeconds"`
		QuestionWait    string `yaml:"questionWait"`
	} `yaml:"game"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		TTL      string `yaml:"ttl"`
	} `yaml:"redis"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
	Cache struct {
		CatalogTTL string `yaml:"catalogTtl"`
	} `yaml:"cache"`
}

// Load reads YAML config from path. A missing file yields the zero
// config so the client runs with defaults out of the box.
func Load(path string) (Config, error) {
	cfg := Config{}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// TTLDuration parses a duration string or returns the fallback if
// empty or unparseable.
func TTLDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}
