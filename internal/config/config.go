package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
	Quiz struct {
		// ConnectionLimit caps open push connections per non-admin user.
		ConnectionLimit int `yaml:"connectionLimit"`
		// NaiveLogin lets anyone create a user with just a name.
		NaiveLogin bool `yaml:"naiveLogin"`
		// Admins are user ids granted the admin role at startup.
		Admins []string `yaml:"admins"`
	} `yaml:"quiz"`
}

// Load reads YAML config from path. A missing file yields the zero config,
// so the service can start with in-memory defaults.
func Load(path string) (Config, error) {
	cfg := Config{}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}
