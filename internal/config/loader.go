package config

import (
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// LoadConfig builds a Config by layering defaults, an optional file, and
// environment variables. Order of precedence (low -> high):
//  1. defaults (New())
//  2. file (YAML) if TAXI_CONFIG is set
//  3. env (prefix TAXI_), e.g. TAXI_DATABASE_MAX_OPEN_CONNS
func LoadConfig() (*Config, error) {
	cfg := New()

	k := koanf.New(".")

	if path := os.Getenv("TAXI_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, err
		}
	}

	// Map TAXI_SERVER_PORT -> server.port, TAXI_DATABASE_MAX_OPEN_CONNS ->
	// database.max_open_conns: the first underscore separates the section,
	// the remainder stays flat to match the koanf tags.
	envProvider := env.Provider("TAXI_", ".", func(s string) string {
		s = strings.ToLower(strings.TrimPrefix(s, "TAXI_"))
		if s == "config" {
			return ""
		}
		parts := strings.SplitN(s, "_", 2)
		if len(parts) == 2 {
			return parts[0] + "." + parts[1]
		}
		return s
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, err
	}

	if err := k.UnmarshalWithConf("", cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, err
	}

	return cfg, nil
}
