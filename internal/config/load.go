// Package config loads the bot configuration: an optional JSON/YAML file
// strictly decoded over defaults, with the three credentials taken from the
// environment.
package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strconv"
	"strings"
)

// Load reads the config file at path (missing file is fine: defaults apply),
// then overlays credentials from the environment. It does not validate
// credential presence; call Validate for that.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if strings.TrimSpace(path) != "" {
		b, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
			// env-only operation
		case err != nil:
			return nil, err
		default:
			jb, err := coerceToJSONBytes(path, b)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", path, err)
			}
			if err := decodeStrict(jb, cfg); err != nil {
				return nil, fmt.Errorf("%s: %w", path, err)
			}
		}
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func decodeStrict(jb []byte, cfg *Config) error {
	dec := json.NewDecoder(bytes.NewReader(jb))
	dec.DisallowUnknownFields()
	if err := dec.Decode(cfg); err != nil {
		return err
	}
	// reject trailing tokens (e.g. concatenated JSON)
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		if err == nil {
			return fmt.Errorf("invalid config: trailing data")
		}
		return err
	}
	return nil
}

func applyEnv(cfg *Config) error {
	if v := os.Getenv(EnvPracticumToken); v != "" {
		cfg.Practicum.Token = v
	}
	if v := os.Getenv(EnvTelegramToken); v != "" {
		cfg.Telegram.Token = v
	}
	if v := os.Getenv(EnvTelegramChatID); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("%s: not a chat id: %q", EnvTelegramChatID, v)
		}
		cfg.Telegram.ChatID = id
	}
	return nil
}

// Validate checks that all three credentials are present. The returned error
// names every missing one by its environment variable; missing credentials
// are a fatal startup condition, not a runtime retry case.
func (c *Config) Validate() error {
	var missing []string
	if strings.TrimSpace(c.Practicum.Token) == "" {
		missing = append(missing, EnvPracticumToken)
	}
	if strings.TrimSpace(c.Telegram.Token) == "" {
		missing = append(missing, EnvTelegramToken)
	}
	if c.Telegram.ChatID == 0 {
		missing = append(missing, EnvTelegramChatID)
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required environment variables: %s", strings.Join(missing, ", "))
	}
	return nil
}
