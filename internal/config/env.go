package config

import (
	"errors"
	"io/fs"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	appLog "notioncal/internal/log"
)

// envBindings maps config keys to the environment variables that override
// them.
var envBindings = []struct {
	key string
	env string
	set func(*Config, string)
}{
	{"notion.token", "NOTION_TOKEN", func(c *Config, v string) { c.Notion.Token = v }},
	{"notion.database_id", "NOTION_DATABASE_ID", func(c *Config, v string) { c.Notion.DatabaseID = v }},
	{"google.calendar_id", "GOOGLE_CALENDAR_ID", func(c *Config, v string) { c.Google.CalendarID = v }},
	{"google.credentials_file", "GOOGLE_CREDENTIALS_FILE", func(c *Config, v string) { c.Google.CredentialsFile = v }},
	{"google.token_file", "GOOGLE_TOKEN_FILE", func(c *Config, v string) { c.Google.TokenFile = v }},
	{"listen", "NOTIONCAL_LISTEN", func(c *Config, v string) { c.Listen = v }},
	{"sync.schedule", "NOTIONCAL_SCHEDULE", func(c *Config, v string) { c.Sync.Schedule = v }},
	{"log.level", "LOG_LEVEL", func(c *Config, v string) { c.Log.Level = v }},
}

// LoadDotEnv loads .env style files into the process environment. Missing
// files are skipped. Variables already set are never overridden, so list
// the most specific file first (".env.local", ".env").
func LoadDotEnv(files ...string) error {
	for _, f := range files {
		if err := godotenv.Load(f); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return err
		}
		appLog.Debug("loaded env file", "path", f)
	}
	return nil
}

// ApplyEnv overrides cfg with any bound environment variable that is set
// and non-empty.
func ApplyEnv(cfg *Config) error {
	v := viper.New()
	for _, b := range envBindings {
		if err := v.BindEnv(b.key, b.env); err != nil {
			return err
		}
	}
	for _, b := range envBindings {
		if s := v.GetString(b.key); s != "" {
			b.set(cfg, s)
		}
	}
	return nil
}

// LoadWithEnv is Load followed by ApplyEnv.
func LoadWithEnv(path string) (*Config, error) {
	cfg, err := Load(path)
	if err != nil {
		return cfg, err
	}
	if err := ApplyEnv(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
