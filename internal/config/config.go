package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	apperrors "notioncal/internal/errors"
	appLog "notioncal/internal/log"
	"notioncal/internal/model"
	"notioncal/internal/notion"
	"notioncal/internal/reconcile"
)

// NOTE: This file provides the configuration model and full YAML-based
// load/save behavior, including first-run config creation and 0600
// permissions. Environment overrides live in env.go.

// PropertiesConfig names the Notion database properties records are read from.
type PropertiesConfig struct {
	Name     string `yaml:"name" json:"name"`
	Course   string `yaml:"course" json:"course"`
	Date     string `yaml:"date" json:"date"`
	Status   string `yaml:"status" json:"status"`
	Category string `yaml:"category" json:"category"`
	// CategoryType is the property type of Category: select, status or
	// multi_select.
	CategoryType string `yaml:"category_type" json:"category_type"`
}

// NotionConfig describes the source database.
type NotionConfig struct {
	Token      string `yaml:"token" json:"-"`
	DatabaseID string `yaml:"database_id" json:"database_id"`
	// BaseURL and Version override the API endpoint and Notion-Version header.
	BaseURL string `yaml:"base_url,omitempty" json:"base_url,omitempty"`
	Version string `yaml:"version,omitempty" json:"version,omitempty"`

	Properties PropertiesConfig `yaml:"properties" json:"properties"`

	// Categories limits records to these values of the category property.
	// Empty means every record with a date.
	Categories []string `yaml:"categories" json:"categories"`
}

// GoogleConfig describes the target calendar and its credentials.
type GoogleConfig struct {
	// CalendarID is the calendar to reconcile into ("primary" by default).
	CalendarID string `yaml:"calendar_id" json:"calendar_id"`
	// CredentialsFile is a service-account or authorized-user JSON file, or
	// an OAuth client secret when TokenFile is also set.
	CredentialsFile string `yaml:"credentials_file" json:"credentials_file"`
	// TokenFile is a saved oauth2.Token in JSON.
	TokenFile string `yaml:"token_file,omitempty" json:"token_file,omitempty"`
}

// SyncConfig controls the reconciliation pass.
type SyncConfig struct {
	// Schedule is a cron spec or a descriptor such as "@every 45s".
	Schedule string `yaml:"schedule" json:"schedule"`
	// PassTimeout bounds a single pass, as a Go duration string.
	PassTimeout string `yaml:"pass_timeout" json:"pass_timeout"`

	// DoneStyle is "marker" or "strikethrough".
	DoneStyle  string `yaml:"done_style" json:"done_style"`
	DoneStatus string `yaml:"done_status" json:"done_status"`
	// DoneMarker and TodoMarker prefix titles in the marker style. Unset
	// selects the default; an explicit "" leaves those titles unmarked.
	DoneMarker *string `yaml:"done_marker" json:"done_marker"`
	TodoMarker *string `yaml:"todo_marker" json:"todo_marker"`

	// Orphans is "delete", "managed" or "keep".
	Orphans string `yaml:"orphans" json:"orphans"`
	DryRun  bool   `yaml:"dry_run" json:"dry_run"`
}

// LogConfig mirrors log.Config.
type LogConfig struct {
	Level      string `yaml:"level" json:"level"`
	Format     string `yaml:"format" json:"format"`
	Output     string `yaml:"output" json:"output"`
	MaxSizeMB  int    `yaml:"max_size_mb,omitempty" json:"max_size_mb,omitempty"`
	MaxBackups int    `yaml:"max_backups,omitempty" json:"max_backups,omitempty"`
}

// BasicAuthConfig holds HTTP Basic Auth credentials for the status API.
type BasicAuthConfig struct {
	Username string `yaml:"username" json:"username"`
	Password string `yaml:"password" json:"-"`
}

// Config is the top-level application configuration.
type Config struct {
	// Listen is the HTTP listen address for the status API. Empty disables
	// the server.
	Listen string `yaml:"listen" json:"listen"`

	Notion NotionConfig `yaml:"notion" json:"notion"`
	Google GoogleConfig `yaml:"google" json:"google"`
	Sync   SyncConfig   `yaml:"sync" json:"sync"`
	Log    LogConfig    `yaml:"log" json:"log"`

	// BasicAuth, if non-nil, enables HTTP Basic Authentication on all endpoints
	// except /health.
	BasicAuth *BasicAuthConfig `yaml:"basic_auth,omitempty" json:"basic_auth,omitempty"`
}

const (
	defaultListen      = "127.0.0.1:8080"
	defaultSchedule    = "@every 45s"
	defaultPassTimeout = "5m"
)

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	names := notion.DefaultPropertyNames()
	p := reconcile.DefaultPresentation()
	return &Config{
		Listen: defaultListen,
		Notion: NotionConfig{
			Properties: PropertiesConfig{
				Name:         names.Name,
				Course:       names.Course,
				Date:         names.Date,
				Status:       names.Status,
				Category:     names.Category,
				CategoryType: names.CategoryType,
			},
			Categories: []string{},
		},
		Google: GoogleConfig{
			CalendarID: "primary",
		},
		Sync: SyncConfig{
			Schedule:    defaultSchedule,
			PassTimeout: defaultPassTimeout,
			DoneStyle:   string(p.Style),
			DoneStatus:  p.DoneStatus,
			DoneMarker:  &p.DoneMarker,
			TodoMarker:  &p.TodoMarker,
			Orphans:     string(reconcile.OrphansDelete),
		},
		Log: LogConfig{
			Level:  "info",
			Format: "auto",
			Output: "stderr",
		},
		BasicAuth: nil,
	}
}

// Normalize fills in missing/zero values with sensible defaults so that
// partially-filled configs still behave correctly. Listen is left alone:
// an empty address is meaningful.
func (c *Config) Normalize() {
	def := DefaultConfig()

	props := &c.Notion.Properties
	fill(&props.Name, def.Notion.Properties.Name)
	fill(&props.Course, def.Notion.Properties.Course)
	fill(&props.Date, def.Notion.Properties.Date)
	fill(&props.Status, def.Notion.Properties.Status)
	fill(&props.Category, def.Notion.Properties.Category)
	fill(&props.CategoryType, def.Notion.Properties.CategoryType)
	if c.Notion.Categories == nil {
		c.Notion.Categories = []string{}
	}

	fill(&c.Google.CalendarID, def.Google.CalendarID)

	fill(&c.Sync.Schedule, def.Sync.Schedule)
	fill(&c.Sync.PassTimeout, def.Sync.PassTimeout)
	fill(&c.Sync.DoneStyle, def.Sync.DoneStyle)
	fill(&c.Sync.DoneStatus, def.Sync.DoneStatus)
	if c.Sync.DoneMarker == nil {
		c.Sync.DoneMarker = def.Sync.DoneMarker
	}
	if c.Sync.TodoMarker == nil {
		c.Sync.TodoMarker = def.Sync.TodoMarker
	}
	fill(&c.Sync.Orphans, def.Sync.Orphans)

	fill(&c.Log.Level, def.Log.Level)
	fill(&c.Log.Format, def.Log.Format)
	fill(&c.Log.Output, def.Log.Output)

	// A basic_auth block without a username would lock everyone out.
	if c.BasicAuth != nil && c.BasicAuth.Username == "" {
		c.BasicAuth = nil
	}
}

func fill(dst *string, def string) {
	if *dst == "" {
		*dst = def
	}
}

// Validate reports every missing or invalid value. The returned error
// matches errors.ErrInvalidConfig.
func (c *Config) Validate() error {
	errs := c.notionErrors()
	if c.Google.CalendarID == "" {
		errs = append(errs, apperrors.NewConfigError("google.calendar_id", "is required"))
	}
	if c.Google.CredentialsFile == "" {
		errs = append(errs, apperrors.NewConfigError("google.credentials_file", "is required (or set GOOGLE_CREDENTIALS_FILE)"))
	}
	if _, err := time.ParseDuration(c.Sync.PassTimeout); err != nil {
		errs = append(errs, apperrors.NewConfigError("sync.pass_timeout", err.Error()))
	}
	if _, err := reconcile.ParseDoneStyle(c.Sync.DoneStyle); err != nil {
		errs = append(errs, apperrors.NewConfigError("sync.done_style", err.Error()))
	}
	if _, err := reconcile.ParseOrphanPolicy(c.Sync.Orphans); err != nil {
		errs = append(errs, apperrors.NewConfigError("sync.orphans", err.Error()))
	}
	return errors.Join(errs...)
}

// ValidateNotion checks only the notion section, for commands that never
// touch the calendar.
func (c *Config) ValidateNotion() error {
	return errors.Join(c.notionErrors()...)
}

func (c *Config) notionErrors() []error {
	var errs []error
	if c.Notion.Token == "" {
		errs = append(errs, apperrors.NewConfigError("notion.token", "is required (or set NOTION_TOKEN)"))
	}
	if c.Notion.DatabaseID == "" {
		errs = append(errs, apperrors.NewConfigError("notion.database_id", "is required (or set NOTION_DATABASE_ID)"))
	}
	switch c.Notion.Properties.CategoryType {
	case "select", "status", "multi_select":
	default:
		errs = append(errs, apperrors.NewConfigError("notion.properties.category_type",
			"must be select, status or multi_select, got "+c.Notion.Properties.CategoryType))
	}
	return errs
}

// PassTimeout returns sync.pass_timeout, falling back to the default on a
// malformed value.
func (c *Config) PassTimeout() time.Duration {
	d, err := time.ParseDuration(c.Sync.PassTimeout)
	if err != nil || d <= 0 {
		d, _ = time.ParseDuration(defaultPassTimeout)
	}
	return d
}

// PropertyNames maps the properties section onto the Notion reducer's names.
func (c *Config) PropertyNames() notion.PropertyNames {
	p := c.Notion.Properties
	return notion.PropertyNames{
		Name:         p.Name,
		Course:       p.Course,
		Date:         p.Date,
		Status:       p.Status,
		Category:     p.Category,
		CategoryType: p.CategoryType,
	}
}

// SyncOptions builds the reconciler options for this config.
func (c *Config) SyncOptions() (reconcile.Options, error) {
	style, err := reconcile.ParseDoneStyle(c.Sync.DoneStyle)
	if err != nil {
		return reconcile.Options{}, apperrors.NewConfigError("sync.done_style", err.Error())
	}
	orphans, err := reconcile.ParseOrphanPolicy(c.Sync.Orphans)
	if err != nil {
		return reconcile.Options{}, apperrors.NewConfigError("sync.orphans", err.Error())
	}
	return reconcile.Options{
		Query: model.RecordQuery{Categories: append([]string(nil), c.Notion.Categories...)},
		Presentation: reconcile.Presentation{
			Style:      style,
			DoneStatus: c.Sync.DoneStatus,
			DoneMarker: deref(c.Sync.DoneMarker),
			TodoMarker: deref(c.Sync.TodoMarker),
		},
		Orphans: orphans,
		DryRun:  c.Sync.DryRun,
	}, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// LogConfig returns the log section in the form log.Configure takes.
func (c *Config) LogConfig() appLog.Config {
	return appLog.Config{
		Level:      c.Log.Level,
		Format:     c.Log.Format,
		Output:     c.Log.Output,
		MaxSizeMB:  c.Log.MaxSizeMB,
		MaxBackups: c.Log.MaxBackups,
	}
}

// Load loads configuration from the given YAML path.
//
// Behavior:
//   - If the file does not exist:
//   - create parent directory if needed
//   - write a default config with 0600 perms
//   - return the default config
//   - If the file exists:
//   - read YAML and unmarshal into Config
//   - normalize defaults
//
// Environment overrides are not applied here; see ApplyEnv.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			// First run: create default config file.
			cfg := DefaultConfig()
			if err := Save(path, cfg); err != nil {
				// Even if save fails, return cfg with error so caller can decide.
				return cfg, err
			}
			appLog.Info("wrote default config", "path", path)
			return cfg, nil
		}
		return nil, err
	}

	return Parse(data)
}

// Parse decodes YAML into a normalized Config. Missing fields keep their
// defaults.
func Parse(data []byte) (*Config, error) {
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	cfg.Normalize()
	return cfg, nil
}

// Save writes the given configuration to the specified path.
//
// Implementation details:
//   - Ensures parent directory exists (0700).
//   - Marshals cfg to YAML.
//   - Writes atomically via a temp file + rename.
//   - Ensures final file permissions are 0600.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}

	cfg.Normalize()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	// Atomic write: write to temp file in same directory then rename.
	tmp, err := os.CreateTemp(dir, ".notioncal-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}

// Save is a convenience method on Config that delegates to the package-level
// Save function.
func (c *Config) Save(path string) error {
	return Save(path, c)
}
