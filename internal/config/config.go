package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/alexanderramin/pmdash/internal/snapshot"
)

// Config is the full pmdash configuration.
type Config struct {
	// DBPath is the client's local cache database.
	DBPath string `mapstructure:"db_path"`

	// ServerDBPath backs the data service, both for `serve` and for the
	// in-process service used when RemoteURL is empty.
	ServerDBPath string `mapstructure:"server_db_path"`

	// RemoteURL points at a running `pmdash serve`. Empty means in-process.
	RemoteURL string `mapstructure:"remote_url"`

	ListenAddr string `mapstructure:"listen_addr"`
	Tenant     string `mapstructure:"tenant"`

	Snapshot SnapshotConfig `mapstructure:"snapshot"`
	Log      LogConfig      `mapstructure:"log"`
}

type SnapshotConfig struct {
	Format   string `mapstructure:"format"`
	Compress bool   `mapstructure:"compress"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

// DefaultConfig returns the configuration used when no file or environment
// override is present.
func DefaultConfig() *Config {
	dir := DataDir()
	return &Config{
		DBPath:       filepath.Join(dir, "pmdash.db"),
		ServerDBPath: filepath.Join(dir, "server.db"),
		ListenAddr:   "127.0.0.1:8417",
		Tenant:       "default",
		Snapshot: SnapshotConfig{
			Format:   string(snapshot.FormatJSON),
			Compress: false,
		},
		Log: LogConfig{Level: "warn"},
	}
}

// DataDir is ~/.pmdash, or ./.pmdash when the home directory is unknown.
func DataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".pmdash"
	}
	return filepath.Join(home, ".pmdash")
}

// GlobalConfigPath returns the path of the per-user config file.
func GlobalConfigPath() string {
	return filepath.Join(DataDir(), "config.yaml")
}

// ProjectConfigPath returns the path of the working-directory config file.
func ProjectConfigPath() string {
	cwd, err := os.Getwd()
	if err != nil {
		return filepath.Join(".pmdash", "config.yaml")
	}
	return filepath.Join(cwd, ".pmdash", "config.yaml")
}

// Validate reports settings the rest of the program cannot work with.
func (c *Config) Validate() error {
	if c.DBPath == "" {
		return fmt.Errorf("db_path is required")
	}
	if c.Tenant == "" {
		return fmt.Errorf("tenant is required")
	}
	if _, err := snapshot.ParseFormat(c.Snapshot.Format); err != nil {
		return fmt.Errorf("snapshot.format: %w", err)
	}
	if _, err := ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	return nil
}

// SnapshotCodec builds the codec the local state persister writes with.
func (c *Config) SnapshotCodec() (*snapshot.Codec, error) {
	format, err := snapshot.ParseFormat(c.Snapshot.Format)
	if err != nil {
		return nil, err
	}
	return snapshot.NewCodec(format, c.Snapshot.Compress), nil
}

// ParseLevel maps a level name onto slog. Empty means warn.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "", "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return 0, fmt.Errorf("unknown level %q", s)
}
