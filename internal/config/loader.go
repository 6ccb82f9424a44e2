package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix namespaces environment overrides: PMDASH_DB_PATH,
// PMDASH_SNAPSHOT_FORMAT, PMDASH_LOG_LEVEL and so on.
const EnvPrefix = "PMDASH"

// Load merges the global and project config files over the defaults, then
// applies environment overrides. A non-empty explicitPath replaces both
// files and must exist.
func Load(explicitPath string) (*Config, error) {
	v := newViper()

	if explicitPath != "" {
		if err := mergeFile(v, explicitPath); err != nil {
			return nil, fmt.Errorf("loading config %s: %w", explicitPath, err)
		}
	} else {
		for _, path := range []string{GlobalConfigPath(), ProjectConfigPath()} {
			if err := mergeFile(v, path); err != nil && !errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("loading config %s: %w", path, err)
			}
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")

	def := DefaultConfig()
	v.SetDefault("db_path", def.DBPath)
	v.SetDefault("server_db_path", def.ServerDBPath)
	v.SetDefault("remote_url", def.RemoteURL)
	v.SetDefault("listen_addr", def.ListenAddr)
	v.SetDefault("tenant", def.Tenant)
	v.SetDefault("snapshot.format", def.Snapshot.Format)
	v.SetDefault("snapshot.compress", def.Snapshot.Compress)
	v.SetDefault("log.level", def.Log.Level)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

func mergeFile(v *viper.Viper, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return v.MergeConfig(f)
}

// WriteDefault writes a commented starter config to path.
func WriteDefault(path string) error {
	def := DefaultConfig()
	content := fmt.Sprintf(`# pmdash configuration

# Local cache of the last known state.
db_path: %q

# Database of the data service (serve, or in-process when remote_url is empty).
server_db_path: %q

# URL of a running "pmdash serve". Leave empty to run the service in-process.
remote_url: ""

listen_addr: %q
tenant: %q

snapshot:
  format: json   # json or cbor
  compress: false

log:
  level: warn    # debug, info, warn, error
`, def.DBPath, def.ServerDBPath, def.ListenAddr, def.Tenant)

	return os.WriteFile(path, []byte(content), 0o644)
}
