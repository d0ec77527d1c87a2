// Package config loads server settings from defaults, an optional TOML file
// and VIDEOFETCH_* environment variables, in increasing precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/afero"
	"github.com/spf13/viper"

	"videofetch/services"
)

const (
	Name      = "videofetch"
	EnvPrefix = "VIDEOFETCH"
)

// Keys
const (
	KeyServerAddr              = "server.addr"
	KeyServerReadHeaderTimeout = "server.read_header_timeout"
	KeyServerShutdownTimeout   = "server.shutdown_timeout"
	KeyCORSAllowedOrigins      = "cors.allowed_origins"
	KeyYTDLPBinary             = "ytdlp.binary"
	KeyYTDLPRetries            = "ytdlp.retries"
	KeyYTDLPTimeout            = "ytdlp.timeout"
	KeyProxyUserAgent          = "proxy.user_agent"
	KeyLogLevel                = "log.level"
	KeyLogFormat               = "log.format"
)

// EnvKeyReplacer maps "ytdlp.retries" onto VIDEOFETCH_YTDLP_RETRIES.
var EnvKeyReplacer = strings.NewReplacer(".", "_")

// Default holds the factory value of every key.
var Default = map[string]any{
	KeyServerAddr:              ":8080",
	KeyServerReadHeaderTimeout: 10 * time.Second,
	KeyServerShutdownTimeout:   15 * time.Second,
	KeyCORSAllowedOrigins:      []string{"*"},
	KeyYTDLPBinary:             "yt-dlp",
	KeyYTDLPRetries:            5,
	KeyYTDLPTimeout:            2 * time.Minute,
	KeyProxyUserAgent:          services.DefaultUserAgent,
	KeyLogLevel:                "info",
	KeyLogFormat:               "console",
}

type Config struct {
	Server Server `mapstructure:"server"`
	CORS   CORS   `mapstructure:"cors"`
	YTDLP  YTDLP  `mapstructure:"ytdlp"`
	Proxy  Proxy  `mapstructure:"proxy"`
	Log    Log    `mapstructure:"log"`
}

type Server struct {
	Addr              string        `mapstructure:"addr"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown_timeout"`
}

type CORS struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

type YTDLP struct {
	Binary  string        `mapstructure:"binary"`
	Retries int           `mapstructure:"retries"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type Proxy struct {
	UserAgent string `mapstructure:"user_agent"`
}

type Log struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads configuration from fs. An explicit path must exist; without one
// the usual locations are searched and a missing file is not an error.
func Load(fs afero.Fs, path string) (*Config, error) {
	v := viper.New()
	v.SetFs(fs)
	v.SetConfigType("toml")

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(Name)
		v.AddConfigPath(".")
		if dir, err := os.UserConfigDir(); err == nil {
			v.AddConfigPath(filepath.Join(dir, Name))
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(EnvKeyReplacer)
	v.AutomaticEnv()

	for key, value := range Default {
		v.SetDefault(key, value)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if strings.TrimSpace(c.Server.Addr) == "" {
		return errors.New("config: server.addr must not be empty")
	}
	if strings.TrimSpace(c.YTDLP.Binary) == "" {
		return errors.New("config: ytdlp.binary must not be empty")
	}
	if c.YTDLP.Retries < 0 {
		return fmt.Errorf("config: ytdlp.retries must be >= 0, got %d", c.YTDLP.Retries)
	}
	switch strings.ToLower(c.Log.Format) {
	case "console", "json":
	default:
		return fmt.Errorf("config: log.format must be console or json, got %q", c.Log.Format)
	}
	return nil
}
