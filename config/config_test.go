package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"

	"videofetch/services"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(afero.NewMemMapFs(), "")
	require.NoError(t, err)

	require.Equal(t, ":8080", cfg.Server.Addr)
	require.Equal(t, 10*time.Second, cfg.Server.ReadHeaderTimeout)
	require.Equal(t, 15*time.Second, cfg.Server.ShutdownTimeout)
	require.Equal(t, []string{"*"}, cfg.CORS.AllowedOrigins)
	require.Equal(t, "yt-dlp", cfg.YTDLP.Binary)
	require.Equal(t, 5, cfg.YTDLP.Retries)
	require.Equal(t, 2*time.Minute, cfg.YTDLP.Timeout)
	require.Equal(t, services.DefaultUserAgent, cfg.Proxy.UserAgent)
	require.Equal(t, "info", cfg.Log.Level)
	require.Equal(t, "console", cfg.Log.Format)
}

func TestLoadFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/etc/videofetch/videofetch.toml", []byte(`
[server]
addr = "127.0.0.1:9000"

[cors]
allowed_origins = ["https://app.example"]

[ytdlp]
binary = "/opt/yt-dlp"
timeout = "30s"

[log]
format = "json"
`), 0o644))

	cfg, err := Load(fs, "/etc/videofetch/videofetch.toml")
	require.NoError(t, err)

	require.Equal(t, "127.0.0.1:9000", cfg.Server.Addr)
	require.Equal(t, []string{"https://app.example"}, cfg.CORS.AllowedOrigins)
	require.Equal(t, "/opt/yt-dlp", cfg.YTDLP.Binary)
	require.Equal(t, 30*time.Second, cfg.YTDLP.Timeout)
	require.Equal(t, 5, cfg.YTDLP.Retries)
	require.Equal(t, "json", cfg.Log.Format)
}

func TestLoadSearchesWorkingDir(t *testing.T) {
	wd, err := os.Getwd()
	require.NoError(t, err)
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, filepath.Join(wd, "videofetch.toml"), []byte("[ytdlp]\nretries = 2\n"), 0o644))

	cfg, err := Load(fs, "")
	require.NoError(t, err)
	require.Equal(t, 2, cfg.YTDLP.Retries)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/cfg.toml", []byte("[ytdlp]\nretries = 2\n"), 0o644))
	t.Setenv("VIDEOFETCH_YTDLP_RETRIES", "9")
	t.Setenv("VIDEOFETCH_LOG_LEVEL", "debug")

	cfg, err := Load(fs, "/cfg.toml")
	require.NoError(t, err)
	require.Equal(t, 9, cfg.YTDLP.Retries)
	require.Equal(t, "debug", cfg.Log.Level)
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := Load(afero.NewMemMapFs(), "/nope.toml")
	require.Error(t, err)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/bad.toml", []byte("[log]\nformat = \"xml\"\n"), 0o644))

	_, err := Load(fs, "/bad.toml")
	require.ErrorContains(t, err, "log.format")
}

func TestValidate(t *testing.T) {
	valid := Config{
		Server: Server{Addr: ":1"},
		YTDLP:  YTDLP{Binary: "yt-dlp"},
		Log:    Log{Format: "JSON"},
	}
	require.NoError(t, valid.Validate())

	noAddr := valid
	noAddr.Server.Addr = " "
	require.Error(t, noAddr.Validate())

	noBinary := valid
	noBinary.YTDLP.Binary = ""
	require.Error(t, noBinary.Validate())

	negative := valid
	negative.YTDLP.Retries = -1
	require.Error(t, negative.Validate())
}
