package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/spf13/afero"
)

// Settings represents the application configuration.
type Settings struct {
	Server   ServerSettings   `json:"server"`
	Upstream UpstreamSettings `json:"upstream"`
	Playback PlaybackSettings `json:"playback"`
	Log      LogConfig        `json:"log"`
}

type ServerSettings struct {
	Host           string   `json:"host"`
	Port           int      `json:"port"`
	AllowedOrigins []string `json:"allowedOrigins"` // CORS origins; "*" allows any
}

// UpstreamSettings points at the third-party catalog API.
type UpstreamSettings struct {
	BaseURL         string `json:"baseUrl"`
	TimeoutSeconds  int    `json:"timeoutSeconds"` // 0 = no client timeout
	DefaultServer   string `json:"defaultServer"`
	DefaultCategory string `json:"defaultCategory"`
}

// Timeout returns the HTTP client timeout for upstream calls.
func (u UpstreamSettings) Timeout() time.Duration {
	if u.TimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(u.TimeoutSeconds) * time.Second
}

// PlaybackSettings controls source resolution.
type PlaybackSettings struct {
	// QualityPriority is tried in order when picking the initial source.
	QualityPriority []string `json:"qualityPriority"`
}

// LogConfig represents logging configuration
type LogConfig struct {
	File       string `json:"file"` // empty = stdout only
	Level      string `json:"level"`
	MaxSize    int    `json:"maxSize"`
	MaxAge     int    `json:"maxAge"`
	MaxBackups int    `json:"maxBackups"`
	Compress   bool   `json:"compress"`
}

// DefaultSettings returns sane defaults for a fresh install.
func DefaultSettings() Settings {
	return Settings{
		Server: ServerSettings{
			Host:           "0.0.0.0",
			Port:           5000,
			AllowedOrigins: []string{"http://localhost:5173", "http://localhost:3000", "http://127.0.0.1:5173"},
		},
		Upstream: UpstreamSettings{
			BaseURL:         "https://aniwatch-api.vercel.app/api/v2/hianime",
			TimeoutSeconds:  15,
			DefaultServer:   "hd-1",
			DefaultCategory: "sub",
		},
		Playback: PlaybackSettings{
			QualityPriority: []string{"1080p", "720p", "default", "auto"},
		},
		Log: LogConfig{
			File:       "",
			Level:      "info",
			MaxSize:    50, // 50 MB per file
			MaxBackups: 3,
			MaxAge:     7,
			Compress:   true,
		},
	}
}

// envSettings lists the variables that override file settings. Unset
// variables leave the loaded value alone. Names are fully qualified so that
// envconfig's fallback lookup never picks up generic names like HOST.
type envSettings struct {
	Host            string   `envconfig:"ANISTREAM_HOST"`
	Port            int      `envconfig:"ANISTREAM_PORT"`
	UpstreamURL     string   `envconfig:"ANISTREAM_UPSTREAM_URL"`
	UpstreamTimeout int      `envconfig:"ANISTREAM_UPSTREAM_TIMEOUT_SECONDS"`
	DefaultServer   string   `envconfig:"ANISTREAM_DEFAULT_SERVER"`
	DefaultCategory string   `envconfig:"ANISTREAM_DEFAULT_CATEGORY"`
	QualityPriority []string `envconfig:"ANISTREAM_QUALITY_PRIORITY"`
	AllowedOrigins  []string `envconfig:"ANISTREAM_ALLOWED_ORIGINS"`
	LogFile         string   `envconfig:"ANISTREAM_LOG_FILE"`
	LogLevel        string   `envconfig:"ANISTREAM_LOG_LEVEL"`
}

// legacyEnv holds the unprefixed names the first deployments used.
type legacyEnv struct {
	Port        int    `envconfig:"PORT"`
	UpstreamURL string `envconfig:"ANIWATCH_API_URL"`
}

// Manager loads settings from an optional JSON file and the environment.
// Settings are never written back.
type Manager struct {
	fs   afero.Fs
	path string
}

func NewManager(configPath string) *Manager {
	return &Manager{fs: afero.NewOsFs(), path: configPath}
}

// NewManagerWithFs is NewManager over an arbitrary filesystem.
func NewManagerWithFs(fs afero.Fs, configPath string) *Manager {
	return &Manager{fs: fs, path: configPath}
}

// Path returns the settings file location, which may be empty.
func (m *Manager) Path() string {
	return m.path
}

// Load returns defaults, overlaid by the settings file when present, then by
// environment variables.
func (m *Manager) Load() (Settings, error) {
	s := DefaultSettings()

	if strings.TrimSpace(m.path) != "" {
		data, err := afero.ReadFile(m.fs, m.path)
		switch {
		case err == nil:
			if err := json.Unmarshal(data, &s); err != nil {
				return Settings{}, fmt.Errorf("parse settings %s: %w", m.path, err)
			}
		case errors.Is(err, os.ErrNotExist):
			// optional
		default:
			return Settings{}, fmt.Errorf("read settings %s: %w", m.path, err)
		}
	}

	if err := applyEnv(&s); err != nil {
		return Settings{}, err
	}

	normalize(&s)
	if err := s.Validate(); err != nil {
		return Settings{}, err
	}
	return s, nil
}

func applyEnv(s *Settings) error {
	var legacy legacyEnv
	if err := envconfig.Process("", &legacy); err != nil {
		return fmt.Errorf("parse environment: %w", err)
	}
	if legacy.Port > 0 {
		s.Server.Port = legacy.Port
	}
	if legacy.UpstreamURL != "" {
		s.Upstream.BaseURL = legacy.UpstreamURL
	}

	var env envSettings
	if err := envconfig.Process("", &env); err != nil {
		return fmt.Errorf("parse environment: %w", err)
	}
	if env.Host != "" {
		s.Server.Host = env.Host
	}
	if env.Port > 0 {
		s.Server.Port = env.Port
	}
	if env.UpstreamURL != "" {
		s.Upstream.BaseURL = env.UpstreamURL
	}
	if env.UpstreamTimeout > 0 {
		s.Upstream.TimeoutSeconds = env.UpstreamTimeout
	}
	if env.DefaultServer != "" {
		s.Upstream.DefaultServer = env.DefaultServer
	}
	if env.DefaultCategory != "" {
		s.Upstream.DefaultCategory = env.DefaultCategory
	}
	if len(env.QualityPriority) > 0 {
		s.Playback.QualityPriority = env.QualityPriority
	}
	if len(env.AllowedOrigins) > 0 {
		s.Server.AllowedOrigins = env.AllowedOrigins
	}
	if env.LogFile != "" {
		s.Log.File = env.LogFile
	}
	if env.LogLevel != "" {
		s.Log.Level = env.LogLevel
	}
	return nil
}

func normalize(s *Settings) {
	s.Server.Host = strings.TrimSpace(s.Server.Host)
	s.Upstream.BaseURL = strings.TrimRight(strings.TrimSpace(s.Upstream.BaseURL), "/")
	s.Upstream.DefaultServer = strings.TrimSpace(s.Upstream.DefaultServer)
	s.Upstream.DefaultCategory = strings.TrimSpace(s.Upstream.DefaultCategory)
	if s.Upstream.DefaultServer == "" {
		s.Upstream.DefaultServer = "hd-1"
	}
	if s.Upstream.DefaultCategory == "" {
		s.Upstream.DefaultCategory = "sub"
	}

	priority := s.Playback.QualityPriority[:0:0]
	for _, q := range s.Playback.QualityPriority {
		if q = strings.TrimSpace(q); q != "" {
			priority = append(priority, q)
		}
	}
	s.Playback.QualityPriority = priority
}

// Validate reports settings the server cannot start with.
func (s Settings) Validate() error {
	if s.Server.Port <= 0 || s.Server.Port > 65535 {
		return fmt.Errorf("invalid server port %d", s.Server.Port)
	}
	if s.Upstream.BaseURL == "" {
		return errors.New("upstream base url not set")
	}
	u, err := url.Parse(s.Upstream.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid upstream base url %q", s.Upstream.BaseURL)
	}
	return nil
}
