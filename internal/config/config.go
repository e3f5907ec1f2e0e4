package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

type Config struct {
	Paths    PathsConfig    `mapstructure:"paths"`
	TTS      TTSConfig      `mapstructure:"tts"`
	Playback PlaybackConfig `mapstructure:"playback"`
	Server   ServerConfig   `mapstructure:"server"`
	Log      LogConfig      `mapstructure:"log"`
}

type PathsConfig struct {
	DataDir   string `mapstructure:"data_dir"`
	VoicesDir string `mapstructure:"voices_dir"`
}

type TTSConfig struct {
	Voice     string  `mapstructure:"voice"`
	Speed     float64 `mapstructure:"speed"`
	SpeakerID int     `mapstructure:"speaker_id"`
	Threads   int     `mapstructure:"threads"`
}

type PlaybackConfig struct {
	Enabled      bool `mapstructure:"enabled"`
	BufferFrames int  `mapstructure:"buffer_frames"`
}

type ServerConfig struct {
	ListenAddr      string `mapstructure:"listen_addr"`
	MaxTextBytes    int    `mapstructure:"max_text_bytes"`
	RequestTimeout  int    `mapstructure:"request_timeout"`
	ShutdownTimeout int    `mapstructure:"shutdown_timeout"`
	Workers         int    `mapstructure:"workers"`
}

type LogConfig struct {
	Level      string `mapstructure:"level"`
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
}

type LoadOptions struct {
	Cmd        flagBinder
	ConfigFile string
	Defaults   Config
}

type flagBinder interface {
	Flags() *pflag.FlagSet
}

func DefaultConfig() Config {
	return Config{
		Paths: PathsConfig{
			DataDir:   ".",
			VoicesDir: "voices",
		},
		TTS: TTSConfig{
			Voice:     "amy",
			Speed:     1.0,
			SpeakerID: 0,
			Threads:   1,
		},
		Playback: PlaybackConfig{
			Enabled:      true,
			BufferFrames: 512,
		},
		Server: ServerConfig{
			ListenAddr:      ":8080",
			MaxTextBytes:    4096,
			RequestTimeout:  60,
			ShutdownTimeout: 30,
			Workers:         1,
		},
		Log: LogConfig{
			Level:      "info",
			File:       "",
			MaxSizeMB:  10,
			MaxBackups: 3,
		},
	}
}

func RegisterFlags(fs *pflag.FlagSet, defaults Config) {
	fs.String("paths-data-dir", defaults.Paths.DataDir, "Application data directory")
	fs.String("paths-voices-dir", defaults.Paths.VoicesDir, "Directory holding installed voice models")
	fs.String("tts-voice", defaults.TTS.Voice, "Default voice ID")
	fs.Float64("tts-speed", defaults.TTS.Speed, "Speech rate multiplier")
	fs.Int("tts-speaker-id", defaults.TTS.SpeakerID, "Speaker ID for multi-speaker voices")
	fs.Int("tts-threads", defaults.TTS.Threads, "Inference thread count")
	fs.Bool("playback-enabled", defaults.Playback.Enabled, "Enable audio playback through the default output device")
	fs.Int("playback-buffer-frames", defaults.Playback.BufferFrames, "Playback device period size in frames")
	fs.String("server-listen-addr", defaults.Server.ListenAddr, "HTTP listen address")
	fs.Int("server-max-text-bytes", defaults.Server.MaxTextBytes, "Maximum text size accepted by POST /tts")
	fs.Int("server-request-timeout", defaults.Server.RequestTimeout, "Per-request synthesis timeout in seconds")
	fs.Int("server-shutdown-timeout", defaults.Server.ShutdownTimeout, "Graceful shutdown drain period in seconds")
	fs.Int("server-workers", defaults.Server.Workers, "Max concurrent synthesis requests")
	fs.String("log-level", defaults.Log.Level, "Log level (debug|info|warn|error)")
	fs.String("log-file", defaults.Log.File, "Log file path (empty for stderr only)")
	fs.Int("log-max-size-mb", defaults.Log.MaxSizeMB, "Log file size before rotation in MiB")
	fs.Int("log-max-backups", defaults.Log.MaxBackups, "Rotated log files to retain")
}

func Load(opts LoadOptions) (Config, error) {
	v := viper.New()

	setDefaults(v, opts.Defaults)
	if opts.Cmd != nil {
		if err := bindFlags(v, opts.Cmd.Flags()); err != nil {
			return Config{}, fmt.Errorf("bind flags: %w", err)
		}
	}
	registerAliases(v)

	v.SetEnvPrefix("OFFLINETTS")
	replacer := strings.NewReplacer("-", "_", ".", "_", "__", "_")
	v.SetEnvKeyReplacer(replacer)
	v.AutomaticEnv()

	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
	} else {
		v.SetConfigName("offlinetts")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return Config{}, fmt.Errorf("read config file: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper, c Config) {
	v.SetDefault("paths.data_dir", c.Paths.DataDir)
	v.SetDefault("paths.voices_dir", c.Paths.VoicesDir)
	v.SetDefault("tts.voice", c.TTS.Voice)
	v.SetDefault("tts.speed", c.TTS.Speed)
	v.SetDefault("tts.speaker_id", c.TTS.SpeakerID)
	v.SetDefault("tts.threads", c.TTS.Threads)
	v.SetDefault("playback.enabled", c.Playback.Enabled)
	v.SetDefault("playback.buffer_frames", c.Playback.BufferFrames)
	v.SetDefault("server.listen_addr", c.Server.ListenAddr)
	v.SetDefault("server.max_text_bytes", c.Server.MaxTextBytes)
	v.SetDefault("server.request_timeout", c.Server.RequestTimeout)
	v.SetDefault("server.shutdown_timeout", c.Server.ShutdownTimeout)
	v.SetDefault("server.workers", c.Server.Workers)
	v.SetDefault("log.level", c.Log.Level)
	v.SetDefault("log.file", c.Log.File)
	v.SetDefault("log.max_size_mb", c.Log.MaxSizeMB)
	v.SetDefault("log.max_backups", c.Log.MaxBackups)
}

func bindFlags(v *viper.Viper, fs *pflag.FlagSet) error {
	bindings := map[string]string{
		"paths.data_dir":          "paths-data-dir",
		"paths.voices_dir":        "paths-voices-dir",
		"tts.voice":               "tts-voice",
		"tts.speed":               "tts-speed",
		"tts.speaker_id":          "tts-speaker-id",
		"tts.threads":             "tts-threads",
		"playback.enabled":        "playback-enabled",
		"playback.buffer_frames":  "playback-buffer-frames",
		"server.listen_addr":      "server-listen-addr",
		"server.max_text_bytes":   "server-max-text-bytes",
		"server.request_timeout":  "server-request-timeout",
		"server.shutdown_timeout": "server-shutdown-timeout",
		"server.workers":          "server-workers",
		"log.level":               "log-level",
		"log.file":                "log-file",
		"log.max_size_mb":         "log-max-size-mb",
		"log.max_backups":         "log-max-backups",
	}
	for key, name := range bindings {
		flag := fs.Lookup(name)
		if flag == nil {
			continue
		}
		if err := v.BindPFlag(key, flag); err != nil {
			return err
		}
	}
	return nil
}

func registerAliases(v *viper.Viper) {
	v.RegisterAlias("paths-data-dir", "paths.data_dir")
	v.RegisterAlias("paths-voices-dir", "paths.voices_dir")
	v.RegisterAlias("tts-voice", "tts.voice")
	v.RegisterAlias("tts-speed", "tts.speed")
	v.RegisterAlias("tts-speaker-id", "tts.speaker_id")
	v.RegisterAlias("tts-threads", "tts.threads")
	v.RegisterAlias("playback-enabled", "playback.enabled")
	v.RegisterAlias("playback-buffer-frames", "playback.buffer_frames")
	v.RegisterAlias("server-listen-addr", "server.listen_addr")
	v.RegisterAlias("server-max-text-bytes", "server.max_text_bytes")
	v.RegisterAlias("server-request-timeout", "server.request_timeout")
	v.RegisterAlias("server-shutdown-timeout", "server.shutdown_timeout")
	v.RegisterAlias("server-workers", "server.workers")
	v.RegisterAlias("log-level", "log.level")
	v.RegisterAlias("log-file", "log.file")
	v.RegisterAlias("log-max-size-mb", "log.max_size_mb")
	v.RegisterAlias("log-max-backups", "log.max_backups")
}

// VoicesPath returns the voices directory, resolving a relative voices_dir
// against data_dir.
func (c Config) VoicesPath() string {
	if c.Paths.VoicesDir == "" {
		return c.Paths.DataDir
	}
	if filepath.IsAbs(c.Paths.VoicesDir) {
		return c.Paths.VoicesDir
	}
	return filepath.Join(c.Paths.DataDir, c.Paths.VoicesDir)
}
