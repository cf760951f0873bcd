package config

import (
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig
	Redis     RedisConfig
	JWT       JWTConfig
	Spotify   SpotifyConfig
	Download  DownloadConfig
	Cleanup   CleanupConfig
	RateLimit RateLimitConfig
}

type ServerConfig struct {
	Port string
	Env  string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type JWTConfig struct {
	Secret string
}

type SpotifyConfig struct {
	ClientID     string
	ClientSecret string
}

type DownloadConfig struct {
	TempDir        string
	OutputDir      string
	ZipDir         string
	Bitrate        int // kbps
	SearchLimit    int
	RetentionHours int
}

type CleanupConfig struct {
	TempMaxAgeHours   int
	OutputMaxAgeHours int
	ZipMaxAgeHours    int
}

type RateLimitConfig struct {
	InfoPerMin   int
	StartPerHour int
}

// Retention is the job record lifetime.
func (c DownloadConfig) Retention() time.Duration {
	return time.Duration(c.RetentionHours) * time.Hour
}

func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")

	// Environment variables
	viper.AutomaticEnv()

	// Defaults
	viper.SetDefault("server.port", "5000")
	viper.SetDefault("server.env", "development")
	viper.SetDefault("redis.addr", "localhost:6379")
	viper.SetDefault("redis.password", "")
	viper.SetDefault("redis.db", 0)
	viper.SetDefault("jwt.secret", "change-me-in-production")
	viper.SetDefault("spotify.client_id", "")
	viper.SetDefault("spotify.client_secret", "")
	viper.SetDefault("download.temp_dir", "downloads/temp")
	viper.SetDefault("download.output_dir", "downloads/output")
	viper.SetDefault("download.zip_dir", "downloads/zip")
	viper.SetDefault("download.bitrate", 320)
	viper.SetDefault("download.search_limit", 5)
	viper.SetDefault("download.retention_hours", 24)
	viper.SetDefault("cleanup.temp_max_age_hours", 1)
	viper.SetDefault("cleanup.output_max_age_hours", 24)
	viper.SetDefault("cleanup.zip_max_age_hours", 24)
	viper.SetDefault("ratelimit.info_per_min", 30)
	viper.SetDefault("ratelimit.start_per_hour", 20)

	// Try to read config file (optional)
	_ = viper.ReadInConfig()

	cfg := &Config{
		Server: ServerConfig{
			Port: viper.GetString("server.port"),
			Env:  viper.GetString("server.env"),
		},
		Redis: RedisConfig{
			Addr:     viper.GetString("redis.addr"),
			Password: viper.GetString("redis.password"),
			DB:       viper.GetInt("redis.db"),
		},
		JWT: JWTConfig{
			Secret: viper.GetString("jwt.secret"),
		},
		Spotify: SpotifyConfig{
			ClientID:     viper.GetString("spotify.client_id"),
			ClientSecret: viper.GetString("spotify.client_secret"),
		},
		Download: DownloadConfig{
			TempDir:        viper.GetString("download.temp_dir"),
			OutputDir:      viper.GetString("download.output_dir"),
			ZipDir:         viper.GetString("download.zip_dir"),
			Bitrate:        viper.GetInt("download.bitrate"),
			SearchLimit:    viper.GetInt("download.search_limit"),
			RetentionHours: viper.GetInt("download.retention_hours"),
		},
		Cleanup: CleanupConfig{
			TempMaxAgeHours:   viper.GetInt("cleanup.temp_max_age_hours"),
			OutputMaxAgeHours: viper.GetInt("cleanup.output_max_age_hours"),
			ZipMaxAgeHours:    viper.GetInt("cleanup.zip_max_age_hours"),
		},
		RateLimit: RateLimitConfig{
			InfoPerMin:   viper.GetInt("ratelimit.info_per_min"),
			StartPerHour: viper.GetInt("ratelimit.start_per_hour"),
		},
	}

	return cfg, nil
}
