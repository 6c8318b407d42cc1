package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/SAMIHZS/mafia-game/internal/game"
	"github.com/spf13/viper"
)

type Config struct {
	Port        string `mapstructure:"port"`
	LogLevel    string `mapstructure:"log_level"`
	FrontendURL string `mapstructure:"frontend_url"`
	DevMode     bool   `mapstructure:"dev_mode"`

	MinPlayers             int  `mapstructure:"min_players"`
	MaxPlayers             int  `mapstructure:"max_players"`
	NightDurationSeconds   int  `mapstructure:"night_duration_seconds"`
	DayDurationSeconds     int  `mapstructure:"day_duration_seconds"`
	RoleRevealDelaySeconds int  `mapstructure:"role_reveal_delay_seconds"`
	GracePeriodSeconds     int  `mapstructure:"grace_period_seconds"`
	RoomExpiryMinutes      int  `mapstructure:"room_expiry_minutes"`
	EnableDoctor           bool `mapstructure:"enable_doctor"`
	EnableDetective        bool `mapstructure:"enable_detective"`

	JWTSecret   string `mapstructure:"jwt_secret"`
	JWTTTLHours int    `mapstructure:"jwt_ttl_hours"`

	DatabaseURL   string `mapstructure:"database_url"`
	RedisAddr     string `mapstructure:"redis_addr"`
	RedisPassword string `mapstructure:"redis_password"`
	RedisDB       int    `mapstructure:"redis_db"`

	ExportEnabled bool   `mapstructure:"export_enabled"`
	ExportFile    string `mapstructure:"export_file"`

	JoinRatePerMinute int `mapstructure:"join_rate_per_minute"`
}

var defaults = map[string]any{
	"port":                      "8080",
	"log_level":                 "info",
	"frontend_url":              "http://localhost:5173",
	"dev_mode":                  false,
	"min_players":               6,
	"max_players":               20,
	"night_duration_seconds":    30,
	"day_duration_seconds":      60,
	"role_reveal_delay_seconds": 3,
	"grace_period_seconds":      10,
	"room_expiry_minutes":       30,
	"enable_doctor":             true,
	"enable_detective":          true,
	"jwt_secret":                "",
	"jwt_ttl_hours":             24,
	"database_url":              "",
	"redis_addr":                "",
	"redis_password":            "",
	"redis_db":                  0,
	"export_enabled":            false,
	"export_file":               "./mafia-results.txt",
	"join_rate_per_minute":      10,
}

// Load reads the optional YAML file at path, then lets environment
// variables (upper-case keys, e.g. NIGHT_DURATION_SECONDS) override it.
func Load(path string) (Config, error) {
	v := viper.New()
	for k, val := range defaults {
		v.SetDefault(k, val)
	}
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if c.MinPlayers < 2 {
		return fmt.Errorf("min_players must be at least 2, got %d", c.MinPlayers)
	}
	if c.MaxPlayers < c.MinPlayers {
		return fmt.Errorf("max_players (%d) must not be below min_players (%d)", c.MaxPlayers, c.MinPlayers)
	}
	if c.NightDurationSeconds <= 0 || c.DayDurationSeconds <= 0 {
		return fmt.Errorf("phase durations must be positive")
	}
	if c.GracePeriodSeconds < 0 || c.RoleRevealDelaySeconds < 0 {
		return fmt.Errorf("delays must not be negative")
	}
	if c.RoomExpiryMinutes <= 0 {
		return fmt.Errorf("room_expiry_minutes must be positive")
	}
	return nil
}

// RoomSettings is the per-room configuration new rooms start with.
func (c Config) RoomSettings() game.Settings {
	return game.Settings{
		MinPlayers:    c.MinPlayers,
		MaxPlayers:    c.MaxPlayers,
		NightDuration: c.NightDurationSeconds,
		DayDuration:   c.DayDurationSeconds,
		RoleSettings: game.RoleSettings{
			EnableDoctor:    c.EnableDoctor,
			EnableDetective: c.EnableDetective,
		},
	}
}

func (c Config) Timing() game.Timing {
	t := game.DefaultTiming()
	t.RoleReveal = time.Duration(c.RoleRevealDelaySeconds) * time.Second
	t.DisconnectWait = time.Duration(c.GracePeriodSeconds) * time.Second
	t.RoomExpiry = time.Duration(c.RoomExpiryMinutes) * time.Minute
	return t
}

func (c Config) JWTTTL() time.Duration {
	return time.Duration(c.JWTTTLHours) * time.Hour
}

// AllowedOrigins lists the CORS origins. Dev mode allows any origin.
func (c Config) AllowedOrigins() []string {
	if c.DevMode {
		return []string{"*"}
	}
	var out []string
	for _, o := range strings.Split(c.FrontendURL, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}
