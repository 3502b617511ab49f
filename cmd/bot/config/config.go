package config

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// AppName is the name of the application.
const AppName = "helpdesk"

// Config is the settings file of the bot.
type Config struct {
	// Token authenticates the bot with Discord.
	Token string `mapstructure:"token" validate:"required"`

	ApplicationID string `mapstructure:"application_id" validate:"required,numeric"`

	// HomeGuildID is where commands are synchronized. Commands are global when it is empty.
	HomeGuildID string `mapstructure:"home_guild_id" validate:"omitempty,numeric"`

	// LogChannelID receives the ready and sync notices.
	LogChannelID string `mapstructure:"log_channel_id" validate:"omitempty,numeric"`

	Database   DatabaseConfig   `mapstructure:"database"`
	Monitoring MonitoringConfig `mapstructure:"monitoring"`
	Logging    LoggingConfig    `mapstructure:"logging"`
}

type DatabaseConfig struct {
	// Path is the sqlite database file.
	Path string `mapstructure:"path" validate:"required"`
}

type MonitoringConfig struct {
	Port int `mapstructure:"port" validate:"min=1,max=65535"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level" validate:"oneof=debug info warn warning error"`
	Format string `mapstructure:"format" validate:"oneof=console json"`
}

// envBindings maps settings keys to their environment variables.
var envBindings = map[string]string{
	"token":           "BOT_TOKEN",
	"application_id":  "APPLICATION_ID",
	"home_guild_id":   "HOME_GUILD_ID",
	"log_channel_id":  "LOG_CHANNEL_ID",
	"database.path":   "DATABASE_PATH",
	"monitoring.port": "MONITORING_PORT",
	"logging.level":   "LOG_LEVEL",
	"logging.format":  "LOG_FORMAT",
}

// Load reads the settings file at path, applies environment overrides and validates the result.
// When path is empty config.json in the working directory is used if present.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("error binding %s: %w", env, err)
		}
	}

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	c := new(Config)
	if err := v.Unmarshal(c); err != nil {
		return nil, fmt.Errorf("error unmarshalling config: %w", err)
	}

	if err := validator.New().Struct(c); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return c, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("database.path", "data/"+AppName+".db")
	v.SetDefault("monitoring.port", 8080)
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
}
