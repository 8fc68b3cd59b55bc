package config

import (
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Server struct {
		Addr          string `mapstructure:"addr"`
		SessionBuffer int    `mapstructure:"session_buffer"`
	} `mapstructure:"server"`
	Database struct {
		URL string `mapstructure:"url"`
	} `mapstructure:"database"`
	History struct {
		ChatLimit    int `mapstructure:"chat_limit"`
		CommentLimit int `mapstructure:"comment_limit"`
	} `mapstructure:"history"`
}

// Load reads configuration from the environment (RADIO_ prefix, e.g.
// RADIO_DATABASE_URL) over built-in defaults. DATABASE url "memory" selects
// the in-process store.
func Load() (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("RADIO")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.session_buffer", 64)
	v.SetDefault("database.url", "memory")
	v.SetDefault("history.chat_limit", 50)
	v.SetDefault("history.comment_limit", 50)

	for _, key := range []string{
		"server.addr",
		"server.session_buffer",
		"database.url",
		"history.chat_limit",
		"history.comment_limit",
	} {
		if err := v.BindEnv(key); err != nil {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
