package config

import (
	"fmt"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	LogLevel string   `yaml:"log-level" env:"LOG_LEVEL" env-default:"info"`
	HTTPPort string   `yaml:"http-port" env:"HTTP_PORT" env-default:"9090"`
	Redis    Redis    `yaml:"redis"`
	Telegram Telegram `yaml:"telegram"`
	Game     Game     `yaml:"game"`
	Messages Messages `yaml:"messages"`
}

type Redis struct {
	Host string `yaml:"host" env:"REDIS_HOST" env-default:"localhost"`
	Port string `yaml:"port" env:"REDIS_PORT" env-default:"6379"`
}

type Telegram struct {
	BotToken        string        `yaml:"bot-token" env:"TELEGRAM_BOT_TOKEN" env-default:""`
	APIEndpoint     string        `yaml:"api-endpoint" env:"TELEGRAM_API_ENDPOINT" env-default:"https://api.telegram.org/bot%s/%s"`
	DeliveryTimeout time.Duration `yaml:"delivery-timeout" env-default:"10s"`
}

type Game struct {
	OpponentDelay time.Duration `yaml:"opponent-delay" env-default:"500ms"`
	AutoStart     bool          `yaml:"auto-start"`
}

// Messages are the texts sent to the player through the bot.
type Messages struct {
	Win  string `yaml:"win" env-default:"Победа! Промокод выдан:"`
	Loss string `yaml:"loss" env-default:"Проигрыш"`
}

// MustLoad - load all configurations in config.yml file.
func MustLoad(path string) *Config {
	config, err := Load(path)
	if err != nil {
		panic(err)
	}

	return config
}

func Load(path string) (*Config, error) {
	config := &Config{}

	if err := cleanenv.ReadConfig(path, config); err != nil {
		return nil, fmt.Errorf("unable to load config file: %w", err)
	}

	return config, nil
}

func (that *Redis) GetRedisAddr() string {
	if that.Host == "" || that.Port == "" {
		return ""
	}

	return fmt.Sprintf("%s:%s", that.Host, that.Port)
}
