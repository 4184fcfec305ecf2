package config

import (
	"errors"
	"io/fs"
	"os"

	"gopkg.in/yaml.v3"
)

type HTTP struct {
	Port int `yaml:"port"`
}

type Telegram struct {
	BotToken       string `yaml:"bot_token"`
	ChannelID      string `yaml:"channel_id"`
	APIBaseURL     string `yaml:"api_base_url"`
	UseWebhook     bool   `yaml:"use_webhook"`
	WebhookBaseURL string `yaml:"webhook_base_url"`
}

type Redis struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type RabbitMQ struct {
	Enable   bool   `yaml:"enable"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	VHost    string `yaml:"vhost"`
	Queue    string `yaml:"queue"`
}

type App struct {
	HTTP     HTTP     `yaml:"http"`
	Telegram Telegram `yaml:"telegram"`
	Redis    Redis    `yaml:"redis"`
	RabbitMQ RabbitMQ `yaml:"rabbitmq"`
}

func Load(path string) (App, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return App{}, err
	}
	var a App
	if err := yaml.Unmarshal(b, &a); err != nil {
		return App{}, err
	}
	if a.Telegram.BotToken == "" {
		return App{}, errors.New("invalid config: telegram.bot_token is required")
	}
	if a.HTTP.Port == 0 {
		a.HTTP.Port = 5689
	}
	if a.Telegram.APIBaseURL == "" {
		a.Telegram.APIBaseURL = "https://api.telegram.org"
	}
	if a.Redis.Addr == "" {
		a.Redis.Addr = "localhost:6379"
	}
	if a.RabbitMQ.Host == "" {
		a.RabbitMQ.Host = "localhost"
	}
	if a.RabbitMQ.Port == 0 {
		a.RabbitMQ.Port = 5672
	}
	if a.RabbitMQ.VHost == "" {
		a.RabbitMQ.VHost = "/"
	}
	if a.RabbitMQ.Queue == "" {
		a.RabbitMQ.Queue = "order_delivery_states"
	}
	return a, nil
}

func FindConfig() (string, error) {
	candidates := []string{"config.yaml", "deploy/config.example.yaml"}
	for _, p := range candidates {
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}
	return "", fs.ErrNotExist
}
