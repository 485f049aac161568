package config

import (
	"fmt"

	"github.com/caarlos0/env/v6"
)

// ChatwootConfig reúne os dados de conexão com a conta do Chatwoot.
type ChatwootConfig struct {
	BaseURL   string `env:"CHATWOOT_BASE_URL,required"`
	AccountID int    `env:"CHATWOOT_ACCOUNT_ID,required"`
	InboxID   int    `env:"CHATWOOT_INBOX_ID,required"`
	APIToken  string `env:"CHATWOOT_API_TOKEN,required"`
	SourceID  string `env:"CHATWOOT_SOURCE_ID" envDefault:"Squarespace"`
}

// Config é a configuração completa do relay. Imutável depois de Load.
type Config struct {
	Port     int `env:"PORT" envDefault:"8080"`
	Chatwoot ChatwootConfig
}

// Load lê a configuração do ambiente e falha se algum valor obrigatório faltar.
func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	return &cfg, nil
}
