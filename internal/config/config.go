package config

import (
	"fmt"
	"os"
	"strconv"
)

type Config struct {
	Env  string
	Port string

	APIBaseURL     string
	DepositAddress string
	NFTAddress     string
	ExplorerTxURL  string
	PageBaseURL    string
	ChannelInvite  string

	RedisURL  string
	RedisPass string
	RedisDB   int
}

func Load() (*Config, error) {
	cfg := &Config{
		Env:  getEnv("APP_ENV", "development"),
		Port: getEnv("PORT", "8080"),

		APIBaseURL:     getEnv("API_BASE_URL", "http://localhost:8000"),
		DepositAddress: os.Getenv("DEPOSIT_ADDRESS"),
		NFTAddress:     os.Getenv("NFT_ADDRESS"),
		ExplorerTxURL:  getEnv("EXPLORER_TX_URL", "https://testnet.monadexplorer.com/tx/"),
		PageBaseURL:    getEnv("PAGE_BASE_URL", "https://896484b61160.ngrok.app"),
		ChannelInvite:  os.Getenv("CHANNEL_INVITE_URL"),

		RedisURL:  getEnv("REDIS_URL", "localhost:6379"),
		RedisPass: os.Getenv("REDIS_PASS"),
	}

	if db := os.Getenv("REDIS_DB"); db != "" {
		n, err := strconv.Atoi(db)
		if err != nil {
			return nil, fmt.Errorf("invalid REDIS_DB: %v", err)
		}
		cfg.RedisDB = n
	}

	if cfg.DepositAddress == "" {
		return nil, fmt.Errorf("DEPOSIT_ADDRESS is required")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// ReferralLink builds the shareable link for a user id.
func (c *Config) ReferralLink(userID string) string {
	if userID == "" {
		return c.PageBaseURL
	}
	return fmt.Sprintf("%s/api/ref/%s", c.PageBaseURL, userID)
}
