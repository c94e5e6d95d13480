package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
)

// Secrets are credentials taken from the environment, never from config.yaml.
type Secrets struct {
	SMTPUsername   string `env:"LABOURCHECK_SMTP_USERNAME"`
	SMTPPassword   string `env:"LABOURCHECK_SMTP_PASSWORD"`
	SMSToken       string `env:"LABOURCHECK_SMS_TOKEN"`
	S3Key          string `env:"LABOURCHECK_S3_KEY"`
	S3Secret       string `env:"LABOURCHECK_S3_SECRET"`
	TrackingSecret string `env:"LABOURCHECK_TRACKING_SECRET"`
	DiscordToken   string `env:"LABOURCHECK_DISCORD_TOKEN"`
	MySQLDSN       string `env:"LABOURCHECK_MYSQL_DSN"`
}

// LoadSecrets reads secrets from the environment after loading envFile, if it exists.
// Variables already set in the process environment win over the file.
func LoadSecrets(envFile string) (Secrets, error) {
	if envFile != "" {
		if _, err := os.Stat(envFile); err == nil {
			if err := godotenv.Load(envFile); err != nil {
				return Secrets{}, fmt.Errorf("load env file %s: %w", envFile, err)
			}
		} else if !errors.Is(err, os.ErrNotExist) {
			return Secrets{}, fmt.Errorf("stat env file %s: %w", envFile, err)
		}
	}

	var s Secrets
	if err := env.Parse(&s); err != nil {
		return Secrets{}, fmt.Errorf("parse secrets: %w", err)
	}
	return s, nil
}
