package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/mailadvisor/backend/internal/flagx"
	"github.com/mailadvisor/backend/internal/timex"
)

// JsonConfig is an intermediate DTO used only for reading JSON configuration
// files. It uses timex.Duration for interval fields, which allows parsing
// both string values such as "2h" and integer nanoseconds. After
// unmarshalling, its fields are copied into the runtime Config.
type JsonConfig struct {
	EndpointAddr                 string         `json:"endpoint_addr"`
	DatabaseDSN                  string         `json:"database_dsn"`
	SecretKey                    string         `json:"secret_key"`
	AccessTokenValidityDuration  timex.Duration `json:"access_token_validity_duration"`
	RefreshTokenValidityDuration timex.Duration `json:"refresh_token_validity_duration"`
	SignupBonus                  *int64         `json:"signup_bonus"`
	TossSecretKey                string         `json:"toss_secret_key"`
	TossAPIURL                   string         `json:"toss_api_url"`
	OpenAIAPIKey                 string         `json:"openai_api_key"`
	OpenAIAPIURL                 string         `json:"openai_api_url"`
	OpenAIModel                  string         `json:"openai_model"`
	PurchaseHistoryLimit         *int           `json:"purchase_history_limit"`
}

// parseJson loads configuration values from the JSON file named by the
// -c/-config flags into the provided Config. When no file is named, nothing
// is loaded. An unreadable or invalid file panics: a half-applied config is
// worse than a crash at boot.
func parseJson(config *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	c := &JsonConfig{}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	if c.EndpointAddr != "" {
		config.EndpointAddr = c.EndpointAddr
	}
	if c.DatabaseDSN != "" {
		config.DatabaseDSN = c.DatabaseDSN
	}
	if c.SecretKey != "" {
		config.SecretKey = c.SecretKey
	}
	if c.AccessTokenValidityDuration.Duration != 0 {
		config.AccessTokenValidityDuration = time.Duration(c.AccessTokenValidityDuration.Duration)
	}
	if c.RefreshTokenValidityDuration.Duration != 0 {
		config.RefreshTokenValidityDuration = time.Duration(c.RefreshTokenValidityDuration.Duration)
	}
	if c.SignupBonus != nil {
		config.SignupBonus = *c.SignupBonus
	}
	if c.TossSecretKey != "" {
		config.TossSecretKey = c.TossSecretKey
	}
	if c.TossAPIURL != "" {
		config.TossAPIURL = c.TossAPIURL
	}
	if c.OpenAIAPIKey != "" {
		config.OpenAIAPIKey = c.OpenAIAPIKey
	}
	if c.OpenAIAPIURL != "" {
		config.OpenAIAPIURL = c.OpenAIAPIURL
	}
	if c.OpenAIModel != "" {
		config.OpenAIModel = c.OpenAIModel
	}
	if c.PurchaseHistoryLimit != nil {
		config.PurchaseHistoryLimit = *c.PurchaseHistoryLimit
	}
}
