package config

import "os"

// parseEnv overlays configuration values from environment variables. The
// names match the ones the deployment already exports (JWT_SECRET,
// TOSS_SECRET_KEY, ...), so an existing environment keeps working.
func parseEnv(config *Config) {
	if v, ok := os.LookupEnv("ADDRESS"); ok {
		config.EndpointAddr = v
	}
	if v, ok := os.LookupEnv("DATABASE_DSN"); ok {
		config.DatabaseDSN = v
	}
	if v, ok := os.LookupEnv("JWT_SECRET"); ok {
		config.SecretKey = v
	}
	if v, ok := os.LookupEnv("TOSS_SECRET_KEY"); ok {
		config.TossSecretKey = v
	}
	if v, ok := os.LookupEnv("TOSS_API_URL"); ok {
		config.TossAPIURL = v
	}
	if v, ok := os.LookupEnv("OPENAI_API_KEY"); ok {
		config.OpenAIAPIKey = v
	}
	if v, ok := os.LookupEnv("OPENAI_API_URL"); ok {
		config.OpenAIAPIURL = v
	}
	if v, ok := os.LookupEnv("OPENAI_MODEL"); ok {
		config.OpenAIModel = v
	}
}
