package server

import "os"

// Config holds service configuration.
type Config struct {
	HTTPAddr        string
	MetricsAddr     string
	DataDir         string
	LedgerEndpoint  string
	ContractAddress string
	SigningKey      string
}

// LoadConfig reads environment variables and returns a Config. An empty
// DataDir selects the in-memory store; an incomplete ledger triple puts the
// integrity logger in fallback-only mode.
func LoadConfig() *Config {
	return &Config{
		HTTPAddr:        getEnv("TW_HTTP_ADDR", ":8080"),
		MetricsAddr:     getEnv("TW_METRICS_ADDR", ":9090"),
		DataDir:         getEnv("TW_DATA_DIR", ""),
		LedgerEndpoint:  getEnv("TW_LEDGER_ENDPOINT", ""),
		ContractAddress: getEnv("TW_CONTRACT_ADDRESS", ""),
		SigningKey:      getEnv("TW_SIGNING_KEY", ""),
	}
}

func getEnv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
