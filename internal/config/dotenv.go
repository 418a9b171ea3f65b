package config

import (
	"os"

	"github.com/joho/godotenv"
)

// loadDotEnvFiles loads each existing dotenv file in order. godotenv never
// overrides variables already set in the process environment, so real env
// always wins and .env.local wins over .env.
func loadDotEnvFiles(paths ...string) {
	for _, path := range paths {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		_ = godotenv.Load(path)
	}
}
