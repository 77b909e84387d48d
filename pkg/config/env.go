package config

import (
	"os"

	"github.com/joho/godotenv"
)

// LoadDotEnv loads .env files into the process environment. Explicit
// paths are tried first, then .env in the working directory. Missing
// files are not an error.
func LoadDotEnv(paths ...string) error {
	for _, path := range paths {
		if path == "" {
			continue
		}
		if err := loadIfExists(path); err != nil {
			return err
		}
	}
	return loadIfExists(".env")
}

func loadIfExists(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}
	return godotenv.Load(path)
}
