package config

import (
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
)

const (
	// ArborDir is the name of the arbor configuration directory.
	ArborDir = ".arbor"
	// EnvFileName is the name of the environment variables file.
	EnvFileName = ".env"
)

// LoadDotEnv loads environment variables from .arbor/.env under baseDir if
// it exists. godotenv.Load never overrides variables already present in
// the environment, so the process env keeps priority. A missing file is
// not an error.
func LoadDotEnv(baseDir string) error {
	envPath := filepath.Join(baseDir, ArborDir, EnvFileName)

	if _, err := os.Stat(envPath); os.IsNotExist(err) {
		return nil
	}

	return godotenv.Load(envPath)
}

// LoadDotEnvFromCwd loads .arbor/.env from the current working directory.
func LoadDotEnvFromCwd() error {
	cwd, err := os.Getwd()
	if err != nil {
		return err
	}

	return LoadDotEnv(cwd)
}
