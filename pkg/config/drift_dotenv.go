package config

import (
	"os"

	"github.com/apex/log"
)

// MustLoadFromDriftDotenv loads the dotenv file named by DRIFT_DOTENV_PATH and
// installs it as the package level configer. The daemons call this once at
// startup; a missing or unreadable file is fatal.
func MustLoadFromDriftDotenv() Configer {
	dotenvFilePath := os.Getenv("DRIFT_DOTENV_PATH")
	if dotenvFilePath == "" {
		log.Fatalf("DRIFT_DOTENV_PATH not set or blank")
	}

	c := NewDotenvConfig(dotenvFilePath)
	if err := c.Load(); err != nil {
		log.Fatalf("Failed loading configuration file %s: %s", dotenvFilePath, err)
	}

	SetConfig(c)
	return c
}
