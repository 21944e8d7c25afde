package tutil

import (
	"os"
	"strings"
)

func IsIntegrationTest() bool {
	testType := os.Getenv("DRIFT_TEST")
	return strings.ToLower(testType) == "integration"
}
