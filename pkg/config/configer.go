// Package config is driftd's configuration access. All DRIFT_* settings flow
// through a Configer so tests can swap the dotenv-backed default for an
// in-memory map.
package config

// Configer reads string and int settings by key. The Must variants exit the
// process when a key is missing, which is how the daemon treats required
// settings at startup.
type Configer interface {
	LoadFromPath(path string) error
	Load() error
	GetKey(key string) string
	MustGetKey(key string) string
	GetKeyWithDefault(key, defaultValue string) string
	GetIntKey(key string) int
	MustGetIntKey(key string) int
	GetIntKeyWithDefault(key string, defaultValue int) int
}
