package config

import (
	"fmt"
	"strings"
	"sync"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

var (
	fileMu     sync.RWMutex
	fileConfig *koanf.Koanf
)

// loadConfigFile reads a flat YAML file whose keys are the lower-case
// environment variable names, e.g. `db_host: localhost`.
func loadConfigFile(path string) error {
	fileMu.Lock()
	defer fileMu.Unlock()

	if strings.TrimSpace(path) == "" {
		fileConfig = nil
		return nil
	}

	k := koanf.New(".")
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return fmt.Errorf("failed to load config file %s: %w", path, err)
	}
	fileConfig = k
	return nil
}

func fileValue(key string) (string, bool) {
	fileMu.RLock()
	defer fileMu.RUnlock()

	if fileConfig == nil {
		return "", false
	}
	name := strings.ToLower(key)
	if !fileConfig.Exists(name) {
		return "", false
	}
	if values := fileConfig.Strings(name); len(values) > 0 {
		return strings.Join(values, ","), true
	}
	value := fileConfig.String(name)
	return value, value != ""
}
