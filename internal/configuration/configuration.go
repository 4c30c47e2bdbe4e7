// Package configuration reads and validates the configuration of the device,
// which is kept in a Unix-type KEY=value file.
package configuration

import (
	"strings"
)

type genericConfigProvider interface {
	Read(filenames ...string) (envMap map[string]string, err error)
}

// ConfigProviderImpl reads configuration files through a generic provider and
// maps their keys into typed values.
type ConfigProviderImpl struct {
	GenericConfigReader genericConfigProvider
}

func (c *ConfigProviderImpl) ReadGeneric(filenames ...string) (envMap map[string]string, err error) {
	return c.GenericConfigReader.Read(filenames...)
}

func (c *ConfigProviderImpl) MapKeyToString(envMap map[string]string, key string) string {
	if value, exists := envMap[key]; exists {
		return value
	}
	return ""
}

// MapPrefixToMap collects all keys starting with prefix (case-insensitive)
// into a map, keyed by the upper-cased remainder of the key.
func (c *ConfigProviderImpl) MapPrefixToMap(envMap map[string]string, prefix string) map[string]string {
	values := make(map[string]string)
	for key, value := range envMap {
		if rest, ok := strings.CutPrefix(strings.ToUpper(key), strings.ToUpper(prefix)); ok {
			values[rest] = value
		}
	}
	return values
}
