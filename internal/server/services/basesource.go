package services

import (
	"os"
	"slices"
	"strings"
)

// BaseSource is the secondary configuration consulted by
// SecretConfigService.Get when the cache has no entry.
type BaseSource interface {
	Lookup(key string) (string, bool)
}

// EnvSource reads the process environment. Keys are upper-cased, dots and
// dashes become underscores, and Prefix is prepended, so "stripe.api-key"
// with Prefix "LIVEDESK_CFG_" reads LIVEDESK_CFG_STRIPE_API_KEY.
//
// Variables listed in Reserved are never returned. The server passes its
// own settings there so the master key, signing secret and connection
// credentials cannot be read back as config entries.
type EnvSource struct {
	Prefix   string
	Reserved []string
}

var envKeyReplacer = strings.NewReplacer(".", "_", "-", "_")

func (s EnvSource) Lookup(key string) (string, bool) {
	name := s.Prefix + strings.ToUpper(envKeyReplacer.Replace(key))
	if slices.Contains(s.Reserved, name) {
		return "", false
	}
	return os.LookupEnv(name)
}

// MapSource is a fixed in-memory source.
type MapSource map[string]string

func (m MapSource) Lookup(key string) (string, bool) {
	v, ok := m[key]
	return v, ok
}
