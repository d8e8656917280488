package config

import "path/filepath"

// Sanitize returns a copy of the config that is safe to log. Key file
// paths are reduced to their base name.
func Sanitize(cfg *ServerConfig) *ServerConfig {
	sanitized := *cfg
	if sanitized.Server.Redis.TLSKeyFile != "" {
		sanitized.Server.Redis.TLSKeyFile = ".../" + filepath.Base(sanitized.Server.Redis.TLSKeyFile)
	}
	return &sanitized
}
