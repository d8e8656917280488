// Package confloader loads meshkv configuration with koanf.
//
// Priority (highest to lowest):
//
//  1. Overrides (command-line flags)
//  2. Environment variables (MESHKV_ prefix, "__" between levels)
//  3. YAML configuration file
//  4. Defaults already present in the target struct
//
// Watcher reports edits to the configuration file so the server can
// apply the settings that are safe to change at runtime.
package confloader
