package cmd

import (
	"fmt"
	"os"
	"slices"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// applyProperties sets every flag of cmd that was not given on the command
// line from the YAML mapping in path. Keys are flag names.
func applyProperties(cmd *cobra.Command, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return usageErrorf("failed to read properties file: %v", err)
	}
	var props map[string]string
	if err := yaml.Unmarshal(data, &props); err != nil {
		return usageErrorf("failed to parse properties file %s: %v", path, err)
	}

	keys := make([]string, 0, len(props))
	for k := range props {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	flags := cmd.Flags()
	for _, key := range keys {
		if key == "properties-file" {
			return usageErrorf("%s: properties-file cannot be set from a properties file", path)
		}
		if flags.Lookup(key) == nil {
			return usageErrorf("%s: unknown property %q", path, key)
		}
		if flags.Changed(key) {
			continue
		}
		if err := flags.Set(key, props[key]); err != nil {
			return &usageError{err: fmt.Errorf("%s: invalid value for %s: %w", path, key, err)}
		}
	}
	return nil
}
