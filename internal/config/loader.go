package config

import (
	"bytes"
	"errors"
	"io"

	"verdict/internal/fsys"
	"verdict/pkg/logging"

	"gopkg.in/yaml.v3"
)

// Load reads and decodes the configuration file at path.
func Load(fs fsys.FS, path string) (File, error) {
	data, err := fs.ReadFile(path)
	if err != nil {
		return File{}, NewConfigurationErrorWithDetails(path, "", ErrorTypeIO,
			"failed to read configuration", err.Error(), nil)
	}
	f, err := Decode(path, data)
	if err != nil {
		return File{}, err
	}
	logging.Debug("ConfigLoader", "Loaded configuration from %s (plugins: %v)", path, f.PluginKinds())
	return f, nil
}

// Decode decodes configuration content. Unknown keys are rejected. An empty
// document decodes to an empty File.
func Decode(path string, data []byte) (File, error) {
	var f File
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return File{}, nil
		}
		return File{}, parseError(path, err)
	}
	return f, nil
}
