package config

import (
	"bytes"
	"os"

	pkgerrors "github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Load reads, defaults, and validates the configuration file at path.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to read config file %s", path)
	}
	return Parse(b)
}

// Parse decodes a configuration document. Unknown keys are rejected so
// misspelled options fail loudly instead of silently using a default.
func Parse(b []byte) (*Config, error) {
	conf := &Config{}

	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)
	if err := dec.Decode(conf); err != nil {
		return nil, pkgerrors.Wrap(err, "failed to decode config")
	}

	conf.applyDefaults()
	if err := conf.Validate(); err != nil {
		return nil, err
	}
	return conf, nil
}
