package config

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"
)

// errors
var (
	ErrUnknownFormat = errors.New("unknown config format")
)

// LoadFile parse the config from the file of the path.
// .yaml and .yml files are decoded as yaml, everything else as toml.
func LoadFile(path string, v interface{}) error {
	file, err := os.Open(path)
	if err != nil {
		return errors.WithStack(err)
	}
	defer file.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return LoadYAMLReader(file, v)
	case ".toml", "":
		return LoadReader(file, v)
	default:
		return errors.Wrap(ErrUnknownFormat, path)
	}
}

// LoadString parse the config from the string
func LoadString(data string, v interface{}) error {
	return LoadReader(bytes.NewReader([]byte(data)), v)
}

// LoadReader parse the toml config from the reader
func LoadReader(r io.Reader, v interface{}) error {
	if _, err := toml.NewDecoder(r).Decode(v); err != nil {
		return errors.WithStack(err)
	}
	return nil
}

// LoadYAMLReader parse the yaml config from the reader
func LoadYAMLReader(r io.Reader, v interface{}) error {
	if err := yaml.NewDecoder(r).Decode(v); err != nil {
		return errors.WithStack(err)
	}
	return nil
}

// Duration is a time.Duration written as "10s" or "2m" in config files
type Duration struct {
	time.Duration
}

// UnmarshalText parses the duration string
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(strings.TrimSpace(string(text)))
	if err != nil {
		return errors.WithStack(err)
	}
	d.Duration = v
	return nil
}

// MarshalText returns the duration string
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// UnmarshalYAML parses the duration string
func (d *Duration) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var str string
	if err := unmarshal(&str); err != nil {
		return errors.WithStack(err)
	}
	return d.UnmarshalText([]byte(str))
}
