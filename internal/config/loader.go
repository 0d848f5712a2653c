package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"basekit/pkg/base"
	"basekit/pkg/plugin"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// ErrUnsupportedFormat is returned for files that are neither YAML nor HCL
var ErrUnsupportedFormat = errors.New("unsupported config format")

// File is the decoded content of an options file
type File struct {
	// Class names the class the options are meant for. Informational only.
	Class      string         `yaml:"class"`
	Attributes map[string]any `yaml:"attributes"`
	Plugins    []string       `yaml:"plugins"`
}

// Loader reads options files and resolves plugin names through a registry
type Loader struct {
	registry *plugin.Registry
	logger   *zap.Logger
}

// NewLoader creates a new configuration loader
func NewLoader(registry *plugin.Registry, logger *zap.Logger) *Loader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Loader{
		registry: registry,
		logger:   logger.Named("config"),
	}
}

// Load reads an options file. The format is picked from the extension:
// .yaml and .yml are YAML, .hcl is HCL.
func (l *Loader) Load(path string) (*File, error) {
	l.logger.Debug("Loading options file", zap.String("path", path))

	var (
		file *File
		err  error
	)
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		file, err = l.loadYAML(path)
	case ".hcl":
		file, err = decodeHCLFile(path)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
	if err != nil {
		return nil, err
	}

	l.logger.Info("Options file loaded",
		zap.String("path", path),
		zap.String("class", file.Class),
		zap.Int("attributes", len(file.Attributes)),
		zap.Int("plugins", len(file.Plugins)))
	return file, nil
}

func (l *Loader) loadYAML(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read options file: %w", err)
	}

	var file File
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse options file %s: %w", path, err)
	}
	return &file, nil
}

// Options converts a decoded file into instance options. Every plugin name
// is created through the registry; all unknown names are reported together.
func (l *Loader) Options(file *File) (base.Options, error) {
	options := make(base.Options, len(file.Attributes)+1)
	for key, value := range file.Attributes {
		if key == base.PluginsKey {
			return nil, fmt.Errorf("%w: %q may not be set as an attribute", base.ErrReservedAttribute, key)
		}
		options[key] = value
	}

	if len(file.Plugins) == 0 {
		return options, nil
	}
	if l.registry == nil {
		return nil, fmt.Errorf("options name %d plugins but no registry is configured", len(file.Plugins))
	}

	entries, err := l.registry.CreateAll(file.Plugins...)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve plugins: %w", err)
	}

	options[base.PluginsKey] = entries
	return options, nil
}

// LoadOptions loads path and converts it to instance options
func (l *Loader) LoadOptions(path string) (*File, base.Options, error) {
	file, err := l.Load(path)
	if err != nil {
		return nil, nil, err
	}
	options, err := l.Options(file)
	if err != nil {
		return nil, nil, err
	}
	return file, options, nil
}
