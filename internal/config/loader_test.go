package config

import (
	"os"
	"path/filepath"
	"testing"

	"basekit/pkg/base"
	"basekit/pkg/plugin"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type namedPlugin struct{ name string }

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func newTestLoader(t *testing.T) *Loader {
	t.Helper()
	registry := plugin.NewRegistry(zap.NewNop())
	for _, name := range []string{"audit", "counter"} {
		require.NoError(t, registry.Register(plugin.Info{
			Name:    name,
			Factory: func() any { return &namedPlugin{name: name} },
		}))
	}
	return NewLoader(registry, zap.NewNop())
}

const yamlOptions = `class: Button
attributes:
  label: OK
  width: 3
  ratio: 0.5
  enabled: true
plugins:
  - audit
  - counter
`

const hclOptions = `
class = "Button"

attributes = {
  label   = "OK"
  width   = 3
  ratio   = 0.5
  enabled = true
}

plugins = ["audit", "counter"]
`

func TestLoader_Formats(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name string
		path string
	}{
		{name: "yaml", path: writeFile(t, dir, "button.yaml", yamlOptions)},
		{name: "yml", path: writeFile(t, dir, "button.yml", yamlOptions)},
		{name: "hcl", path: writeFile(t, dir, "button.hcl", hclOptions)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loader := newTestLoader(t)

			file, err := loader.Load(tt.path)
			require.NoError(t, err)
			assert.Equal(t, "Button", file.Class)
			assert.Equal(t, map[string]any{
				"label":   "OK",
				"width":   3,
				"ratio":   0.5,
				"enabled": true,
			}, file.Attributes)
			assert.Equal(t, []string{"audit", "counter"}, file.Plugins)
		})
	}
}

func TestLoader_Options(t *testing.T) {
	loader := newTestLoader(t)
	path := writeFile(t, t.TempDir(), "button.yaml", yamlOptions)

	file, options, err := loader.LoadOptions(path)
	require.NoError(t, err)
	assert.Equal(t, "Button", file.Class)
	assert.Equal(t, "OK", options["label"])

	entries, ok := options[base.PluginsKey].([]plugin.Entry)
	require.True(t, ok)
	require.Len(t, entries, 2)
	assert.Equal(t, "audit", entries[0].ID)
	assert.Equal(t, "counter", entries[1].ID)
	assert.Equal(t, "counter", entries[1].Plugin.(*namedPlugin).name)

	// Every load builds fresh plugins
	_, again, err := loader.LoadOptions(path)
	require.NoError(t, err)
	assert.NotSame(t, entries[0].Plugin, again[base.PluginsKey].([]plugin.Entry)[0].Plugin)
}

func TestLoader_OptionsWithoutPlugins(t *testing.T) {
	loader := NewLoader(nil, nil)
	options, err := loader.Options(&File{Attributes: map[string]any{"a": 1}})
	require.NoError(t, err)
	assert.Equal(t, base.Options{"a": 1}, options)
}

func TestLoader_OptionsErrors(t *testing.T) {
	loader := newTestLoader(t)

	t.Run("unknown plugins are all reported", func(t *testing.T) {
		_, err := loader.Options(&File{Plugins: []string{"ghost", "audit", "phantom"}})
		require.Error(t, err)
		assert.ErrorIs(t, err, plugin.ErrPluginNotFound)
		assert.Contains(t, err.Error(), "ghost")
		assert.Contains(t, err.Error(), "phantom")
	})

	t.Run("reserved attribute", func(t *testing.T) {
		_, err := loader.Options(&File{Attributes: map[string]any{base.PluginsKey: []any{}}})
		assert.ErrorIs(t, err, base.ErrReservedAttribute)
	})

	t.Run("plugins without registry", func(t *testing.T) {
		_, err := NewLoader(nil, nil).Options(&File{Plugins: []string{"audit"}})
		assert.Error(t, err)
	})
}

func TestLoader_LoadErrors(t *testing.T) {
	dir := t.TempDir()
	loader := newTestLoader(t)

	tests := []struct {
		name    string
		path    string
		wantErr string
	}{
		{name: "missing file", path: filepath.Join(dir, "missing.yaml"), wantErr: "failed to read"},
		{name: "unsupported extension", path: writeFile(t, dir, "options.json", "{}"), wantErr: "unsupported config format"},
		{name: "invalid yaml", path: writeFile(t, dir, "bad.yaml", "attributes: [unclosed"), wantErr: "failed to parse"},
		{name: "invalid hcl", path: writeFile(t, dir, "bad.hcl", "attributes = {"), wantErr: "failed to parse HCL"},
		{name: "unknown hcl field", path: writeFile(t, dir, "extra.hcl", `colour = "red"`), wantErr: "failed to decode HCL"},
		{name: "hcl attributes not an object", path: writeFile(t, dir, "scalar.hcl", `attributes = "x"`), wantErr: "must be an object"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := loader.Load(tt.path)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestCtyValueToInterface_Nested(t *testing.T) {
	path := writeFile(t, t.TempDir(), "nested.hcl", `
attributes = {
  size  = { w = 2, h = 1.5 }
  tags  = ["a", "b"]
  empty = null
}
`)
	file, err := newTestLoader(t).Load(path)
	require.NoError(t, err)

	assert.Equal(t, map[string]any{"w": 2, "h": 1.5}, file.Attributes["size"])
	assert.Equal(t, []any{"a", "b"}, file.Attributes["tags"])
	assert.Nil(t, file.Attributes["empty"])
	assert.Contains(t, file.Attributes, "empty")
}
