package integration

import (
	"os"
	"path/filepath"
	"testing"

	"basekit/internal/config"
	"basekit/pkg/attr"
	"basekit/pkg/base"
	"basekit/pkg/plugin"
	"basekit/pkg/testutil"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/require"
)

// journalPlugin writes its hooks to the environment call log
type journalPlugin struct {
	name string
	log  *testutil.CallLog
}

func (p *journalPlugin) PluginInitializer(self *base.Instance) error {
	p.log.Record("plugin_init:" + p.name)
	return nil
}

func (p *journalPlugin) PluginDestructor(self *base.Instance) error {
	p.log.Record("plugin_destroy:" + p.name)
	return nil
}

// setupTest builds an environment with "journal" and "mirror" registered
// and a Panel class that records every lifecycle step in env.Calls.
func setupTest(t *testing.T) (*testutil.TestEnv, *base.Class, *config.Loader) {
	t.Helper()

	env, err := testutil.NewTestEnv()
	require.NoError(t, err)

	for _, name := range []string{"journal", "mirror"} {
		require.NoError(t, env.Registry.Register(plugin.Info{
			Name:    name,
			Factory: func() any { return &journalPlugin{name: name, log: &env.Calls} },
		}))
	}

	frame := &base.Ext{
		Name: "Frame",
		Init: func(*base.Instance) error {
			env.Calls.Record("extension_init:Frame")
			return nil
		},
		Destroy: func(*base.Instance) error {
			env.Calls.Record("extension_destroy:Frame")
			return nil
		},
	}

	panel, err := base.Base.Extend([]base.Extension{frame}, base.Members{
		"initializer": func(*base.Instance) error {
			env.Calls.Record("initializer")
			return nil
		},
		"destructor": func(*base.Instance) error {
			env.Calls.Record("destructor")
			return nil
		},
		"onSetTitle": func(_ *base.Instance, value any) error {
			env.Calls.Record("hook:title")
			return nil
		},
		"onSetRows": func(_ *base.Instance, value any) error {
			env.Calls.Record("hook:rows")
			return nil
		},
	}, base.StaticConfig{Name: "Panel", Attrs: []attr.Definition{
		{Key: "title", Default: "untitled"},
		{Key: "rows", Default: 1},
	}})
	require.NoError(t, err)

	return env, panel, config.NewLoader(env.Registry, env.Logger)
}

func writeOptions(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func metricValue(t *testing.T, reg *prometheus.Registry, name string, labels map[string]string) float64 {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)

	for _, family := range families {
		if family.GetName() != name {
			continue
		}
		for _, m := range family.GetMetric() {
			if !labelsMatch(m, labels) {
				continue
			}
			if m.GetCounter() != nil {
				return m.GetCounter().GetValue()
			}
			return m.GetGauge().GetValue()
		}
	}
	return 0
}

func labelsMatch(m *dto.Metric, labels map[string]string) bool {
	matched := 0
	for _, pair := range m.GetLabel() {
		if want, ok := labels[pair.GetName()]; ok {
			if want != pair.GetValue() {
				return false
			}
			matched++
		}
	}
	return matched == len(labels)
}
