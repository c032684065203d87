package plugin_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/chronopay-gateway/internal/plugin"
)

type fakePlugin struct {
	name       string
	installs   int
	uninstalls int
}

func (p *fakePlugin) SystemName() string                  { return p.name }
func (p *fakePlugin) Install(context.Context) error       { p.installs++; return nil }
func (p *fakePlugin) Uninstall(ctx context.Context) error { p.uninstalls++; return nil }

func TestRegistryRegisterAndLookup(t *testing.T) {
	t.Parallel()

	reg := plugin.NewRegistry()
	p := &fakePlugin{name: "Payments.ChronoPay"}
	require.NoError(t, reg.Register(p))
	require.Error(t, reg.Register(p), "duplicate system names are rejected")

	got, ok := reg.Lookup("Payments.ChronoPay")
	require.True(t, ok)
	require.NoError(t, got.Install(context.Background()))
	require.NoError(t, got.Uninstall(context.Background()))
	require.Equal(t, 1, p.installs)
	require.Equal(t, 1, p.uninstalls)

	_, ok = reg.Lookup("Payments.Other")
	require.False(t, ok)
}

func TestRegistryRejectsInvalidPlugins(t *testing.T) {
	t.Parallel()

	reg := plugin.NewRegistry()
	require.Error(t, reg.Register(nil))
	require.Error(t, reg.Register(&fakePlugin{name: ""}))
}
