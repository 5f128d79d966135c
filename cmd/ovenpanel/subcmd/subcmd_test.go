package subcmd

import (
	"context"
	"testing"

	"github.com/kilnworks/ovenpanel/internal/state"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	t.Parallel()
	noop := func(context.Context, *state.Config) error { return nil }
	modules := []Mod{{Name: "panel", Main: noop}, {Name: "sim", Main: noop}}

	m, err := Parse("sim", modules)
	require.NoError(t, err)
	assert.Equal(t, "sim", m.Name)

	_, err = Parse("", modules)
	assert.EqualError(t, err, "empty command")
	_, err = Parse("vmc", modules)
	assert.EqualError(t, err, "unknown command='vmc' valid: panel, sim")

	assert.Panics(t, func() { _, _ = Parse("x", []Mod{{Main: noop}}) })
}
