package state_test

import (
	"fmt"
	"io/ioutil"
	"path/filepath"
	"testing"
	"time"

	"github.com/kilnworks/ovenpanel/hardware/input"
	"github.com/kilnworks/ovenpanel/internal/state"
	state_new "github.com/kilnworks/ovenpanel/internal/state/new"
	"github.com/kilnworks/ovenpanel/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testCatalog = `[{"name":"bisque","data":[[0,20],[3600,950]]},{"name":"glaze","data":[[0,20],[7200,1220]]}]`

func TestLoadCatalogFile(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	path := filepath.Join(dir, "profiles.json")
	require.NoError(t, ioutil.WriteFile(path, []byte(testCatalog), 0o644))
	c, err := state.LoadCatalogFile(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"bisque", "glaze"}, c.Names())

	_, err = state.LoadCatalogFile(filepath.Join(dir, "missing.json"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing.json")
}

func TestGlobalInit(t *testing.T) {
	t.Parallel()
	_, g := state_new.NewTestContext(t, "test", `ui { display_timeout_sec = 30 }`)
	d, err := g.Display()
	require.NoError(t, err)
	assert.Equal(t, 320, d.Size().X)
	o, err := g.Oven()
	require.NoError(t, err)
	assert.NotNil(t, o)
	ctl := g.MustUI()
	require.NoError(t, ctl.Splash())
	assert.Equal(t, []string{"Initialising..."}, d.Lines())
	assert.Equal(t, 1.0, d.Backlight())
}

func TestGlobalStartSim(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	path := filepath.Join(dir, "profiles.json")
	require.NoError(t, ioutil.WriteFile(path, []byte(testCatalog), 0o644))
	config := fmt.Sprintf(`
oven { driver = "sim" sim { catalog_file = %q } }
hardware { buttons { debounce_ms = 100 } }
ui { tick_ms = 20 }`, path)
	ctx, g := state_new.NewTestContext(t, "test", config)
	src := input.NewChanSource("test", g.Alive.StopChan())
	require.NoError(t, g.Start(ctx, src))

	d, err := g.Display()
	require.NoError(t, err)
	require.Eventually(t, func() bool {
		lines := d.Lines()
		return len(lines) == 4 && lines[3] == "IDLE"
	}, 5*time.Second, 20*time.Millisecond, "idle run screen")

	// catalog and button go through separate channels, press until selection shows
	require.Eventually(t, func() bool {
		src.Press(types.ButtonB)
		lines := d.Lines()
		return len(lines) >= 3 && lines[2] != "No Programme"
	}, 5*time.Second, 150*time.Millisecond, "profile selected")
	assert.Contains(t, []string{"bisque", "glaze"}, d.Lines()[2])

	assert.True(t, g.StopWait(5*time.Second))
}
