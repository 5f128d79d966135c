package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSnapshot(t *testing.T) {
	t.Parallel()

	type Case struct {
		name  string
		input string
		check func(testing.TB, Snapshot)
	}
	cases := []Case{
		{"malformed", `{'cost': 0}`, nil},
		{"idle",
			`{"cost": 0, "runtime": 0, "temperature": 23.17, "target": 0, "state": "IDLE", "heat": 0, "totaltime": 0, "kwh_rate": 0.33631, "currency_type": "£", "profile": null, "pidstats": {}}`,
			func(t testing.TB, s Snapshot) {
				assert.Equal(t, StateIdle, s.State)
				require.NotNil(t, s.Temperature)
				assert.Equal(t, 23.17, *s.Temperature)
				assert.Nil(t, s.Profile)
				assert.Equal(t, "", s.ProfileName())
			}},
		{"running",
			`{"runtime": 829, "temperature": 100.5, "target": 101, "state": "RUNNING", "heat": 1.0, "totaltime": 3600, "profile": "test-200-250"}`,
			func(t testing.TB, s Snapshot) {
				assert.Equal(t, StateRunning, s.State)
				assert.Equal(t, 1.0, s.Heat)
				assert.Equal(t, "test-200-250", s.ProfileName())
				left, ok := s.Remaining()
				assert.True(t, ok)
				assert.Equal(t, float64(2771), left)
			}},
		{"unknown-state",
			`{"temperature": null, "target": null, "state": "WARMING"}`,
			func(t testing.TB, s Snapshot) {
				assert.Equal(t, StateUninitialized, s.State)
				assert.Equal(t, "WARMING", s.StateText)
				assert.Nil(t, s.Temperature)
				_, ok := s.Remaining()
				assert.False(t, ok)
			}},
	}
	for _, c := range cases {
		c := c
		t.Run(c.name, func(t *testing.T) {
			s, err := ParseSnapshot([]byte(c.input))
			if c.check == nil {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			c.check(t, s)
		})
	}
}

func TestParseButton(t *testing.T) {
	t.Parallel()

	for _, b := range Buttons {
		parsed, err := ParseButton(b.String())
		require.NoError(t, err)
		assert.Equal(t, b, parsed)
	}
	parsed, err := ParseButton(" x ")
	require.NoError(t, err)
	assert.Equal(t, ButtonX, parsed)
	_, err = ParseButton("z")
	assert.Error(t, err)
}
