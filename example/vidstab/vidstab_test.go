package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	vidstab "github.com/swdee/go-vidstab"
	"github.com/swdee/go-vidstab/trajectory"
)

func env(vars map[string]string) func(string) string {
	return func(k string) string { return vars[k] }
}

func TestParseFlags(t *testing.T) {

	c, err := parseFlags([]string{"-i", "a.mp4", "-o", "b.mp4", "c.mp4=d.mp4"}, env(nil))
	require.NoError(t, err)
	assert.Equal(t, []vidstab.Job{
		{Input: "a.mp4", Output: "b.mp4"},
		{Input: "c.mp4", Output: "d.mp4"},
	}, c.jobs)
	assert.Equal(t, 1, c.workers)

	c, err = parseFlags([]string{"x=y"}, env(map[string]string{
		"VIDSTAB_PRESET": "gimbal",
		"VIDSTAB_CODECS": "MJPG",
	}))
	require.NoError(t, err)
	assert.Equal(t, "gimbal", c.preset)
	assert.Equal(t, "MJPG", c.codecs)

	// flags win over the environment
	c, err = parseFlags([]string{"-p", "smart", "x=y"}, env(map[string]string{"VIDSTAB_PRESET": "gimbal"}))
	require.NoError(t, err)
	assert.Equal(t, "smart", c.preset)

	tests := []struct {
		name string
		args []string
		msg  string
	}{
		{"no input", nil, "no input"},
		{"missing output", []string{"-i", "a.mp4"}, "both -i and -o"},
		{"bad job", []string{"a.mp4"}, "input=output"},
		{"plot many", []string{"-plot", "p.png", "a=b", "c=d"}, "single input"},
		{"workers", []string{"-w", "0", "a=b"}, "workers"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseFlags(tt.args, env(nil))
			assert.ErrorContains(t, err, tt.msg)
		})
	}
}

func TestConfigParams(t *testing.T) {

	p, err := config{}.params()
	require.NoError(t, err)
	assert.Equal(t, vidstab.DefaultParams(), p)

	p, err = config{preset: "gimbal", codecs: " mp4v, MJPG ,", plot: "p.png"}.params()
	require.NoError(t, err)
	assert.Equal(t, vidstab.StrategyMatch, p.Strategy)
	assert.Equal(t, []string{"mp4v", "MJPG"}, p.Codecs)
	assert.True(t, p.KeepTrajectory)

	file := filepath.Join(t.TempDir(), "params.json")
	require.NoError(t, os.WriteFile(file, []byte(`{"kernel": "gaussian", "radius": 10}`), 0o600))

	p, err = config{preset: "gimbal", file: file}.params()
	require.NoError(t, err)
	assert.Equal(t, trajectory.KernelGaussian, p.Kernel)
	assert.Equal(t, 10, p.Radius)

	_, err = config{preset: "nope"}.params()
	assert.Error(t, err)

	_, err = config{codecs: "h264x"}.params()
	assert.ErrorContains(t, err, "invalid params")
}
