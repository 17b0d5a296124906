package config

import (
	"os"
	"path/filepath"
	"testing"

	"deedles.dev/kawabg/internal/bg"
	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func isolate(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	for _, key := range []string{"LOG_LEVEL", "FILTER", "NAMESPACE", "SOCKET"} {
		t.Setenv(envPrefix+"_"+key, "")
		os.Unsetenv(envPrefix + "_" + key)
	}
	return dir
}

func load(t *testing.T, args ...string) (*Config, error) {
	t.Helper()

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	AddFlags(flags)
	require.NoError(t, flags.Parse(args))

	v, err := New(flags)
	require.NoError(t, err)
	return Load(v)
}

func TestLoadDefaults(t *testing.T) {
	isolate(t)

	config, err := load(t)
	require.NoError(t, err)

	def := Default()
	assert.Equal(t, &def, config)
	assert.Equal(t, logrus.InfoLevel, config.Level())
	assert.Equal(t, bg.FilterBilinear, config.ScaleFilter())
}

func TestLoadEnv(t *testing.T) {
	isolate(t)
	t.Setenv("KAWABG_LOG_LEVEL", "debug")
	t.Setenv("KAWABG_NAMESPACE", "background")

	config, err := load(t)
	require.NoError(t, err)
	assert.Equal(t, logrus.DebugLevel, config.Level())
	assert.Equal(t, "background", config.Namespace)
}

func TestLoadFlagsOverrideEnv(t *testing.T) {
	isolate(t)
	t.Setenv("KAWABG_FILTER", "catmull-rom")

	config, err := load(t, "--filter=nearest", "--socket=wayland-9")
	require.NoError(t, err)
	assert.Equal(t, bg.FilterNearest, config.ScaleFilter())
	assert.Equal(t, "wayland-9", config.Socket)
}

func TestLoadFile(t *testing.T) {
	dir := isolate(t)

	path := filepath.Join(dir, configDirName, configFileName+"."+configFileType)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte("filter: catmull-rom\nlog-level: warn\n"), 0644))

	config, err := load(t)
	require.NoError(t, err)
	assert.Equal(t, bg.FilterCatmullRom, config.ScaleFilter())
	assert.Equal(t, logrus.WarnLevel, config.Level())
}

func TestLoadInvalid(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"LogLevel", []string{"--log-level=loud"}},
		{"Filter", []string{"--filter=lanczos"}},
		{"Namespace", []string{"--namespace= "}},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			isolate(t)

			_, err := load(t, test.args...)
			assert.Error(t, err)
		})
	}
}

func TestValidateNil(t *testing.T) {
	assert.Error(t, Validate(nil))
}
