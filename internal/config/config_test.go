package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// mapLookup builds a LookupFunc from a plain map for tests.
func mapLookup(env map[string]string) LookupFunc {
	return func(key string) string {
		return env[key]
	}
}

// TestResolve_Defaults verifies that an empty environment produces the
// documented defaults and derived paths.
func TestResolve_Defaults(t *testing.T) {
	t.Parallel()

	s, err := Resolve(mapLookup(nil))
	require.NoError(t, err)

	require.Equal(t, DefaultWorkDir, s.WorkDir)
	require.Equal(t, DefaultSubPath, s.SubPath)
	require.Equal(t, DefaultNodeID, s.NodeID)
	require.Equal(t, DefaultName, s.Name)
	require.Equal(t, DefaultPort, s.Port)
	require.False(t, s.AutoAccess)
	require.False(t, s.HasMonitoring())

	// Every derived path lives under the working directory.
	for _, path := range []string{
		s.SubFile, s.ListFile, s.ServiceConfigFile, s.AgentConfigFile,
		s.BootLogFile, s.WebBinary, s.BotBinary, s.NpmBinary, s.PHPBinary,
	} {
		require.Equal(t, filepath.Clean(s.WorkDir), filepath.Dir(path))
	}

	require.Equal(t, filepath.Join(s.WorkDir, "sub.txt"), s.SubFile)
	require.Equal(t, filepath.Join(s.WorkDir, "boot.log"), s.BootLogFile)
}

// TestResolve_PortPriority checks SERVER_PORT wins over PORT and that both
// fall back to the default.
func TestResolve_PortPriority(t *testing.T) {
	t.Parallel()

	s, err := Resolve(mapLookup(map[string]string{
		EnvServerPort: "8080",
		EnvPort:       "9090",
	}))
	require.NoError(t, err)
	require.Equal(t, 8080, s.Port)

	s, err = Resolve(mapLookup(map[string]string{EnvPort: "9090"}))
	require.NoError(t, err)
	require.Equal(t, 9090, s.Port)

	// Empty counts as unset.
	s, err = Resolve(mapLookup(map[string]string{EnvServerPort: ""}))
	require.NoError(t, err)
	require.Equal(t, DefaultPort, s.Port)
}

// TestResolve_BadPort verifies a non-numeric port fails before any I/O.
func TestResolve_BadPort(t *testing.T) {
	t.Parallel()

	for _, bad := range []string{"abc", "-1", "0", "80x"} {
		_, err := Resolve(mapLookup(map[string]string{EnvPort: bad}))
		require.ErrorIs(t, err, errPortNotNumeric, "value %q", bad)
	}
}

// TestResolve_BadNodeID verifies a malformed UUID is rejected.
func TestResolve_BadNodeID(t *testing.T) {
	t.Parallel()

	_, err := Resolve(mapLookup(map[string]string{EnvNodeID: "not-a-uuid"}))
	require.Error(t, err)
}

// TestResolve_Monitoring checks the monitoring flag requires server and key.
func TestResolve_Monitoring(t *testing.T) {
	t.Parallel()

	s, err := Resolve(mapLookup(map[string]string{
		EnvNezhaServer: "monitor.example.com",
	}))
	require.NoError(t, err)
	require.False(t, s.HasMonitoring())

	s, err = Resolve(mapLookup(map[string]string{
		EnvNezhaServer: "monitor.example.com",
		EnvNezhaKey:    "secret",
	}))
	require.NoError(t, err)
	require.True(t, s.HasMonitoring())
}

// TestResolve_AutoAccess verifies the flag matches the string "true" in any
// casing and nothing else.
func TestResolve_AutoAccess(t *testing.T) {
	t.Parallel()

	for raw, want := range map[string]bool{
		"true":  true,
		"TRUE":  true,
		"True":  true,
		"1":     false,
		"false": false,
		"":      false,
	} {
		s, err := Resolve(mapLookup(map[string]string{EnvAutoAccess: raw}))
		require.NoError(t, err)
		require.Equal(t, want, s.AutoAccess, "value %q", raw)
	}
}
