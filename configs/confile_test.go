package configs

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeProfile(t *testing.T, body string) string {
	t.Helper()
	fpath := filepath.Join(t.TempDir(), DefaultProfile)
	require.NoError(t, os.WriteFile(fpath, []byte(body), 0o644))
	return fpath
}

func TestTemplateParses(t *testing.T) {
	fpath := filepath.Join(t.TempDir(), DefaultProfile)
	require.NoError(t, WriteTemplate(fpath))
	c, err := Parse(fpath)
	require.NoError(t, err)
	assert.Equal(t, 2048, c.Protocol.SecurityBits)
	assert.Equal(t, "paillier", c.Protocol.Scheme)
	assert.Equal(t, 0, c.Protocol.Workers)
	assert.Equal(t, "./psm-data", c.Store.Path)
	assert.Equal(t, "info", c.Log.Level)
}

func TestPartialProfile(t *testing.T) {
	c, err := Parse(writeProfile(t, "protocol:\n  security_bits: 1024\n  scheme: dj\n"))
	require.NoError(t, err)
	assert.Equal(t, 1024, c.Protocol.SecurityBits)
	assert.Equal(t, "dj", c.Protocol.Scheme)
	assert.Equal(t, 32, c.Store.Handles)
}

func TestInvalidProfiles(t *testing.T) {
	tests := map[string]string{
		"small key":   "protocol:\n  security_bits: 256\n",
		"bad scheme":  "protocol:\n  scheme: rsa\n",
		"neg workers": "protocol:\n  workers: -1\n",
		"empty store": "store:\n  path: \"\"\n",
		"bad level":   "log:\n  level: loud\n",
		"not yaml":    "protocol: [",
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Parse(writeProfile(t, body))
			assert.Error(t, err)
		})
	}

	_, err := Parse(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
	_, err = Parse(t.TempDir())
	assert.Error(t, err)
}

func TestDefaultWithEnv(t *testing.T) {
	t.Setenv("PSM_PROTOCOL_SECURITY_BITS", "3072")
	c, err := Default()
	require.NoError(t, err)
	assert.Equal(t, 3072, c.Protocol.SecurityBits)
}
