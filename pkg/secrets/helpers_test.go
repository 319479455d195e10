package secrets

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnvManager_GetSecret(t *testing.T) {
	t.Setenv("AUTOPUBLISHER_TEST_SECRET", "from-env")

	m := NewEnvManager()
	value, err := m.GetSecret(context.Background(), "AUTOPUBLISHER_TEST_SECRET")
	require.NoError(t, err)
	assert.Equal(t, "from-env", value)

	_, err = m.GetSecret(context.Background(), "AUTOPUBLISHER_TEST_MISSING")
	assert.Error(t, err)
}

func TestLoadString_Fallback(t *testing.T) {
	m := NewEnvManager()

	t.Setenv("AUTOPUBLISHER_TEST_SECRET", "from-env")
	assert.Equal(t, "from-env", LoadString(context.Background(), m, "AUTOPUBLISHER_TEST_SECRET", "fallback"))
	assert.Equal(t, "fallback", LoadString(context.Background(), m, "AUTOPUBLISHER_TEST_MISSING", "fallback"))
}

func TestLoadStringRequired(t *testing.T) {
	m := NewEnvManager()

	t.Setenv("AUTOPUBLISHER_TEST_SECRET", "from-env")
	value, err := LoadStringRequired(context.Background(), m, "AUTOPUBLISHER_TEST_SECRET")
	require.NoError(t, err)
	assert.Equal(t, "from-env", value)

	_, err = LoadStringRequired(context.Background(), m, "AUTOPUBLISHER_TEST_MISSING")
	assert.Error(t, err)
}

func TestNewManager_UnknownBackend(t *testing.T) {
	_, err := NewManager(Config{Backend: "vault"})
	assert.Error(t, err)
}
