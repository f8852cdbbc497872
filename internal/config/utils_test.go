package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestEnvString(t *testing.T) {
	t.Setenv("TEST_ENV_STRING", "value")
	assert.Equal(t, "value", envString("TEST_ENV_STRING", "fallback"))
	assert.Equal(t, "fallback", envString("TEST_ENV_STRING_MISSING", "fallback"))
}

func TestEnvInt(t *testing.T) {
	t.Setenv("TEST_ENV_INT", "42")
	assert.Equal(t, 42, envInt("TEST_ENV_INT", 1))

	t.Setenv("TEST_ENV_INT_BAD", "not-a-number")
	assert.Equal(t, 1, envInt("TEST_ENV_INT_BAD", 1))
}

func TestEnvDuration(t *testing.T) {
	t.Setenv("TEST_ENV_DURATION", "90s")
	assert.Equal(t, 90*time.Second, envDuration("TEST_ENV_DURATION", time.Second))

	t.Setenv("TEST_ENV_DURATION_BAD", "soon")
	assert.Equal(t, time.Second, envDuration("TEST_ENV_DURATION_BAD", time.Second))
}

func TestEnvStrings(t *testing.T) {
	t.Setenv("TEST_ENV_STRINGS", "a, b ,,c")
	assert.Equal(t, []string{"a", "b", "c"}, envStrings("TEST_ENV_STRINGS", nil))

	t.Setenv("TEST_ENV_STRINGS_EMPTY", " , ")
	assert.Equal(t, []string{"x"}, envStrings("TEST_ENV_STRINGS_EMPTY", []string{"x"}))
}

func TestOrdersDefaults(t *testing.T) {
	t.Setenv("ORDERS_DEFAULT_PAGE_SIZE", "0")
	t.Setenv("ORDERS_MAX_PAGE_SIZE", "-5")
	cfg, err := New()
	assert.NoError(t, err)
	assert.Equal(t, 50, cfg.Orders.DefaultPageSize)
	assert.Equal(t, 200, cfg.Orders.MaxPageSize)
	assert.Equal(t, "TR", cfg.Orders.DefaultTenant)
}
