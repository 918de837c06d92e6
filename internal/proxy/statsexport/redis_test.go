package statsexport

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolveRedisURLPrefersExplicitConfig(t *testing.T) {
	assert.Equal(t, "redis://explicit:6379/1", resolveRedisURL(Config{RedisURL: "redis://explicit:6379/1"}))
}

func TestResolveRedisURLDefaultsWhenUnset(t *testing.T) {
	t.Setenv("KERNELD_REDIS_URL", "")
	assert.Equal(t, "redis://localhost:6379/0", resolveRedisURL(Config{}))
}

func TestResolveRedisURLFallsBackToEnv(t *testing.T) {
	t.Setenv("KERNELD_REDIS_URL", "redis://from-env:6379/2")
	assert.Equal(t, "redis://from-env:6379/2", resolveRedisURL(Config{}))
}

func TestResolvePrefixDefaultsAndOverrides(t *testing.T) {
	assert.Equal(t, "kerneld:proxy:stats:", resolvePrefix(Config{}))
	assert.Equal(t, "custom:", resolvePrefix(Config{KeyPrefix: "custom:"}))
}

func TestStatsKeyJoinsPrefixAndEgressID(t *testing.T) {
	assert.Equal(t, "kerneld:proxy:stats:e1", statsKey("kerneld:proxy:stats:", "e1"))
}
