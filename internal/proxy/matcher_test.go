package proxy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExactMatcher(t *testing.T) {
	m, err := CompileMatcher("f:example.com", nil)
	require.NoError(t, err)
	assert.True(t, m.Match("example.com"))
	assert.False(t, m.Match("sub.example.com"))
}

func TestSubstringMatcher(t *testing.T) {
	m, err := CompileMatcher("s:ample", nil)
	require.NoError(t, err)
	assert.True(t, m.Match("example.com"))
	assert.False(t, m.Match("other.org"))
}

func TestDomainSuffixMatcher(t *testing.T) {
	m, err := CompileMatcher("d:example.com", nil)
	require.NoError(t, err)
	assert.True(t, m.Match("example.com"))
	assert.True(t, m.Match("api.example.com"))
	assert.False(t, m.Match("notexample.com"))
}

func TestGeositeMatcherExpandsViaLookup(t *testing.T) {
	lookup := func(tag string) ([]string, error) {
		assert.Equal(t, "ads", tag)
		return []string{"ads.example.com", "track.example.net"}, nil
	}
	m, err := CompileMatcher("geosite:ads", lookup)
	require.NoError(t, err)
	assert.True(t, m.Match("track.example.net"))
	assert.False(t, m.Match("example.com"))
}

func TestGeositeMatcherWithoutLookupFails(t *testing.T) {
	_, err := CompileMatcher("geosite:ads", nil)
	assert.Error(t, err)
}

func TestUnrecognizedTargetFails(t *testing.T) {
	_, err := CompileMatcher("x:nope", nil)
	assert.Error(t, err)
}
