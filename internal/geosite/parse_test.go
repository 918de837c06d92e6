package geosite

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/encoding/protowire"
)

func encodeDomain(typ DomainType, value string) []byte {
	var b []byte
	b = protowire.AppendTag(b, 1, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(typ))
	b = protowire.AppendTag(b, 2, protowire.BytesType)
	b = protowire.AppendString(b, value)
	return b
}

func encodeSite(countryCode string, domains ...[]byte) []byte {
	var b []byte
	b = protowire.AppendTag(b, 1, protowire.BytesType)
	b = protowire.AppendString(b, countryCode)
	for _, d := range domains {
		b = protowire.AppendTag(b, 2, protowire.BytesType)
		b = protowire.AppendBytes(b, d)
	}
	return b
}

func encodeList(sites ...[]byte) []byte {
	var b []byte
	for _, s := range sites {
		b = protowire.AppendTag(b, 1, protowire.BytesType)
		b = protowire.AppendBytes(b, s)
	}
	return b
}

func TestParseDecodesSitesAndDomains(t *testing.T) {
	ads := encodeSite("ads",
		encodeDomain(DomainDomain, "ads.example.com"),
		encodeDomain(DomainFull, "track.example.net"),
	)
	cn := encodeSite("cn", encodeDomain(DomainDomain, "example.cn"))

	data := encodeList(ads, cn)

	list, err := Parse(data)
	require.NoError(t, err)
	require.Len(t, list.Sites, 2)

	assert.Equal(t, "ads", list.Sites[0].CountryCode)
	require.Len(t, list.Sites[0].Domains, 2)
	assert.Equal(t, "ads.example.com", list.Sites[0].Domains[0].Value)
	assert.Equal(t, DomainDomain, list.Sites[0].Domains[0].Type)
	assert.Equal(t, DomainFull, list.Sites[0].Domains[1].Type)

	assert.Equal(t, "cn", list.Sites[1].CountryCode)
	assert.Equal(t, "example.cn", list.Sites[1].Domains[0].Value)
}

func TestParseEmptyInputYieldsEmptyList(t *testing.T) {
	list, err := Parse(nil)
	require.NoError(t, err)
	assert.Empty(t, list.Sites)
}

func TestParseRejectsTruncatedInput(t *testing.T) {
	_, err := Parse([]byte{0x0a, 0x05, 0x01, 0x02})
	assert.Error(t, err)
}
