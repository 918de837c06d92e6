// Package geosite decodes the v2ray-schema geosite database (a
// length-prefixed protobuf list of per-country domain groups) and persists
// a user-editable overlay of additions and removals on top of it.
package geosite

import (
	"google.golang.org/protobuf/encoding/protowire"

	"github.com/kerneld-io/kerneld/internal/kerrors"
)

// DomainType mirrors the v2ray geosite schema's Domain.Type enum.
type DomainType int

const (
	DomainPlain DomainType = iota
	DomainRegex
	DomainDomain
	DomainFull
)

// Domain is one matchable entry within a Site.
type Domain struct {
	Type  DomainType
	Value string
}

// Site groups domains under one country/category tag (e.g. "cn", "ads").
type Site struct {
	CountryCode string
	Domains     []Domain
}

// SiteGroupList is the top-level decoded geosite database.
type SiteGroupList struct {
	Sites []Site
}

// Parse decodes a serialized geosite.SiteGroupList. It walks the wire
// format directly via protowire rather than through generated message
// types, since this is an append-only read path over a single well-known
// schema and the data is append-only and never round-tripped back to
// protobuf.
func Parse(data []byte) (*SiteGroupList, error) {
	list := &SiteGroupList{}
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return nil, kerrors.New(kerrors.FormatError, "geosite: malformed top-level tag")
		}
		data = data[n:]

		if num == 1 && typ == protowire.BytesType {
			msg, n2 := protowire.ConsumeBytes(data)
			if n2 < 0 {
				return nil, kerrors.New(kerrors.FormatError, "geosite: malformed site entry")
			}
			data = data[n2:]
			site, err := parseSite(msg)
			if err != nil {
				return nil, err
			}
			list.Sites = append(list.Sites, site)
			continue
		}

		n2 := protowire.ConsumeFieldValue(num, typ, data)
		if n2 < 0 {
			return nil, kerrors.New(kerrors.FormatError, "geosite: malformed top-level field %d", num)
		}
		data = data[n2:]
	}
	return list, nil
}

func parseSite(data []byte) (Site, error) {
	var s Site
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return Site{}, kerrors.New(kerrors.FormatError, "geosite: malformed site tag")
		}
		data = data[n:]

		switch {
		case num == 1 && typ == protowire.BytesType:
			v, n2 := protowire.ConsumeBytes(data)
			if n2 < 0 {
				return Site{}, kerrors.New(kerrors.FormatError, "geosite: malformed country_code")
			}
			data = data[n2:]
			s.CountryCode = string(v)

		case num == 2 && typ == protowire.BytesType:
			v, n2 := protowire.ConsumeBytes(data)
			if n2 < 0 {
				return Site{}, kerrors.New(kerrors.FormatError, "geosite: malformed domain entry")
			}
			data = data[n2:]
			d, err := parseDomain(v)
			if err != nil {
				return Site{}, err
			}
			s.Domains = append(s.Domains, d)

		default:
			n2 := protowire.ConsumeFieldValue(num, typ, data)
			if n2 < 0 {
				return Site{}, kerrors.New(kerrors.FormatError, "geosite: malformed site field %d", num)
			}
			data = data[n2:]
		}
	}
	return s, nil
}

func parseDomain(data []byte) (Domain, error) {
	var d Domain
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return Domain{}, kerrors.New(kerrors.FormatError, "geosite: malformed domain tag")
		}
		data = data[n:]

		switch {
		case num == 1 && typ == protowire.VarintType:
			v, n2 := protowire.ConsumeVarint(data)
			if n2 < 0 {
				return Domain{}, kerrors.New(kerrors.FormatError, "geosite: malformed domain type")
			}
			data = data[n2:]
			d.Type = DomainType(v)

		case num == 2 && typ == protowire.BytesType:
			v, n2 := protowire.ConsumeBytes(data)
			if n2 < 0 {
				return Domain{}, kerrors.New(kerrors.FormatError, "geosite: malformed domain value")
			}
			data = data[n2:]
			d.Value = string(v)

		default:
			n2 := protowire.ConsumeFieldValue(num, typ, data)
			if n2 < 0 {
				return Domain{}, kerrors.New(kerrors.FormatError, "geosite: malformed domain field %d", num)
			}
			data = data[n2:]
		}
	}
	return d, nil
}
