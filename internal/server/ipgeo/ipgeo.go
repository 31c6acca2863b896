// Package ipgeo tags requests with the caller's country from a MaxMind MMDB
// file.
package ipgeo

import (
	"net/netip"

	"github.com/oschwald/maxminddb-golang/v2"
)

// Resolver maps IP addresses to ISO 3166-1 alpha-2 country codes.
//
// A nil *Resolver is valid and only classifies local and tailnet addresses.
type Resolver struct {
	db *maxminddb.Reader
}

// Open loads an MMDB country database.
func Open(path string) (*Resolver, error) {
	db, err := maxminddb.Open(path)
	if err != nil {
		return nil, err
	}
	return &Resolver{db: db}, nil
}

// Close releases the database.
func (r *Resolver) Close() error {
	if r == nil || r.db == nil {
		return nil
	}
	return r.db.Close()
}

type countryRecord struct {
	Country struct {
		ISOCode string `maxminddb:"iso_code"`
	} `maxminddb:"country"`
}

// tailnet is the CGNAT range 100.64.0.0/10 used by Tailscale.
var tailnet = netip.MustParsePrefix("100.64.0.0/10")

// Country returns "local" for loopback, private, link-local and unspecified
// addresses, "tailscale" for the CGNAT range, the ISO code when the database
// knows the address, and "" otherwise.
func (r *Resolver) Country(ip string) string {
	addr, err := netip.ParseAddr(ip)
	if err != nil {
		return ""
	}
	addr = addr.Unmap()
	switch {
	case addr.IsLoopback(), addr.IsPrivate(), addr.IsUnspecified(), addr.IsLinkLocalUnicast():
		return "local"
	case tailnet.Contains(addr):
		return "tailscale"
	case r == nil || r.db == nil:
		return ""
	}
	var rec countryRecord
	if err := r.db.Lookup(addr).Decode(&rec); err != nil {
		return ""
	}
	return rec.Country.ISOCode
}
