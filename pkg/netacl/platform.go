package netacl

import (
	"strings"

	"github.com/netgrid-labs/netacl/pkg/grains"
)

// ResolvePlatform maps device facts to the compiler platform name.
// First match wins; anything unmatched falls back to the vendor itself,
// since several compiler platforms are simply named after the vendor
// (eos -> arista, junos -> juniper, and so on).
func ResolvePlatform(facts grains.Facts) string {
	vendor := strings.ToLower(facts.Vendor)
	os := strings.ToLower(facts.OS)
	model := strings.ToLower(facts.Model)

	switch {
	case vendor == "juniper" && strings.Contains(model, "srx"):
		return "junipersrx"
	case vendor == "cisco" && os == "ios":
		return "cisco"
	case vendor == "cisco" && os == "iosxr":
		return "ciscoxr"
	case vendor == "cisco" && os == "asa":
		return "ciscoasa"
	case os == "linux":
		return "iptables"
	case vendor == "palo alto networks":
		return "paloaltofw"
	}
	return vendor
}
