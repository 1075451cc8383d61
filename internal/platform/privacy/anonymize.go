// Package privacy reduces personal data before it reaches logs.
package privacy

import "net/netip"

const (
	ipv4Prefix = 24
	ipv6Prefix = 48
)

// AnonymizeIP keeps the network part of an address: /24 for IPv4 and /48 for
// IPv6. Empty input yields "unknown", unparseable input "invalid".
func AnonymizeIP(ip string) string {
	if ip == "" || ip == "unknown" {
		return "unknown"
	}
	addr, err := netip.ParseAddr(ip)
	if err != nil {
		return "invalid"
	}
	addr = addr.Unmap().WithZone("")

	bits := ipv6Prefix
	if addr.Is4() {
		bits = ipv4Prefix
	}
	prefix, err := addr.Prefix(bits)
	if err != nil {
		return "invalid"
	}
	return prefix.Addr().String()
}
