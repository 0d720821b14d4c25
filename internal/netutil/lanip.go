// Package netutil holds the one small external-collaborator helper spec.md
// §1 names but does not specify: LAN-IP enumeration for GET /api/links'
// lan_ips field. No library in the example pack addresses host network
// interface enumeration — it is a syscall-backed OS query, not a domain
// concern — so this is one of the few places this repo reaches for the
// standard library by necessity rather than by choice.
package netutil

import "net"

// LocalIPv4Addresses returns every non-loopback IPv4 address bound to an
// interface that is up, in the order net.Interfaces reports them.
func LocalIPv4Addresses() []string {
	ifaces, err := net.Interfaces()
	if err != nil {
		return nil
	}

	var addrs []string
	for _, iface := range ifaces {
		if iface.Flags&net.FlagUp == 0 || iface.Flags&net.FlagLoopback != 0 {
			continue
		}
		ifaceAddrs, err := iface.Addrs()
		if err != nil {
			continue
		}
		for _, a := range ifaceAddrs {
			var ip net.IP
			switch v := a.(type) {
			case *net.IPNet:
				ip = v.IP
			case *net.IPAddr:
				ip = v.IP
			}
			if ip == nil || ip.IsLoopback() {
				continue
			}
			if v4 := ip.To4(); v4 != nil {
				addrs = append(addrs, v4.String())
			}
		}
	}
	return addrs
}
