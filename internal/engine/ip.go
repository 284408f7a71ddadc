package engine

import (
	"encoding/binary"
	"math/bits"
	"net"
)

// BestLocalIP picks the local interface IPv4 the renderer can reach back
// on: the candidate sharing the longest binary prefix with the target.
// Falls back to the default-route address and finally loopback.
func BestLocalIP(targetIP string) string {
	candidates := localIPv4s()
	if ip := bestLocalIPFrom(targetIP, candidates); ip != "" {
		return ip
	}

	// No usable target or no interfaces: let the kernel route a probe.
	conn, err := net.Dial("udp4", "8.8.8.8:80")
	if err == nil {
		defer conn.Close()
		if addr, ok := conn.LocalAddr().(*net.UDPAddr); ok {
			return addr.IP.String()
		}
	}
	return "127.0.0.1"
}

// bestLocalIPFrom selects argmax over leading zeros of (target XOR
// candidate). Ties resolve to the earliest candidate.
func bestLocalIPFrom(targetIP string, candidates []net.IP) string {
	target := net.ParseIP(targetIP)
	if target = target.To4(); target == nil {
		return ""
	}
	targetU32 := binary.BigEndian.Uint32(target)

	best := ""
	bestBits := -1
	for _, candidate := range candidates {
		v4 := candidate.To4()
		if v4 == nil {
			continue
		}
		matchBits := bits.LeadingZeros32(targetU32 ^ binary.BigEndian.Uint32(v4))
		if matchBits > bestBits {
			bestBits = matchBits
			best = v4.String()
		}
	}
	return best
}

func localIPv4s() []net.IP {
	var ips []net.IP
	ifaces, err := net.Interfaces()
	if err != nil {
		return nil
	}
	for _, iface := range ifaces {
		if iface.Flags&net.FlagUp == 0 || iface.Flags&net.FlagLoopback != 0 {
			continue
		}
		addrs, err := iface.Addrs()
		if err != nil {
			continue
		}
		for _, addr := range addrs {
			var ip net.IP
			switch v := addr.(type) {
			case *net.IPNet:
				ip = v.IP
			case *net.IPAddr:
				ip = v.IP
			}
			if ip != nil && ip.To4() != nil {
				ips = append(ips, ip)
			}
		}
	}
	return ips
}
