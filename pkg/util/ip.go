package util

import (
	"fmt"
	"math/bits"
	"net"
	"strconv"
	"strings"
)

// IsValidIPv4 checks if a string is a valid IPv4 address
func IsValidIPv4(ipStr string) bool {
	ip := net.ParseIP(ipStr)
	return ip != nil && ip.To4() != nil
}

// IsValidNetmask checks if a string is a contiguous dotted-quad IPv4 netmask
// (255.255.255.0 is valid, 255.0.255.0 is not).
func IsValidNetmask(mask string) bool {
	_, err := NetmaskToPrefix(mask)
	return err == nil
}

// NetmaskToPrefix converts a dotted-quad netmask to its prefix length.
func NetmaskToPrefix(mask string) (int, error) {
	ip := net.ParseIP(mask)
	if ip == nil || ip.To4() == nil {
		return 0, fmt.Errorf("invalid netmask %q", mask)
	}
	v4 := ip.To4()
	n := uint32(v4[0])<<24 | uint32(v4[1])<<16 | uint32(v4[2])<<8 | uint32(v4[3])
	ones := bits.LeadingZeros32(^n)
	if n<<uint(ones) != 0 {
		return 0, fmt.Errorf("non-contiguous netmask %q", mask)
	}
	return ones, nil
}

// PrefixToNetmask converts a prefix length (0-32) to a dotted-quad netmask.
func PrefixToNetmask(prefix int) (string, error) {
	if prefix < 0 || prefix > 32 {
		return "", fmt.Errorf("prefix length must be between 0 and 32, got %d", prefix)
	}
	return net.IP(net.CIDRMask(prefix, 32)).String(), nil
}

// SplitIPMask splits "10.1.1.1/24" or "10.1.1.1/255.255.255.0" into an
// address and a dotted-quad netmask.
func SplitIPMask(s string) (string, string, error) {
	addr, mask, ok := strings.Cut(s, "/")
	if !ok {
		return "", "", fmt.Errorf("address %q must include a mask (e.g., 10.1.1.1/24)", s)
	}
	if !IsValidIPv4(addr) {
		return "", "", fmt.Errorf("invalid IPv4 address %q", addr)
	}
	if n, err := strconv.Atoi(mask); err == nil {
		dotted, err := PrefixToNetmask(n)
		if err != nil {
			return "", "", err
		}
		return addr, dotted, nil
	}
	if !IsValidNetmask(mask) {
		return "", "", fmt.Errorf("invalid netmask %q", mask)
	}
	return addr, mask, nil
}

// EnsurePort appends port to host unless it already carries one. Bare IPv6
// literals are bracketed.
func EnsurePort(host string, port int) string {
	host = strings.TrimSuffix(strings.TrimSpace(host), ":")
	if host == "" {
		return host
	}
	if _, _, err := net.SplitHostPort(host); err == nil {
		return host
	}
	return net.JoinHostPort(strings.Trim(host, "[]"), strconv.Itoa(port))
}
