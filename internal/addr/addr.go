// Package addr implements the pure bit-extraction component of the
// address space: mapping a 32-bit IPv4 key to
// its /16 index, the /24-within-/16 index, the host index, and the /24
// prefix. All functions are pure, allocation-free bit extractions with no
// dependency on the bitmap or directory.
package addr

// Prefix16 returns the upper 16 bits of ip: the /16 index, 0..65535.
func Prefix16(ip uint32) uint16 {
	return uint16(ip >> 16)
}

// SubIndex16 returns the middle 8 bits of ip: the /24-within-/16 index,
// 0..255 — i.e. the third octet of the dotted-decimal form.
func SubIndex16(ip uint32) uint8 {
	return uint8(ip >> 8)
}

// HostIndex returns the lower 8 bits of ip: the host index within its
// /24, 0..255 — the fourth octet.
func HostIndex(ip uint32) uint8 {
	return uint8(ip)
}

// Prefix24 returns the upper 24 bits of ip, the /24 prefix, as an integer
// in 0..2^24-1. This is the index into the bitmap filter.
func Prefix24(ip uint32) uint32 {
	return ip >> 8
}

// Join reassembles an IP key from its /16 index, sub-index, and host
// index. It is the inverse of Prefix16/SubIndex16/HostIndex, used by
// iteration to report the IP for a given directory position.
func Join(prefix16 uint16, sub16, host uint8) uint32 {
	return uint32(prefix16)<<16 | uint32(sub16)<<8 | uint32(host)
}
