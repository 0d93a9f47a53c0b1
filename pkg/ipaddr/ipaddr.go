// Package ipaddr converts between dotted-decimal IPv4 strings and the
// uint32 keys the store operates on. The parser is a branch-light,
// allocation-free single pass over the input bytes, modeled on the
// retrieved ipv4_bitset.IPv4ByteToUint32 (evgenyspirin/unique-ip-counter)
// and tightened to reject every malformed shape a dotted-decimal grammar
// must reject.
package ipaddr

import "strconv"

// ParseV4 converts a dotted-decimal string ("A.B.C.D", each octet 0..255,
// no leading/trailing dots, no empty octets, no non-digit characters other
// than the three separating dots, leading zeros accepted) into its
// uint32 key. The second return is false for any string that doesn't
// match the grammar.
func ParseV4(s string) (uint32, bool) {
	n := len(s)
	if n < 7 || n > 15 {
		return 0, false
	}

	var acc, part, digits, dots uint32
	for i := 0; i < n; i++ {
		c := s[i]
		if c >= '0' && c <= '9' {
			part = part*10 + uint32(c-'0')
			digits++
			if part > 255 || digits > 3 {
				return 0, false
			}
			continue
		}
		if c == '.' {
			if digits == 0 || dots >= 3 {
				return 0, false
			}
			acc = (acc << 8) | part
			part, digits = 0, 0
			dots++
			continue
		}
		return 0, false
	}

	if dots != 3 || digits == 0 {
		return 0, false
	}
	acc = (acc << 8) | part

	return acc, true
}

// FormatV4 renders a uint32 key as "A.B.C.D" with no leading zeros. This
// is the unchecked variant, deprecated but preserved for callers that
// relied on its signature; prefer FormatV4Safe for new code.
func FormatV4(ip uint32) string {
	return strconv.Itoa(int(ip>>24&0xFF)) + "." +
		strconv.Itoa(int(ip>>16&0xFF)) + "." +
		strconv.Itoa(int(ip>>8&0xFF)) + "." +
		strconv.Itoa(int(ip&0xFF))
}

// FormatV4Safe renders a uint32 key into buf as "A.B.C.D" with no leading
// zeros. It requires len(buf) >= 16 (the longest possible rendering,
// "255.255.255.255", is 15 bytes) and refuses smaller buffers rather than
// risk a caller-visible overflow. Returns the number of bytes written and
// whether the buffer was large enough.
func FormatV4Safe(ip uint32, buf []byte) (int, bool) {
	if len(buf) < 16 {
		return 0, false
	}

	n := 0
	octets := [4]byte{byte(ip >> 24), byte(ip >> 16), byte(ip >> 8), byte(ip)}
	for i, o := range octets {
		if i > 0 {
			buf[n] = '.'
			n++
		}
		n += putDecimal(buf[n:], o)
	}
	return n, true
}

// putDecimal writes the decimal digits of v (0..255) into buf with no
// leading zeros and returns how many bytes it wrote.
func putDecimal(buf []byte, v byte) int {
	if v >= 100 {
		buf[0] = '0' + v/100
		buf[1] = '0' + (v/10)%10
		buf[2] = '0' + v%10
		return 3
	}
	if v >= 10 {
		buf[0] = '0' + v/10
		buf[1] = '0' + v%10
		return 2
	}
	buf[0] = '0' + v
	return 1
}
