package core

// itoa converts an integer to a string without using fmt package
// This is a lightweight alternative for embedded systems
func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	if n < 0 {
		return "-" + utoa(uint32(-n))
	}
	return utoa(uint32(n))
}

// utoa converts an unsigned integer to a string
func utoa(n uint32) string {
	if n == 0 {
		return "0"
	}

	// Count digits
	temp := n
	digits := 0
	for temp > 0 {
		digits++
		temp /= 10
	}

	// Build string from right to left
	buf := make([]byte, digits)
	pos := digits - 1

	for n > 0 {
		buf[pos] = byte('0' + n%10)
		n /= 10
		pos--
	}

	return string(buf)
}

// pad2 renders 0..99 with a leading zero.
func pad2(n uint32) string {
	if n < 10 {
		return "0" + utoa(n)
	}
	return utoa(n)
}

// FormatElapsed renders seconds as h:mm:ss.
func FormatElapsed(seconds uint32) string {
	h := seconds / 3600
	m := (seconds / 60) % 60
	s := seconds % 60
	return utoa(h) + ":" + pad2(m) + ":" + pad2(s)
}

// FormatUint is utoa for targets that avoid strconv.
func FormatUint(n uint32) string {
	return utoa(n)
}
