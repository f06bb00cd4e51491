package pathctx

// DisplayHint suggests how a byte-string segment should be rendered. It is a
// presentation aid only and never contributes to Path identity.
type DisplayHint uint8

const (
	// DisplayBytes renders the raw byte values.
	DisplayBytes DisplayHint = iota
	// DisplayString renders the bytes as a UTF-8 string.
	DisplayString
	// DisplayHex renders a lowercase hex dump.
	DisplayHex
	// DisplayInt renders a big-endian signed integer.
	DisplayInt
)

// GuessDisplayHint picks a hint from the segment length: single bytes stay
// raw, machine-word widths read as integers, 32 bytes is almost always a
// hash, anything else is likely a name.
func GuessDisplayHint(b []byte) DisplayHint {
	switch len(b) {
	case 1:
		return DisplayBytes
	case 2, 4, 8:
		return DisplayInt
	case 32:
		return DisplayHex
	default:
		return DisplayString
	}
}
