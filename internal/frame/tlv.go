package frame

// TLV is a single raw option seen on the wire: Type, plus whatever
// payload bytes the type/length fields delimited.
type TLV struct {
	Type  uint8
	Value []byte
}

// SplitTLVs walks a byte-oriented option list (Type:u8, Length:u8 >= 2,
// Value:(Length-2 bytes))* and returns each entry in wire order.
//
// Per spec.md Section 4.1/Section 7 (error kind 7): an option whose
// Length is < 2 or whose Length overflows the remaining buffer does
// not abort decoding of the options already seen. Instead the loop
// stops, and the undecoded remainder is returned as residual so the
// caller can surface it (typically as a single Raw option) rather
// than silently truncating it.
func SplitTLVs(b []byte) (tlvs []TLV, residual []byte) {
	for len(b) > 0 {
		if len(b) < 2 {
			return tlvs, b
		}
		optType, optLen := b[0], int(b[1])
		if optLen < 2 || optLen > len(b) {
			return tlvs, b
		}
		tlvs = append(tlvs, TLV{Type: optType, Value: b[2:optLen]})
		b = b[optLen:]
	}
	return tlvs, nil
}

// EncodeTLV appends a single Type/Length/Value option to buf.
func EncodeTLV(buf []byte, t uint8, value []byte) []byte {
	buf = append(buf, t, uint8(len(value)+2))
	return append(buf, value...)
}
