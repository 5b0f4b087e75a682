package form

// bcharsnospace is the RFC 2046 §5.1.1 bchars set, minus SPACE (which is
// permitted as an interior-only octet, handled separately below).
//
//	bcharsnospace = DIGIT / ALPHA / "'" / "(" / ")" / "+" / "_" / ","
//	              / "-" / "." / "/" / ":" / "=" / "?"
var bcharsnospace = [256]bool{}

func init() {
	for c := '0'; c <= '9'; c++ {
		bcharsnospace[c] = true
	}
	for c := 'A'; c <= 'Z'; c++ {
		bcharsnospace[c] = true
	}
	for c := 'a'; c <= 'z'; c++ {
		bcharsnospace[c] = true
	}
	for _, c := range []byte("'()+_,-./:=?") {
		bcharsnospace[c] = true
	}
}

// ValidateBoundary reports whether s is a syntactically valid multipart
// boundary: 1-70 octets drawn from bcharsnospace, with interior SPACE also
// permitted, but the trailing octet must be bcharsnospace (not SPACE).
//
// The 70-octet cap from RFC 2046 is not enforced here, matching real-world
// practice where longer boundaries are accepted in the wild; use
// ValidateBoundaryStrict for RFC-strict validation.
func ValidateBoundary(s string) error {
	if len(s) == 0 {
		return &InvalidBoundaryError{Pos: 0, Byte: 0}
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if bcharsnospace[c] {
			continue
		}
		if c == ' ' && i != len(s)-1 {
			continue
		}
		return &InvalidBoundaryError{Pos: i, Byte: c}
	}
	return nil
}

// ValidateBoundaryStrict additionally enforces the RFC 2046 70-octet cap.
func ValidateBoundaryStrict(s string) error {
	if len(s) > 70 {
		return &InvalidBoundaryError{Pos: 70, Byte: s[70]}
	}
	return ValidateBoundary(s)
}
