package form

import "testing"

func TestValidateBoundary(t *testing.T) {
	cases := []struct {
		name    string
		s       string
		wantErr bool
	}{
		{"empty", "", true},
		{"simple", "abc123", false},
		{"with-interior-space", "a b c", false},
		{"trailing-space", "abc ", true},
		{"all-bchars", "'()+_,-./:=?", false},
		{"invalid-char", "abc@def", true},
		{"single-char", "x", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateBoundary(tc.s)
			if (err != nil) != tc.wantErr {
				t.Fatalf("ValidateBoundary(%q) = %v, wantErr %v", tc.s, err, tc.wantErr)
			}
		})
	}
}

func TestValidateBoundaryStrict(t *testing.T) {
	long := ""
	for i := 0; i < 71; i++ {
		long += "a"
	}
	if err := ValidateBoundaryStrict(long); err == nil {
		t.Fatalf("expected error for boundary longer than 70 octets")
	}
	if err := ValidateBoundaryStrict(long[:70]); err != nil {
		t.Fatalf("unexpected error for 70-octet boundary: %v", err)
	}
}
