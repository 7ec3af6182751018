package encoding

import (
	"errors"
	"testing"
)

func TestDecodeName(t *testing.T) {
	tests := []struct {
		name    string
		data    []byte
		want    string
		wantErr bool
	}{
		{"ascii", []byte("M_Wall_01"), "M_Wall_01", false},
		{"empty", []byte{}, "", false},
		{"multibyte", []byte("Stein_ä世"), "Stein_ä世", false},
		{"lone continuation byte", []byte{'a', 0x80, 'b'}, "", true},
		{"truncated sequence", []byte{0xe4, 0xb8}, "", true},
		{"overlong slash", []byte{0xc0, 0xaf}, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeName(tt.data)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidName) {
					t.Fatalf("DecodeName(%q) error = %v, want ErrInvalidName", tt.data, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("DecodeName(%q) unexpected error: %v", tt.data, err)
			}
			if got != tt.want {
				t.Errorf("DecodeName(%q) = %q, want %q", tt.data, got, tt.want)
			}
		})
	}
}

func TestEncodeName(t *testing.T) {
	b, err := EncodeName("Glass")
	if err != nil {
		t.Fatalf("EncodeName failed: %v", err)
	}
	if string(b) != "Glass" {
		t.Errorf("EncodeName = %q, want %q", b, "Glass")
	}

	if _, err := EncodeName(string([]byte{0xff, 0xfe})); !errors.Is(err, ErrInvalidName) {
		t.Errorf("EncodeName invalid UTF-8: error = %v, want ErrInvalidName", err)
	}
}
