package util

import "testing"

func TestParseSize(t *testing.T) {
	tests := []struct {
		input string
		want  int64
	}{
		{"10MB", 10 << 20},
		{"512KB", 512 << 10},
		{"2GB", 2 << 30},
		{"1024", 1024},
		{"64B", 64},
		{"  10 mb  ", 10 << 20},
	}
	for _, tc := range tests {
		t.Run(tc.input, func(t *testing.T) {
			if got := ParseSize(tc.input, 0); got != tc.want {
				t.Errorf("ParseSize(%q) = %d, want %d", tc.input, got, tc.want)
			}
		})
	}
}

func TestParseSize_Default(t *testing.T) {
	const def = int64(5 << 20)
	for _, in := range []string{"", "lots", "-3MB", "1.5MB"} {
		if got := ParseSize(in, def); got != def {
			t.Errorf("ParseSize(%q) = %d, want default", in, got)
		}
	}
}

func TestMaskSecret(t *testing.T) {
	tests := []struct {
		input  string
		prefix int
		want   string
	}{
		{"vx_live_abcdef123", 6, "vx_liv***"},
		{"short", 10, "***"},
		{"", 4, "***"},
	}
	for _, tc := range tests {
		if got := MaskSecret(tc.input, tc.prefix); got != tc.want {
			t.Errorf("MaskSecret(%q, %d) = %q, want %q", tc.input, tc.prefix, got, tc.want)
		}
	}
}
