package types

import "testing"

func TestFormatBytes(t *testing.T) {
	cases := []struct {
		n    int64
		want string
	}{
		{0, "0 B"},
		{512, "512 B"},
		{1023, "1023 B"},
		{1536, "1.50 KB"},
		{1 << 20, "1.00 MB"},
		{5 << 30, "5.00 GB"},
		{2 << 50, "2.00 PB"},
		{1 << 60, "1024.00 PB"},
	}
	for _, c := range cases {
		if got := FormatBytes(c.n); got != c.want {
			t.Errorf("FormatBytes(%d) = %q, want %q", c.n, got, c.want)
		}
	}
}
