package types

import "fmt"

// FormatBytes renders a byte count in a human-readable form,
// e.g. FormatBytes(1536) == "1.50 KB".
func FormatBytes(n int64) string {
	if n < 1024 {
		return fmt.Sprintf("%d B", n)
	}

	v := float64(n)
	for _, unit := range []string{"KB", "MB", "GB", "TB", "PB"} {
		v /= 1024
		if v < 1024 || unit == "PB" {
			return fmt.Sprintf("%.2f %s", v, unit)
		}
	}
	return fmt.Sprintf("%d B", n)
}
