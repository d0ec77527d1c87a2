package util

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/samber/mo"
)

const UnknownSize = "Unknown"

// FormatDuration renders seconds as "<minutes>m <seconds>s" without wrapping hours.
func FormatDuration(seconds mo.Option[float64]) string {
	total := int64(seconds.OrElse(0))
	if total < 0 {
		total = 0
	}
	return fmt.Sprintf("%dm %ds", total/60, total%60)
}

// FormatSize renders a byte count with decimal multiples and one decimal place,
// e.g. 1500000 -> "1.5 MB", 15000000 -> "15.0 MB", 500 -> "500 Bytes".
func FormatSize(size mo.Option[int64]) string {
	n, ok := size.Get()
	if !ok || n <= 0 {
		return UnknownSize
	}
	switch {
	case n == 1:
		return "1 Byte"
	case n < 1000:
		return fmt.Sprintf("%d Bytes", n)
	}
	value, prefix := humanize.ComputeSI(float64(n))
	return fmt.Sprintf("%.1f %sB", value, prefix)
}
