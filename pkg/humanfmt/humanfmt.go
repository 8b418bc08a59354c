// Package humanfmt renders byte sizes, durations, rates and record
// counts in the compact form used in log output. Raw values stay in
// the structured fields; these strings are companions for human eyes.
package humanfmt

import (
	"fmt"
	"strconv"
	"time"
)

// Binary (IEC) units for bytes.
const (
	KiB = 1 << 10
	MiB = 1 << 20
	GiB = 1 << 30
	TiB = 1 << 40
)

var byteScale = []struct {
	limit float64
	name  string
}{
	{TiB, "TiB"},
	{GiB, "GiB"},
	{MiB, "MiB"},
	{KiB, "KiB"},
}

// Bytes formats a byte count using IEC binary units, two decimals:
// "1.23 GiB". Values under one KiB (and negative values) print as
// plain bytes.
func Bytes(b int64) string {
	if b >= KiB {
		for _, u := range byteScale {
			if float64(b) >= u.limit {
				return fmt.Sprintf("%.2f %s", float64(b)/u.limit, u.name)
			}
		}
	}
	return strconv.FormatInt(b, 10) + " B"
}

// Throughput formats a byte count over a duration as a rate like
// "123.40 MiB/s". A non-positive duration has no meaningful rate.
func Throughput(bytes int64, d time.Duration) string {
	if d <= 0 {
		return "∞"
	}
	rate := float64(bytes) / d.Seconds()
	for _, u := range byteScale {
		if rate >= u.limit {
			return fmt.Sprintf("%.2f %s/s", rate/u.limit, u.name)
		}
	}
	return fmt.Sprintf("%.0f B/s", rate)
}

// Duration formats d with two significant components at most:
// "789ns", "45.6ms", "1.23s", "1m30s", "2h15m".
func Duration(d time.Duration) string {
	switch {
	case d < 0:
		return d.String()
	case d < time.Microsecond:
		return strconv.FormatInt(d.Nanoseconds(), 10) + "ns"
	case d < time.Millisecond:
		return fmt.Sprintf("%.1fµs", float64(d)/float64(time.Microsecond))
	case d < time.Second:
		return fmt.Sprintf("%.1fms", float64(d)/float64(time.Millisecond))
	case d < time.Minute:
		return fmt.Sprintf("%.2fs", d.Seconds())
	case d < time.Hour:
		return twoUnits(d/time.Minute, "m", (d%time.Minute)/time.Second, "s")
	default:
		return twoUnits(d/time.Hour, "h", (d%time.Hour)/time.Minute, "m")
	}
}

// twoUnits prints "3m12s" style pairs, dropping a zero minor part.
func twoUnits(major time.Duration, majorUnit string, minor time.Duration, minorUnit string) string {
	if minor == 0 {
		return fmt.Sprintf("%d%s", major, majorUnit)
	}
	return fmt.Sprintf("%d%s%d%s", major, majorUnit, minor, minorUnit)
}

// Count formats a record count with decimal suffixes: "789", "456.00K",
// "1.23M", "4.56B". Negative counts print as plain integers.
func Count(n int64) string {
	switch {
	case n >= 1e9:
		return fmt.Sprintf("%.2fB", float64(n)/1e9)
	case n >= 1e6:
		return fmt.Sprintf("%.2fM", float64(n)/1e6)
	case n >= 1e3:
		return fmt.Sprintf("%.2fK", float64(n)/1e3)
	default:
		return strconv.FormatInt(n, 10)
	}
}

// CountUint64 is Count for unsigned totals.
func CountUint64(n uint64) string {
	return Count(int64(n))
}
