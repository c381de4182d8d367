// internal/forecast/trend.go
package forecast

// Trend symbols derived from the last two points of an extended history.
const (
	TrendUp   = "↑"
	TrendDown = "↓"
	TrendFlat = "→"
	TrendNone = "-"
)

// Trend classifies the direction of the last step of history. A move must
// exceed 5% of the previous value to count as a direction; smaller deltas are
// flat. This is a fixed dead zone against noise, not a significance test.
func Trend(history []float64) string {
	if len(history) < 2 {
		return TrendNone
	}

	prev := history[len(history)-2]
	delta := history[len(history)-1] - prev

	threshold := 0.0
	if prev != 0 {
		threshold = 0.05 * prev
	}

	switch {
	case delta > threshold:
		return TrendUp
	case delta < -threshold:
		return TrendDown
	default:
		return TrendFlat
	}
}
