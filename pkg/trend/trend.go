// Package trend classifies the change between two wound area measurements and
// maps it onto care recommendations.
package trend

// Threshold is the absolute area change, in cm², beyond which a wound is
// considered to be shrinking or growing.
const Threshold = 0.1

type Trend string

const (
	Improving  Trend = "improving"
	Concerning Trend = "concerning"
	Stable     Trend = "stable"
)

// Classify compares the current area against the previous one, both in cm².
func Classify(current, previous float64) Trend {
	delta := current - previous
	switch {
	case delta < -Threshold:
		return Improving
	case delta > Threshold:
		return Concerning
	default:
		return Stable
	}
}
