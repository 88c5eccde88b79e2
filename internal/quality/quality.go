// Package quality scores the confluence between an alert's directional
// bias and the free-data snapshot. Each agreeing input adds one point;
// a missing input adds nothing, so a degraded feed day just means lower
// ceilings, never rejections on its own.
package quality

const (
	SetupStrongLong  = "strong_long"
	SetupStrongShort = "strong_short"
)

// Funding inside this band is considered neutral crowding.
const fundingNeutralBand = 0.0005

// Score rates a setup 0..3 against funding, long/short ratio and the
// recent-liquidation count. Nil inputs are skipped.
func Score(setup string, funding, ratio *float64, liqRecent *int) int {
	score := 0
	longBias := setup == SetupStrongLong
	shortBias := setup == SetupStrongShort

	if funding != nil {
		// A long into negative-or-flat funding is not paying the crowd;
		// mirror logic for shorts.
		if longBias && *funding < fundingNeutralBand {
			score++
		}
		if shortBias && *funding > -fundingNeutralBand {
			score++
		}
	}
	if ratio != nil {
		// Contrarian read: fewer longs than shorts favors a long.
		if longBias && *ratio < 1.0 {
			score++
		}
		if shortBias && *ratio > 1.0 {
			score++
		}
	}
	if liqRecent != nil && *liqRecent >= 1 {
		score++
	}
	return score
}
