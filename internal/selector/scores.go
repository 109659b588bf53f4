package selector

import (
	"github.com/thinkmate/mindrouter/internal/registry"
	"github.com/thinkmate/mindrouter/internal/scenario"
)

// Tier weights. Reliability multiplies every score so a flaky excellent
// provider can lose to a dependable good one.

func qualityWeight(q registry.Quality) float64 {
	switch q {
	case registry.QualityExcellent:
		return 1.0
	case registry.QualityGood:
		return 0.7
	default:
		return 0.4
	}
}

func speedWeight(sp registry.Speed) float64 {
	switch sp {
	case registry.SpeedFast:
		return 1.0
	case registry.SpeedMedium:
		return 0.6
	default:
		return 0.3
	}
}

func costEfficiency(c registry.Cost) float64 {
	switch c {
	case registry.CostLow:
		return 1.0
	case registry.CostMedium:
		return 0.6
	default:
		return 0.3
	}
}

func qualityScore(c registry.Capability) float64 {
	return qualityWeight(c.Quality) * c.Reliability
}

func speedScore(c registry.Capability) float64 {
	return speedWeight(c.Speed) * c.Reliability
}

// costEffectiveScore averages cost efficiency with quality so the
// cheapest row does not win on price alone, then weighs by reliability.
func costEffectiveScore(c registry.Capability) float64 {
	return (costEfficiency(c.Cost) + qualityWeight(c.Quality)) / 2 * c.Reliability
}

// weights holds the balanced-strategy mix of quality/speed/cost.
type weights struct {
	quality float64
	speed   float64
	cost    float64
}

// balancedWeights derives the balanced mix from user preferences. The
// defaults are 0.4/0.3/0.3; an explicit bias raises its own component and
// the remaining components shrink proportionally so the mix keeps summing
// to 1.
func balancedWeights(ctx *scenario.Context) weights {
	w := weights{quality: 0.4, speed: 0.3, cost: 0.3}
	if ctx == nil {
		return w
	}

	switch ctx.Prefs.Bias {
	case scenario.BiasSpeed:
		scale := (1 - 0.5) / (w.quality + w.cost)
		w.speed = 0.5
		w.quality *= scale
		w.cost *= scale
	case scenario.BiasQuality:
		scale := (1 - 0.6) / (w.speed + w.cost)
		w.quality = 0.6
		w.speed *= scale
		w.cost *= scale
	}
	if ctx.Prefs.CostSensitivity == scenario.LevelHigh {
		scale := (1 - 0.5) / (w.quality + w.speed)
		w.cost = 0.5
		w.quality *= scale
		w.speed *= scale
	}
	return w
}

func balancedScore(c registry.Capability, w weights) float64 {
	return w.quality*qualityScore(c) + w.speed*speedScore(c) + w.cost*costEfficiency(c.Cost)*c.Reliability
}
