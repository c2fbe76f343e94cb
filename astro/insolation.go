package astro

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/signalsfoundry/worldframe/coord"
	"github.com/signalsfoundry/worldframe/core"
	"github.com/signalsfoundry/worldframe/model"
	"github.com/signalsfoundry/worldframe/timectrl"
)

// InsolationSample is one point of a seasonal insolation curve.
type InsolationSample struct {
	Time  timectrl.SimTime
	Value float64
}

func orbitalModel(r *core.Resolver, id model.BodyID) (core.OrbitalModel, bool, error) {
	n, err := r.Node(id)
	if err != nil {
		return core.OrbitalModel{}, false, err
	}
	om, ok := n.Model.(core.OrbitalModel)
	return om, ok, nil
}

// DailyInsolation integrates SolarIllumination over one rotation of body
// world starting at dayStart, using samples evenly spaced instants:
// Σ flux_i·Δt with Δt = rotation period / samples. Static bodies,
// non-rotating bodies and a zero sample count yield 0.
func DailyInsolation(r *core.Resolver, world model.BodyID, c coord.SphericalCoordinate, sun model.BodyID, dayStart timectrl.SimTime, samples int) (float64, error) {
	om, ok, err := orbitalModel(r, world)
	if err != nil {
		return 0, err
	}
	if !ok || !om.RotationPeriod.IsPositive() || samples <= 0 {
		return 0, nil
	}

	dt := om.RotationPeriod.Div(int64(samples))
	flux := make([]float64, samples)
	for i := range flux {
		f, err := SolarIllumination(r, world, c, sun, dayStart.Add(dt.Mul(int64(i))))
		if err != nil {
			return 0, err
		}
		flux[i] = f
	}
	return floats.Sum(flux) * dt.Seconds(), nil
}

// SeasonalInsolationCurve samples DailyInsolation every step across one
// orbital period of body world starting at yearStart. Non-orbiting bodies
// yield an empty curve; a non-positive step is an error.
func SeasonalInsolationCurve(r *core.Resolver, world model.BodyID, c coord.SphericalCoordinate, sun model.BodyID, yearStart timectrl.SimTime, step timectrl.SimDuration, daySamples int) ([]InsolationSample, error) {
	if !step.IsPositive() {
		return nil, ErrInvalidStep
	}
	om, ok, err := orbitalModel(r, world)
	if err != nil {
		return nil, err
	}
	if !ok || !om.Period.IsPositive() {
		return nil, nil
	}

	end := yearStart.Add(om.Period)
	var out []InsolationSample
	for t := yearStart; t.Before(end); t = t.Add(step) {
		v, err := DailyInsolation(r, world, c, sun, t, daySamples)
		if err != nil {
			return nil, err
		}
		out = append(out, InsolationSample{Time: t, Value: v})
	}
	return out, nil
}

// Seasons marks the extreme and steepest points of a seasonal curve. Any
// field may be nil when the curve does not show that feature.
type Seasons struct {
	SummerSolstice  *InsolationSample
	WinterSolstice  *InsolationSample
	VernalEquinox   *InsolationSample
	AutumnalEquinox *InsolationSample
}

// DetectSeasons finds the solstices as the highest local maximum and the
// lowest local minimum of the curve, and the equinoxes as the samples with
// the steepest rising and falling central slope. Fewer than three samples
// yield empty Seasons.
func DetectSeasons(samples []InsolationSample) Seasons {
	var s Seasons
	if len(samples) < 3 {
		return s
	}
	var bestRise, bestFall float64
	for i := 1; i < len(samples)-1; i++ {
		prev, curr, next := samples[i-1], samples[i], samples[i+1]
		dPrev := curr.Value - prev.Value
		dNext := next.Value - curr.Value
		slope := (next.Value - prev.Value) * 0.5

		if dPrev > 0 && dNext < 0 && (s.SummerSolstice == nil || curr.Value > s.SummerSolstice.Value) {
			s.SummerSolstice = &samples[i]
		}
		if dPrev < 0 && dNext > 0 && (s.WinterSolstice == nil || curr.Value < s.WinterSolstice.Value) {
			s.WinterSolstice = &samples[i]
		}
		if slope > 0 && (s.VernalEquinox == nil || slope > bestRise) {
			s.VernalEquinox, bestRise = &samples[i], slope
		}
		if slope < 0 && (s.AutumnalEquinox == nil || slope < bestFall) {
			s.AutumnalEquinox, bestFall = &samples[i], slope
		}
	}
	return s
}

// CurveSummary holds basic statistics of a curve.
type CurveSummary struct {
	Count  int
	Mean   float64
	StdDev float64
	Min    float64
	Max    float64
}

// SummarizeCurve returns the mean, standard deviation and range of the
// sample values. An empty curve yields the zero summary.
func SummarizeCurve(samples []InsolationSample) CurveSummary {
	if len(samples) == 0 {
		return CurveSummary{}
	}
	values := make([]float64, len(samples))
	for i, s := range samples {
		values[i] = s.Value
	}
	mean, std := stat.MeanStdDev(values, nil)
	if len(values) < 2 {
		std = 0
	}
	return CurveSummary{
		Count:  len(values),
		Mean:   mean,
		StdDev: std,
		Min:    floats.Min(values),
		Max:    floats.Max(values),
	}
}
