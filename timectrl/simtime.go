package timectrl

import (
	"fmt"
	"math"
	"math/big"
	"time"

	"github.com/soniakeys/meeus/v3/julian"
)

const nanosPerSecond = 1_000_000_000

const (
	secondsPerDay  = 86_400
	secondsPerYear = 31_557_600 // Julian year, 365.25 days
)

// SimTime is an absolute simulation instant: nanoseconds since the Unix
// epoch, held as whole seconds plus a nanosecond remainder in [0, 1e9).
// The split form covers hundreds of billions of years without overflow.
type SimTime struct {
	sec  int64
	nsec int64
}

// SimDuration is a signed span of simulation time in the same split form.
type SimDuration struct {
	sec  int64
	nsec int64
}

// Epoch is the zero SimTime (1970-01-01T00:00:00Z).
var Epoch = SimTime{}

func normalize(sec, nsec int64) (int64, int64) {
	sec += nsec / nanosPerSecond
	nsec %= nanosPerSecond
	if nsec < 0 {
		nsec += nanosPerSecond
		sec--
	}
	return sec, nsec
}

// FromNanos builds a SimTime from nanoseconds since the epoch.
func FromNanos(ns int64) SimTime {
	s, n := normalize(0, ns)
	return SimTime{sec: s, nsec: n}
}

// FromSeconds builds a SimTime from whole seconds since the epoch.
func FromSeconds(sec int64) SimTime { return SimTime{sec: sec} }

// FromTime converts a wall-clock time.
func FromTime(t time.Time) SimTime {
	return SimTime{sec: t.Unix(), nsec: int64(t.Nanosecond())}
}

// ParseSimTime parses a decimal count of nanoseconds since the epoch.
func ParseSimTime(s string) (SimTime, error) {
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return SimTime{}, fmt.Errorf("invalid sim time %q: expected decimal nanoseconds", s)
	}
	sec, nsec, err := splitBig(v)
	if err != nil {
		return SimTime{}, fmt.Errorf("invalid sim time %q: %w", s, err)
	}
	return SimTime{sec: sec, nsec: nsec}, nil
}

// Unix returns the whole seconds and nanosecond remainder.
func (t SimTime) Unix() (sec, nsec int64) { return t.sec, t.nsec }

// Time converts to a UTC wall-clock time.
func (t SimTime) Time() time.Time { return time.Unix(t.sec, t.nsec).UTC() }

// Seconds returns seconds since the epoch as a float.
func (t SimTime) Seconds() float64 {
	return float64(t.sec) + float64(t.nsec)/nanosPerSecond
}

// JulianDay returns the Julian day number of t.
func (t SimTime) JulianDay() float64 { return julian.TimeToJD(t.Time()) }

func (t SimTime) Add(d SimDuration) SimTime {
	s, n := normalize(t.sec+d.sec, t.nsec+d.nsec)
	return SimTime{sec: s, nsec: n}
}

// Sub returns t - u.
func (t SimTime) Sub(u SimTime) SimDuration {
	s, n := normalize(t.sec-u.sec, t.nsec-u.nsec)
	return SimDuration{sec: s, nsec: n}
}

func (t SimTime) Before(u SimTime) bool {
	return t.sec < u.sec || (t.sec == u.sec && t.nsec < u.nsec)
}

func (t SimTime) Equal(u SimTime) bool { return t == u }

// Nanos returns the instant as a big integer count of nanoseconds.
func (t SimTime) Nanos() *big.Int { return joinBig(t.sec, t.nsec) }

// String renders decimal nanoseconds, the canonical text form.
func (t SimTime) String() string { return t.Nanos().String() }

func (t SimTime) MarshalText() ([]byte, error) { return []byte(t.String()), nil }

func (t *SimTime) UnmarshalText(text []byte) error {
	parsed, err := ParseSimTime(string(text))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// Seconds builds a duration of whole seconds.
func Seconds(sec int64) SimDuration { return SimDuration{sec: sec} }

// Nanoseconds builds a duration from nanoseconds.
func Nanoseconds(ns int64) SimDuration {
	s, n := normalize(0, ns)
	return SimDuration{sec: s, nsec: n}
}

// Days builds a duration from a fractional number of days, rounded to the
// nearest nanosecond.
func Days(days float64) SimDuration { return fromFloatSeconds(days * secondsPerDay) }

// Years builds a duration of Julian years (365.25 days each).
func Years(years int64) SimDuration { return SimDuration{sec: years * secondsPerYear} }

// SecondsFloat builds a duration from fractional seconds, rounded to the
// nearest nanosecond.
func SecondsFloat(s float64) SimDuration { return fromFloatSeconds(s) }

// FromStd converts a time.Duration.
func FromStd(d time.Duration) SimDuration { return Nanoseconds(int64(d)) }

func fromFloatSeconds(s float64) SimDuration {
	whole := math.Floor(s)
	frac := math.Round((s - whole) * nanosPerSecond)
	sec, nsec := normalize(int64(whole), int64(frac))
	return SimDuration{sec: sec, nsec: nsec}
}

func (d SimDuration) Add(o SimDuration) SimDuration {
	s, n := normalize(d.sec+o.sec, d.nsec+o.nsec)
	return SimDuration{sec: s, nsec: n}
}

// Less reports whether d is shorter than o.
func (d SimDuration) Less(o SimDuration) bool {
	return d.sec < o.sec || (d.sec == o.sec && d.nsec < o.nsec)
}

func (d SimDuration) IsZero() bool { return d.sec == 0 && d.nsec == 0 }

func (d SimDuration) IsPositive() bool { return d.sec > 0 || (d.sec == 0 && d.nsec > 0) }

// Seconds returns the duration in seconds as a float.
func (d SimDuration) Seconds() float64 {
	return float64(d.sec) + float64(d.nsec)/nanosPerSecond
}

// Std converts to a time.Duration, saturating at its range.
func (d SimDuration) Std() time.Duration {
	v := joinBig(d.sec, d.nsec)
	if !v.IsInt64() {
		if v.Sign() > 0 {
			return time.Duration(math.MaxInt64)
		}
		return time.Duration(math.MinInt64)
	}
	return time.Duration(v.Int64())
}

// Mul returns d*k.
func (d SimDuration) Mul(k int64) SimDuration {
	v := joinBig(d.sec, d.nsec)
	v.Mul(v, big.NewInt(k))
	return durationFromBig(v)
}

// Div returns d/n truncated to whole nanoseconds. Division by zero returns
// the zero duration.
func (d SimDuration) Div(n int64) SimDuration {
	if n == 0 {
		return SimDuration{}
	}
	v := joinBig(d.sec, d.nsec)
	v.Quo(v, big.NewInt(n))
	return durationFromBig(v)
}

// Nanos returns the span as a big integer count of nanoseconds.
func (d SimDuration) Nanos() *big.Int { return joinBig(d.sec, d.nsec) }

func (d SimDuration) String() string { return d.Nanos().String() + "ns" }

// PhaseFraction returns the position of t within a repeating period as a
// value in [0, 1). The remainder is taken on exact integer nanoseconds so
// the result does not degrade with the magnitude of t. A non-positive
// period yields 0.
func PhaseFraction(t SimTime, period SimDuration) float64 {
	if !period.IsPositive() {
		return 0
	}
	p := period.Nanos()
	rem := new(big.Int).Mod(t.Nanos(), p)
	num, _ := new(big.Float).SetInt(rem).Float64()
	den, _ := new(big.Float).SetInt(p).Float64()
	f := num / den
	if f >= 1 {
		return 0
	}
	return f
}

func joinBig(sec, nsec int64) *big.Int {
	v := big.NewInt(sec)
	v.Mul(v, big.NewInt(nanosPerSecond))
	return v.Add(v, big.NewInt(nsec))
}

func splitBig(v *big.Int) (int64, int64, error) {
	sec, nsec := new(big.Int).DivMod(v, big.NewInt(nanosPerSecond), new(big.Int))
	if !sec.IsInt64() {
		return 0, 0, fmt.Errorf("value out of range")
	}
	return sec.Int64(), nsec.Int64(), nil
}

func durationFromBig(v *big.Int) SimDuration {
	sec, nsec, err := splitBig(v)
	if err != nil {
		if v.Sign() > 0 {
			return SimDuration{sec: math.MaxInt64, nsec: nanosPerSecond - 1}
		}
		return SimDuration{sec: math.MinInt64}
	}
	return SimDuration{sec: sec, nsec: nsec}
}
