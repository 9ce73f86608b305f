// Package easing provides the fixed catalog of easing curves that shape the
// interpolation parameter between two keyframes.
//
// Curves are identified by a Style value, which is what asset data stores.
// A Style is resolved once to its Func when an asset is built, so sampling
// calls the curve directly.
package easing

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"golang.org/x/text/cases"
)

// ErrUnknownStyle is returned when an easing name is not in the catalog.
var ErrUnknownStyle = errors.New("unknown easing style")

// Func maps a normalized time in [0, 1] to an eased value. Elastic and
// bounce curves may leave [0, 1] in between the endpoints. Inputs outside
// [0, 1] are not supported.
type Func func(t float32) float32

// Style names one curve of the catalog.
type Style uint8

// Catalog of easing styles.
const (
	Linear Style = iota
	Constant
	CubicIn
	CubicOut
	CubicInOut
	BounceIn
	BounceOut
	BounceInOut
	ElasticIn
	ElasticOut
	ElasticInOut

	styleCount
)

var styleNames = [styleCount]string{
	Linear:       "linear",
	Constant:     "constant",
	CubicIn:      "cubicIn",
	CubicOut:     "cubicOut",
	CubicInOut:   "cubicInOut",
	BounceIn:     "bounceIn",
	BounceOut:    "bounceOut",
	BounceInOut:  "bounceInOut",
	ElasticIn:    "elasticIn",
	ElasticOut:   "elasticOut",
	ElasticInOut: "elasticInOut",
}

var styleFuncs = [styleCount]Func{
	Linear:       linear,
	Constant:     constant,
	CubicIn:      cubicIn,
	CubicOut:     cubicOut,
	CubicInOut:   cubicInOut,
	BounceIn:     bounceIn,
	BounceOut:    bounceOut,
	BounceInOut:  bounceInOut,
	ElasticIn:    elasticIn,
	ElasticOut:   elasticOut,
	ElasticInOut: elasticInOut,
}

// String returns the catalog name of the style.
func (s Style) String() string {
	if s < styleCount {
		return styleNames[s]
	}
	return fmt.Sprintf("Style(%d)", uint8(s))
}

// Valid reports whether s names a catalog entry.
func (s Style) Valid() bool {
	return s < styleCount
}

// Func resolves the style to its curve. Unknown styles resolve to Linear.
func (s Style) Func() Func {
	if s < styleCount {
		return styleFuncs[s]
	}
	return linear
}

// Styles returns every catalog style in declaration order.
func Styles() []Style {
	out := make([]Style, 0, styleCount)
	for s := Style(0); s < styleCount; s++ {
		out = append(out, s)
	}
	return out
}

// stylesByKey maps lookup keys of catalog names to styles.
var stylesByKey = func() map[string]Style {
	m := make(map[string]Style, styleCount)
	for s := Style(0); s < styleCount; s++ {
		m[lookupKey(styleNames[s])] = s
	}
	return m
}()

var separators = strings.NewReplacer("-", "", "_", "", " ", "")

// lookupKey case-folds name and drops word separators.
func lookupKey(name string) string {
	return cases.Fold().String(separators.Replace(name))
}

// Parse looks up a style by name, ignoring case and word separators
// ("cubicInOut", "CUBICINOUT", "cubic-in-out").
func Parse(name string) (Style, error) {
	if s, ok := stylesByKey[lookupKey(name)]; ok {
		return s, nil
	}
	return Linear, fmt.Errorf("%w: %q", ErrUnknownStyle, name)
}

// Compose looks up a style from a curve family ("cubic", "bounce", "elastic",
// "linear", "constant") and a direction ("in", "out", "inOut"). The direction
// is ignored for linear and constant.
func Compose(family, direction string) (Style, error) {
	switch lookupKey(family) {
	case "linear":
		return Linear, nil
	case "constant":
		return Constant, nil
	}
	if direction == "" {
		direction = "in"
	}
	return Parse(family + direction)
}

// MarshalText implements encoding.TextMarshaler.
func (s Style) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownStyle, uint8(s))
	}
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Style) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

func linear(t float32) float32 { return t }

func constant(float32) float32 { return 0 }

func cubicIn(t float32) float32 { return t * t * t }

func cubicOut(t float32) float32 {
	u := 1 - t
	return 1 - u*u*u
}

func cubicInOut(t float32) float32 {
	if t < 0.5 {
		return 4 * t * t * t
	}
	u := -2*t + 2
	return 1 - u*u*u/2
}

func bounceOut(t float32) float32 {
	const (
		n1 = 7.5625
		d1 = 2.75
	)
	switch {
	case t < 1/d1:
		return n1 * t * t
	case t < 2/d1:
		t -= 1.5 / d1
		return n1*t*t + 0.75
	case t < 2.5/d1:
		t -= 2.25 / d1
		return n1*t*t + 0.9375
	default:
		t -= 2.625 / d1
		return n1*t*t + 0.984375
	}
}

func bounceIn(t float32) float32 {
	return 1 - bounceOut(1-t)
}

func bounceInOut(t float32) float32 {
	if t < 0.5 {
		return (1 - bounceOut(1-2*t)) / 2
	}
	return (1 + bounceOut(2*t-1)) / 2
}

const (
	elasticPeriod      = 2 * math.Pi / 3
	elasticInOutPeriod = 2 * math.Pi / 4.5
)

func elasticIn(t float32) float32 {
	if t <= 0 || t >= 1 {
		return t
	}
	x := float64(t)
	return float32(-math.Pow(2, 10*x-10) * math.Sin((10*x-10.75)*elasticPeriod))
}

func elasticOut(t float32) float32 {
	if t <= 0 || t >= 1 {
		return t
	}
	x := float64(t)
	return float32(math.Pow(2, -10*x)*math.Sin((10*x-0.75)*elasticPeriod) + 1)
}

func elasticInOut(t float32) float32 {
	if t <= 0 || t >= 1 {
		return t
	}
	x := float64(t)
	if x < 0.5 {
		return float32(-(math.Pow(2, 20*x-10) * math.Sin((20*x-11.125)*elasticInOutPeriod)) / 2)
	}
	return float32(math.Pow(2, -20*x+10)*math.Sin((20*x-11.125)*elasticInOutPeriod)/2 + 1)
}
