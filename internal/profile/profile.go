// Package profile is the firing profile model and its JSON transport shape:
// {"type":"profile","name":"...","data":[[seconds,degrees],...]}
package profile

import (
	"encoding/json"
	"math"

	"github.com/juju/errors"
)

const TransportType = "profile"

type Point struct {
	Time float64 // seconds since start
	Temp float64 // degrees
}

func (p Point) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]float64{p.Time, p.Temp})
}

func (p *Point) UnmarshalJSON(b []byte) error {
	var raw []float64
	if err := json.Unmarshal(b, &raw); err != nil {
		return errors.Annotate(err, "profile point")
	}
	if len(raw) != 2 {
		return errors.NotValidf("profile point len=%d expected [time, temp]", len(raw))
	}
	p.Time, p.Temp = raw[0], raw[1]
	return nil
}

// Profile is immutable, construct with New or Parse.
type Profile struct {
	name   string
	points []Point
}

// New validates and copies points.
func New(name string, points []Point) (Profile, error) {
	p := Profile{name: name, points: append([]Point(nil), points...)}
	if err := p.Validate(); err != nil {
		return Profile{}, err
	}
	return p, nil
}

func (p Profile) Name() string      { return p.name }
func (p Profile) Len() int          { return len(p.points) }
func (p Profile) IsZero() bool      { return p.name == "" && len(p.points) == 0 }
func (p Profile) Point(i int) Point { return p.points[i] }

func (p Profile) Points() []Point { return append([]Point(nil), p.points...) }

// Duration is time of the last point in seconds.
func (p Profile) Duration() float64 {
	if len(p.points) == 0 {
		return 0
	}
	return p.points[len(p.points)-1].Time
}

func (p Profile) Validate() error {
	if p.name == "" {
		return errors.NotValidf("profile name empty")
	}
	if len(p.points) < 2 {
		return errors.NotValidf("profile %q points=%d need at least 2", p.name, len(p.points))
	}
	if p.points[0].Time != 0 {
		return errors.NotValidf("profile %q first point time=%v must be 0", p.name, p.points[0].Time)
	}
	for i, pt := range p.points {
		if !finite(pt.Time) || !finite(pt.Temp) {
			return errors.NotValidf("profile %q point[%d]=%v not finite", p.name, i, pt)
		}
		if i > 0 && pt.Time < p.points[i-1].Time {
			return errors.NotValidf("profile %q point[%d] time=%v before previous=%v", p.name, i, pt.Time, p.points[i-1].Time)
		}
	}
	return nil
}

// TargetAt interpolates target temperature at t seconds.
func (p Profile) TargetAt(t float64) float64 {
	if len(p.points) == 0 {
		return 0
	}
	if t <= p.points[0].Time {
		return p.points[0].Temp
	}
	for i := 1; i < len(p.points); i++ {
		a, b := p.points[i-1], p.points[i]
		if t <= b.Time {
			if b.Time == a.Time {
				return b.Temp
			}
			return a.Temp + (b.Temp-a.Temp)*(t-a.Time)/(b.Time-a.Time)
		}
	}
	return p.points[len(p.points)-1].Temp
}

// StartOffset returns seconds into the profile where an oven already at temp should begin,
// so a warm kiln skips the part of the first ramp it has passed.
// Zero when temp is at or below the start or no rising segment reaches it.
func (p Profile) StartOffset(temp float64) float64 {
	if len(p.points) == 0 || temp <= p.points[0].Temp {
		return 0
	}
	for i := 1; i < len(p.points); i++ {
		a, b := p.points[i-1], p.points[i]
		if b.Temp <= a.Temp {
			continue
		}
		if a.Temp <= temp && temp <= b.Temp {
			return a.Time + (b.Time-a.Time)*(temp-a.Temp)/(b.Temp-a.Temp)
		}
	}
	return 0
}

type record struct {
	Type string  `json:"type,omitempty"`
	Name string  `json:"name"`
	Data []Point `json:"data"`
}

func (p Profile) MarshalJSON() ([]byte, error) {
	return json.Marshal(record{Type: TransportType, Name: p.name, Data: p.points})
}

func (p *Profile) UnmarshalJSON(b []byte) error {
	var r record
	if err := json.Unmarshal(b, &r); err != nil {
		return errors.Annotate(err, "profile")
	}
	if r.Type != "" && r.Type != TransportType {
		return errors.NotValidf("profile type=%q", r.Type)
	}
	parsed, err := New(r.Name, r.Data)
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

func Parse(b []byte) (Profile, error) {
	var p Profile
	err := json.Unmarshal(b, &p)
	return p, errors.Trace(err)
}

func finite(f float64) bool { return !math.IsNaN(f) && !math.IsInf(f, 0) }
