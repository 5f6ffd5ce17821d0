package sim

import "math"

// Track answers "how far is this point from the line".
type Track interface {
	// Offset returns the distance in mm from p to the line centerline, and
	// false when no line is painted near p.
	Offset(x, y float64) (float64, bool)
}

// NewTrack builds the track described by ts. ts must be validated.
func NewTrack(ts TrackScript) Track {
	lead := leadIn{length: ts.LeadInMM}
	switch ts.Kind {
	case "arc":
		return withGaps(&arcTrack{lead: lead, radius: ts.RadiusMM, sweep: ts.SweepDeg * math.Pi / 180, leadOut: ts.LengthMM}, ts.Gaps)
	default:
		return withGaps(&straightTrack{lead: lead, length: ts.LengthMM}, ts.Gaps)
	}
}

// shape maps a point to its distance along the centerline and its lateral
// offset from it.
type shape interface {
	locate(x, y float64) (along, lateral float64, ok bool)
}

type gapped struct {
	s    shape
	gaps []Gap
}

func withGaps(s shape, gaps []Gap) Track { return gapped{s: s, gaps: gaps} }

func (g gapped) Offset(x, y float64) (float64, bool) {
	along, lat, ok := g.s.locate(x, y)
	if !ok {
		return 0, false
	}
	for _, gp := range g.gaps {
		if along >= gp.AtMM && along < gp.AtMM+gp.WidthMM {
			return 0, false
		}
	}
	return math.Abs(lat), true
}

// leadIn is the straight stub behind the start point, along -Y.
type leadIn struct {
	length float64
}

func (l leadIn) locate(x, y float64) (float64, float64, bool) {
	if y < -l.length || y > 0 {
		return 0, 0, false
	}
	return y, x, true
}

type straightTrack struct {
	lead   leadIn
	length float64
}

func (t *straightTrack) locate(x, y float64) (float64, float64, bool) {
	if y <= 0 {
		return t.lead.locate(x, y)
	}
	if y > t.length {
		return 0, 0, false
	}
	return y, x, true
}

// arcTrack starts at the origin heading north and curves right around
// (radius, 0), then continues straight for leadOut.
type arcTrack struct {
	lead    leadIn
	radius  float64
	sweep   float64
	leadOut float64
}

func (t *arcTrack) locate(x, y float64) (float64, float64, bool) {
	// Lead-in only applies behind the start and near the Y axis.
	if y <= 0 && x < t.radius/2 {
		if along, lat, ok := t.lead.locate(x, y); ok {
			return along, lat, true
		}
	}

	dx, dy := x-t.radius, y
	phi := math.Atan2(dy, -dx)
	if phi < -math.Pi/2 {
		phi += 2 * math.Pi
	}
	best := math.Inf(1)
	var bestAlong float64
	found := false
	if phi >= 0 && phi <= t.sweep {
		best = math.Abs(math.Hypot(dx, dy) - t.radius)
		bestAlong = phi * t.radius
		found = true
	}

	if t.leadOut > 0 {
		// End of arc and its tangent (compass heading = sweep).
		ex := t.radius - t.radius*math.Cos(t.sweep)
		ey := t.radius * math.Sin(t.sweep)
		fx, fy := math.Sin(t.sweep), math.Cos(t.sweep)
		px, py := x-ex, y-ey
		s := px*fx + py*fy
		if s >= 0 && s <= t.leadOut {
			lat := math.Abs(px*fy - py*fx)
			if lat < best {
				best = lat
				bestAlong = t.sweep*t.radius + s
				found = true
			}
		}
	}
	if !found {
		return 0, 0, false
	}
	return bestAlong, best, true
}
