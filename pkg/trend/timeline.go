package trend

import "time"

// Point is one scan as seen by the timeline. AreaCm2 is nil for scans taken
// without a scale.
type Point struct {
	ID        string
	Timestamp time.Time
	AreaCm2   *float64
}

type Entry struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	AreaCm2   *float64  `json:"area_cm2"`
	Status    Trend     `json:"status,omitempty"`
}

type Progress struct {
	Timeline        []Entry          `json:"timeline"`
	Trend           Trend            `json:"trend,omitempty"`
	Recommendations []Recommendation `json:"recommendations"`
}

// Timeline labels every calibrated scan against the next older calibrated
// scan. points must be ordered newest first. The overall trend compares the
// two newest calibrated scans; with fewer than two there is no trend and only
// the stable advice is returned.
func Timeline(points []Point) Progress {
	p := Progress{Timeline: make([]Entry, len(points))}

	var older *float64
	for i := len(points) - 1; i >= 0; i-- {
		pt := points[i]
		e := Entry{ID: pt.ID, Timestamp: pt.Timestamp, AreaCm2: pt.AreaCm2}
		if pt.AreaCm2 != nil {
			if older != nil {
				e.Status = Classify(*pt.AreaCm2, *older)
			}
			older = pt.AreaCm2
		}
		p.Timeline[i] = e
	}

	for _, e := range p.Timeline {
		if e.AreaCm2 == nil {
			continue
		}
		p.Trend = e.Status
		break
	}

	p.Recommendations = Recommendations(p.Trend)
	return p
}
