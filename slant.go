/*
Copyright © 2023 the slantcol authors.
This file is part of slantcol.

slantcol is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

slantcol is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with slantcol.  If not, see <http://www.gnu.org/licenses/>.
*/

package slantcol

import (
	"errors"
	"fmt"
	"sort"
	"time"
)

// BuildProfile computes the slant-column receptor points for one
// instrument position, one observation time and a set of release
// heights. The returned profile's points are ordered by ascending
// height. When the sun is at or below the horizon at t, the profile is
// returned with SunUp=false and every point flagged invalid rather than
// being omitted, so callers can tell "no sun" from "no data requested".
func BuildProfile(pos InstrumentPosition, t time.Time, heights []float64) (*SlantProfile, error) {
	if err := pos.check(); err != nil {
		return nil, err
	}
	if len(heights) == 0 {
		return nil, fmt.Errorf("slantcol: no release heights requested")
	}
	h := make([]float64, len(heights))
	copy(h, heights)
	sort.Float64s(h)

	p := &SlantProfile{
		Time:       t.UTC(),
		Instrument: pos,
		SunUp:      true,
		Points:     make([]*ReceptorPoint, len(h)),
	}
	for i, height := range h {
		lat, lon, err := SlantPoint(pos, t, height)
		pt := &ReceptorPoint{
			Time:      t.UTC(),
			HeightAIL: height,
			Lat:       lat,
			Lon:       lon,
			ZASL:      pos.ZASL + height,
			Valid:     err == nil,
			Err:       err,
		}
		if errors.Is(err, ErrSunBelowHorizon) {
			p.SunUp = false
		}
		p.Points[i] = pt
	}
	return p, nil
}

// Resolve annotates each point of a profile with the surface elevation
// of the nearest terrain sample and the point's height above ground
// level. It returns a new profile; the input is not modified. Points
// that land below the surface are kept with AboveGround=false. Where
// the terrain model has no coverage, the point's ground fields stay nil
// and the point is flagged invalid.
func Resolve(p *SlantProfile, ix *ElevationIndex) *SlantProfile {
	out := &SlantProfile{
		Time:       p.Time,
		Instrument: p.Instrument,
		SunUp:      p.SunUp,
		Points:     make([]*ReceptorPoint, len(p.Points)),
	}
	for i, pt := range p.Points {
		cp := *pt
		out.Points[i] = &cp
		if !pt.Valid {
			continue
		}
		surf, err := ix.NearestElevation(pt.Lat, pt.Lon)
		if err != nil {
			cp.Valid = false
			cp.Err = err
			continue
		}
		zagl := cp.ZASL - surf
		cp.SurfaceElev = &surf
		cp.ZAGL = &zagl
		cp.AboveGround = zagl >= 0
	}
	return out
}
