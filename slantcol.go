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

// Package slantcol generates receptor points for total-column
// atmospheric observations. For a sensor observing along the sun's line
// of sight it computes, at each requested time and release height, the
// location where a particle-dispersion model should release particles,
// following the slant path from the instrument toward the sun across
// the WGS84 ellipsoid and anchoring each point to the terrain below it.
package slantcol

import (
	"fmt"
	"math"
	"sort"
	"time"
)

// Version gives the version number of this version of slantcol.
const Version = "0.1.0"

// InstrumentPosition is the location of the observing instrument.
// It must stay constant for the duration of one profile.
type InstrumentPosition struct {
	Lat  float64 // latitude [degrees north]
	Lon  float64 // longitude [degrees east]
	ZASL float64 // elevation above sea level [m]
}

func (p InstrumentPosition) check() error {
	for _, v := range []float64{p.Lat, p.Lon, p.ZASL} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("slantcol: instrument position is not fully specified: %+v", p)
		}
	}
	if p.Lat < -90 || p.Lat > 90 {
		return fmt.Errorf("slantcol: instrument latitude %g out of range", p.Lat)
	}
	if p.Lon < -180 || p.Lon > 360 {
		return fmt.Errorf("slantcol: instrument longitude %g out of range", p.Lon)
	}
	return nil
}

// A ReceptorPoint is one particle-release location along a slant
// column. Points are immutable once computed; Resolve returns annotated
// copies rather than editing points in place.
type ReceptorPoint struct {
	Time      time.Time // observation time, UTC
	HeightAIL float64   // height above instrument level [m]

	Lat, Lon float64 // receptor location [degrees]
	ZASL     float64 // receptor elevation above sea level [m]

	// Ground-level annotation, filled by Resolve. SurfaceElev and
	// ZAGL stay nil when the terrain model has no coverage at
	// (Lat, Lon).
	SurfaceElev *float64 // surface elevation below the receptor [m ASL]
	ZAGL        *float64 // receptor height above ground level [m]

	// AboveGround reports whether ZAGL is nonnegative. Points driven
	// into terrain by a low sun are kept so downstream filters can
	// see them.
	AboveGround bool

	// Valid is false when no receptor could be computed at this time
	// and height; Err then records the reason.
	Valid bool
	Err   error
}

// A SlantProfile holds the receptor points for a single observation
// time, one per configured release height, ordered by ascending height.
type SlantProfile struct {
	Time       time.Time
	Instrument InstrumentPosition

	// SunUp is false when the sun was at or below the horizon at
	// Time, in which case every point in the profile is invalid.
	SunUp bool

	Points []*ReceptorPoint
}

// Heights returns the profile's release heights in ascending order.
func (p *SlantProfile) Heights() []float64 {
	h := make([]float64, len(p.Points))
	for i, pt := range p.Points {
		h[i] = pt.HeightAIL
	}
	return h
}

// A ReceptorTable aggregates slant profiles across a run. Every profile
// in a table carries the same set of release heights.
type ReceptorTable struct {
	Heights  []float64 // ascending
	Profiles []*SlantProfile
}

// NewReceptorTable returns an empty table for the given release
// heights, which must be nonempty; they are copied and sorted.
func NewReceptorTable(heights []float64) (*ReceptorTable, error) {
	if len(heights) == 0 {
		return nil, fmt.Errorf("slantcol: no release heights requested")
	}
	h := make([]float64, len(heights))
	copy(h, heights)
	sort.Float64s(h)
	for i := 1; i < len(h); i++ {
		if h[i] == h[i-1] {
			return nil, fmt.Errorf("slantcol: duplicate release height %g m", h[i])
		}
	}
	return &ReceptorTable{Heights: h}, nil
}

// Append adds a profile to the table, enforcing the uniform-heights
// invariant.
func (t *ReceptorTable) Append(p *SlantProfile) error {
	ph := p.Heights()
	if len(ph) != len(t.Heights) {
		return fmt.Errorf("slantcol: profile at %v has %d heights, table has %d",
			p.Time, len(ph), len(t.Heights))
	}
	for i, h := range ph {
		if h != t.Heights[i] {
			return fmt.Errorf("slantcol: profile at %v height %g m does not match table height %g m",
				p.Time, h, t.Heights[i])
		}
	}
	t.Profiles = append(t.Profiles, p)
	return nil
}

// Sort orders the table's profiles by ascending time. Points within a
// profile are already ordered by ascending height.
func (t *ReceptorTable) Sort() {
	sort.Slice(t.Profiles, func(i, j int) bool {
		return t.Profiles[i].Time.Before(t.Profiles[j].Time)
	})
}

// A Row is one record of the table's output schema: one receptor per
// (time, height) pair. Invalid rows are included so failures can be
// audited; dropping them is the consumer's decision.
type Row struct {
	Time        time.Time // UTC
	HeightAIL   float64   // [m]
	Lat, Lon    float64   // [degrees]
	ZASL        float64   // [m]
	SurfaceElev *float64  // [m], nil without terrain coverage
	ZAGL        *float64  // [m], nil without terrain coverage
	AboveGround bool
	Valid       bool
}

// Rows flattens the table into its row-oriented output schema, ordered
// by ascending (time, height).
func (t *ReceptorTable) Rows() []Row {
	t.Sort()
	rows := make([]Row, 0, len(t.Profiles)*len(t.Heights))
	for _, p := range t.Profiles {
		for _, pt := range p.Points {
			rows = append(rows, Row{
				Time:        pt.Time.UTC(),
				HeightAIL:   pt.HeightAIL,
				Lat:         pt.Lat,
				Lon:         pt.Lon,
				ZASL:        pt.ZASL,
				SurfaceElev: pt.SurfaceElev,
				ZAGL:        pt.ZAGL,
				AboveGround: pt.AboveGround,
				Valid:       pt.Valid,
			})
		}
	}
	return rows
}
