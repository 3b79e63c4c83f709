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
	"math"
	"time"

	"github.com/soniakeys/meeus/v3/coord"
	"github.com/soniakeys/meeus/v3/julian"
	"github.com/soniakeys/meeus/v3/sidereal"
	"github.com/soniakeys/meeus/v3/solar"
	"github.com/soniakeys/unit"
	"github.com/tidwall/geodesic"
)

// ErrSunBelowHorizon reports that the sun was at or below the horizon
// at the requested time, so no slant geometry exists.
var ErrSunBelowHorizon = errors.New("slantcol: sun at or below horizon; slant geometry undefined")

// MinSolarElevation is the smallest solar elevation angle [degrees] for
// which a slant path is computed. Below it the horizontal offset
// approaches infinity as tan(elevation) goes to zero.
const MinSolarElevation = 0.1

// SolarPosition returns the sun's compass azimuth [degrees clockwise
// from north] and elevation angle above the horizon [degrees] as seen
// from (lat, lon) at time t.
func SolarPosition(lat, lon float64, t time.Time) (azimuth, elevation float64) {
	jd := julian.TimeToJD(t.UTC())
	α, δ := solar.ApparentEquatorial(jd)
	st := sidereal.Apparent(jd)
	φ := unit.AngleFromDeg(lat)
	ψ := unit.AngleFromDeg(-lon) // Meeus longitudes are positive west.
	A, h := coord.EqToHz(α, δ, φ, ψ, st)
	// Meeus azimuth is westward from south; convert to a compass bearing.
	azimuth = math.Mod(A.Deg()+180, 360)
	if azimuth < 0 {
		azimuth += 360
	}
	return azimuth, h.Deg()
}

// Project solves the direct geodesic problem on the WGS84 ellipsoid:
// starting at (lat, lon), travel dist meters along the given compass
// bearing [degrees clockwise from north] and return the destination.
// A zero distance returns the starting point exactly.
func Project(lat, lon, bearing, dist float64) (destLat, destLon float64) {
	if dist == 0 {
		return lat, lon
	}
	geodesic.WGS84.Direct(lat, lon, bearing, dist, &destLat, &destLon, nil)
	return destLat, destLon
}

// SlantPoint returns the location of the point on the solar slant
// column height meters above the instrument at time t. The horizontal
// offset is height/tan(elevation) in the direction of the solar
// azimuth, so a low sun pushes high release points far from the
// instrument. It returns ErrSunBelowHorizon when the solar elevation is
// at or below MinSolarElevation.
func SlantPoint(pos InstrumentPosition, t time.Time, height float64) (lat, lon float64, err error) {
	az, el := SolarPosition(pos.Lat, pos.Lon, t)
	if el <= MinSolarElevation {
		return math.NaN(), math.NaN(), ErrSunBelowHorizon
	}
	dist := height / math.Tan(el*math.Pi/180)
	lat, lon = Project(pos.Lat, pos.Lon, az, dist)
	return lat, lon, nil
}
