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
	"fmt"
	"math"

	"github.com/ctessum/geom"
	"github.com/ctessum/geom/index/rtree"
	"gonum.org/v1/gonum/floats"
)

// A GridCell is one terrain sample from a digital elevation model. The
// embedded point holds the sample location with X=longitude and
// Y=latitude [degrees]. Cells are never mutated after load.
type GridCell struct {
	geom.Point
	Elevation float64 // surface elevation [m ASL]

	idx int // position in the source's native grid order
}

// An ElevationSource is a gridded terrain dataset. Sources with
// different native grids and resolutions (ASTER tiles, HRRR terrain
// fields) all present the same lon/lat degree, meter-elevation
// contract.
type ElevationSource interface {
	// Extent returns the dataset's bounding extent in lon/lat degrees.
	Extent() *geom.Bounds

	// Resolution returns the approximate native grid spacing [degrees].
	Resolution() float64

	// Cells returns the samples within b in stable grid order.
	Cells(b *geom.Bounds) ([]*GridCell, error)
}

// A CoverageGapError reports a query outside the terrain data's extent.
type CoverageGapError struct {
	Lat, Lon float64
}

func (e *CoverageGapError) Error() string {
	return fmt.Sprintf("slantcol: no terrain coverage at (%g, %g)", e.Lat, e.Lon)
}

// An ElevationIndex answers nearest-neighbor elevation queries against
// a bounded subgrid of a terrain dataset. It is read-only after
// creation and safe for concurrent queries.
type ElevationIndex struct {
	tree   *rtree.Rtree
	extent *geom.Bounds // loaded subgrid extent
	window float64      // initial search half-window [degrees]
	ncells int
}

// NewElevationIndex loads the subgrid of src within radiusDeg degrees
// of (centerLat, centerLon) and indexes it for nearest-neighbor
// queries. Loading is a one-time cost per run; the subgrid bound keeps
// each query from scanning a full terrain raster.
func NewElevationIndex(src ElevationSource, centerLat, centerLon, radiusDeg float64) (*ElevationIndex, error) {
	if radiusDeg <= 0 {
		return nil, fmt.Errorf("slantcol: elevation subgrid radius must be positive, got %g", radiusDeg)
	}
	load := boundsIntersection(&geom.Bounds{
		Min: geom.Point{X: centerLon - radiusDeg, Y: centerLat - radiusDeg},
		Max: geom.Point{X: centerLon + radiusDeg, Y: centerLat + radiusDeg},
	}, src.Extent())
	cells, err := src.Cells(load)
	if err != nil {
		return nil, fmt.Errorf("slantcol: loading elevation subgrid: %v", err)
	}
	ix := &ElevationIndex{
		tree:   rtree.NewTree(25, 50),
		extent: load,
		window: 2 * src.Resolution(),
		ncells: len(cells),
	}
	for _, c := range cells {
		ix.tree.Insert(c)
	}
	return ix, nil
}

// Len returns the number of indexed terrain samples.
func (ix *ElevationIndex) Len() int { return ix.ncells }

// NearestElevation returns the elevation of the terrain sample nearest
// to (lat, lon) by great-circle distance. Equidistant samples tie-break
// to the lowest native grid index. It returns a CoverageGapError when
// the point falls outside the loaded extent or no sample exists near
// it.
func (ix *ElevationIndex) NearestElevation(lat, lon float64) (float64, error) {
	if ix.ncells == 0 || !containsPoint(ix.extent, geom.Point{X: lon, Y: lat}) {
		return 0, &CoverageGapError{Lat: lat, Lon: lon}
	}
	// Search a small window around the point first, widening until
	// candidates appear or the window covers the loaded extent.
	var hits []*GridCell
	for w := ix.window; ; w *= 2 {
		b := &geom.Bounds{
			Min: geom.Point{X: lon - w, Y: lat - w},
			Max: geom.Point{X: lon + w, Y: lat + w},
		}
		for _, s := range ix.tree.SearchIntersect(b) {
			hits = append(hits, s.(*GridCell))
		}
		if len(hits) > 0 {
			break
		}
		if containsBounds(b, ix.extent) {
			return 0, &CoverageGapError{Lat: lat, Lon: lon}
		}
	}
	dists := make([]float64, len(hits))
	for i, c := range hits {
		dists[i] = haversine(lat, lon, c.Y, c.X)
	}
	best := hits[floats.MinIdx(dists)]
	min := floats.Min(dists)
	for i, c := range hits {
		if dists[i] == min && c.idx < best.idx {
			best = c
		}
	}
	return best.Elevation, nil
}

// earthRadius is the mean Earth radius [m] used for great-circle
// distances between nearby grid cells.
const earthRadius = 6.371e6

// haversine returns the great-circle distance [m] between two points.
func haversine(lat1, lon1, lat2, lon2 float64) float64 {
	const d = math.Pi / 180
	dLat := (lat2 - lat1) * d
	dLon := (lon2 - lon1) * d
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1*d)*math.Cos(lat2*d)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * earthRadius * math.Asin(math.Sqrt(a))
}

func containsPoint(b *geom.Bounds, p geom.Point) bool {
	return p.X >= b.Min.X && p.X <= b.Max.X && p.Y >= b.Min.Y && p.Y <= b.Max.Y
}

func containsBounds(outer, inner *geom.Bounds) bool {
	return containsPoint(outer, inner.Min) && containsPoint(outer, inner.Max)
}

func boundsIntersection(a, b *geom.Bounds) *geom.Bounds {
	return &geom.Bounds{
		Min: geom.Point{X: math.Max(a.Min.X, b.Min.X), Y: math.Max(a.Min.Y, b.Min.Y)},
		Max: geom.Point{X: math.Min(a.Max.X, b.Max.X), Y: math.Min(a.Max.Y, b.Max.Y)},
	}
}

// A GridSource is an in-memory ElevationSource. It backs tests and
// small uniform terrain models, and is the landing buffer for sources
// that must materialize their whole grid (projected-coordinate files).
type GridSource struct {
	cells  []*GridCell
	extent *geom.Bounds
	res    float64
}

// NewGridSource builds a source from terrain samples. The input order
// defines the native grid order used for nearest-neighbor tie-breaks.
func NewGridSource(cells []GridCell, resolutionDeg float64) (*GridSource, error) {
	if len(cells) == 0 {
		return nil, fmt.Errorf("slantcol: grid source has no cells")
	}
	if resolutionDeg <= 0 {
		return nil, fmt.Errorf("slantcol: grid source resolution must be positive, got %g", resolutionDeg)
	}
	s := &GridSource{
		cells: make([]*GridCell, len(cells)),
		res:   resolutionDeg,
		extent: &geom.Bounds{
			Min: geom.Point{X: math.Inf(1), Y: math.Inf(1)},
			Max: geom.Point{X: math.Inf(-1), Y: math.Inf(-1)},
		},
	}
	for i := range cells {
		c := cells[i]
		c.idx = i
		s.cells[i] = &c
		s.extent.Min.X = math.Min(s.extent.Min.X, c.X)
		s.extent.Min.Y = math.Min(s.extent.Min.Y, c.Y)
		s.extent.Max.X = math.Max(s.extent.Max.X, c.X)
		s.extent.Max.Y = math.Max(s.extent.Max.Y, c.Y)
	}
	return s, nil
}

// Extent implements ElevationSource.
func (s *GridSource) Extent() *geom.Bounds { return s.extent }

// Resolution implements ElevationSource.
func (s *GridSource) Resolution() float64 { return s.res }

// Cells implements ElevationSource.
func (s *GridSource) Cells(b *geom.Bounds) ([]*GridCell, error) {
	var out []*GridCell
	for _, c := range s.cells {
		if containsPoint(b, c.Point) {
			out = append(out, c)
		}
	}
	return out, nil
}
