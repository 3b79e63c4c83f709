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

	"github.com/ctessum/cdf"
	"github.com/ctessum/geom"
	"github.com/ctessum/geom/proj"
	"github.com/ctessum/sparse"
)

// COARDSVars names the variables of a gridded terrain NetCDF file.
type COARDSVars struct {
	// Elevation is the surface elevation variable [m ASL], e.g.
	// "ASTER_GDEM_DEM" for ASTER tiles or "HGT_P0_L1_GLC0" for HRRR
	// terrain extracts.
	Elevation string

	// Lat and Lon are the coordinate variables: either 1-D axes of a
	// regular grid or 2-D fields of a curvilinear one.
	Lat, Lon string
}

// ReadCOARDS reads a COARDS-compliant gridded terrain dataset whose
// coordinates are in lon/lat degrees. It handles regular grids with
// 1-D coordinate axes and curvilinear grids with 2-D coordinate fields.
func ReadCOARDS(rw cdf.ReaderWriterAt, v COARDSVars) (*GridSource, error) {
	f, err := cdf.Open(rw)
	if err != nil {
		return nil, fmt.Errorf("slantcol: opening terrain file: %v", err)
	}
	lat, err := readVar(f, v.Lat)
	if err != nil {
		return nil, err
	}
	lon, err := readVar(f, v.Lon)
	if err != nil {
		return nil, err
	}
	elev, err := readVar(f, v.Elevation)
	if err != nil {
		return nil, err
	}
	ny, nx, err := gridShape(elev)
	if err != nil {
		return nil, err
	}

	var latAt, lonAt func(j, i int) float64
	switch {
	case len(lat.Shape) == 1 && len(lon.Shape) == 1:
		if lat.Shape[0] != ny || lon.Shape[0] != nx {
			return nil, fmt.Errorf("slantcol: terrain axes are %d×%d but elevation grid is %d×%d",
				lat.Shape[0], lon.Shape[0], ny, nx)
		}
		latAt = func(j, _ int) float64 { return lat.Elements[j] }
		lonAt = func(_, i int) float64 { return lon.Elements[i] }
	case len(lat.Shape) >= 2 && len(lon.Shape) >= 2:
		if size(lat) != ny*nx || size(lon) != ny*nx {
			return nil, fmt.Errorf("slantcol: terrain coordinate fields do not match %d×%d elevation grid", ny, nx)
		}
		latAt = func(j, i int) float64 { return lat.Elements[j*nx+i] }
		lonAt = func(j, i int) float64 { return lon.Elements[j*nx+i] }
	default:
		return nil, fmt.Errorf("slantcol: terrain coordinates must both be 1-D axes or both 2-D fields")
	}

	cells := make([]GridCell, 0, ny*nx)
	off := size(elev) - ny*nx // skip any leading singleton record
	for j := 0; j < ny; j++ {
		for i := 0; i < nx; i++ {
			cells = append(cells, GridCell{
				Point:     geom.Point{X: lonAt(j, i), Y: latAt(j, i)},
				Elevation: elev.Elements[off+j*nx+i],
			})
		}
	}
	return NewGridSource(cells, resolution(cells, nx))
}

// ReadProjected reads a gridded terrain dataset whose coordinate axes
// are in projected x/y meters (an HRRR-style Lambert conformal extract,
// for example), converting each sample location to lon/lat degrees.
// proj4 gives the grid's spatial reference in Proj4 format.
func ReadProjected(rw cdf.ReaderWriterAt, v COARDSVars, proj4 string) (*GridSource, error) {
	f, err := cdf.Open(rw)
	if err != nil {
		return nil, fmt.Errorf("slantcol: opening terrain file: %v", err)
	}
	y, err := readVar(f, v.Lat)
	if err != nil {
		return nil, err
	}
	x, err := readVar(f, v.Lon)
	if err != nil {
		return nil, err
	}
	elev, err := readVar(f, v.Elevation)
	if err != nil {
		return nil, err
	}
	ny, nx, err := gridShape(elev)
	if err != nil {
		return nil, err
	}
	if len(y.Shape) != 1 || len(x.Shape) != 1 || y.Shape[0] != ny || x.Shape[0] != nx {
		return nil, fmt.Errorf("slantcol: projected terrain grids require 1-D x/y axes matching the elevation grid")
	}

	gridSR, err := proj.Parse(proj4)
	if err != nil {
		return nil, fmt.Errorf("slantcol: parsing terrain projection: %v", err)
	}
	lonlatSR, err := proj.Parse("+proj=longlat +units=degrees")
	if err != nil {
		return nil, err
	}
	trans, err := gridSR.NewTransform(lonlatSR)
	if err != nil {
		return nil, fmt.Errorf("slantcol: terrain projection transform: %v", err)
	}

	cells := make([]GridCell, 0, ny*nx)
	off := size(elev) - ny*nx
	for j := 0; j < ny; j++ {
		for i := 0; i < nx; i++ {
			lonDeg, latDeg, err := trans(x.Elements[i], y.Elements[j])
			if err != nil {
				return nil, fmt.Errorf("slantcol: projecting terrain cell (%d,%d): %v", j, i, err)
			}
			cells = append(cells, GridCell{
				Point:     geom.Point{X: lonDeg, Y: latDeg},
				Elevation: elev.Elements[off+j*nx+i],
			})
		}
	}
	return NewGridSource(cells, resolution(cells, nx))
}

// readVar reads an entire variable from a NetCDF file into a dense
// array, converting from the file's native numeric type.
func readVar(f *cdf.File, name string) (*sparse.DenseArray, error) {
	dims := f.Header.Lengths(name)
	if len(dims) == 0 {
		return nil, fmt.Errorf("slantcol: variable %q not in terrain file", name)
	}
	r := f.Reader(name, nil, nil)
	buf := r.Zero(-1)
	if _, err := r.Read(buf); err != nil {
		return nil, fmt.Errorf("slantcol: reading terrain variable %q: %v", name, err)
	}
	data := sparse.ZerosDense(dims...)
	switch b := buf.(type) {
	case []float64:
		copy(data.Elements, b)
	case []float32:
		for i, val := range b {
			data.Elements[i] = float64(val)
		}
	case []int32:
		for i, val := range b {
			data.Elements[i] = float64(val)
		}
	case []int16: // ASTER GDEM stores elevations as short integers.
		for i, val := range b {
			data.Elements[i] = float64(val)
		}
	default:
		return nil, fmt.Errorf("slantcol: terrain variable %q has unsupported type %T", name, buf)
	}
	return data, nil
}

// gridShape returns the (ny, nx) of an elevation variable, allowing a
// leading singleton time/record dimension.
func gridShape(elev *sparse.DenseArray) (ny, nx int, err error) {
	s := elev.Shape
	for len(s) > 2 && s[0] == 1 {
		s = s[1:]
	}
	if len(s) != 2 {
		return 0, 0, fmt.Errorf("slantcol: elevation variable has shape %v; want a 2-D grid", elev.Shape)
	}
	return s[0], s[1], nil
}

func size(a *sparse.DenseArray) int {
	n := 1
	for _, v := range a.Shape {
		n *= v
	}
	return n
}

// resolution estimates a grid's native spacing in degrees from the
// first pair of neighboring cells.
func resolution(cells []GridCell, nx int) float64 {
	res := math.Inf(1)
	if nx > 1 && len(cells) > 1 {
		if d := math.Abs(cells[1].X - cells[0].X); d > 0 {
			res = d
		}
	}
	if len(cells) > nx {
		if d := math.Abs(cells[nx].Y - cells[0].Y); d > 0 && d < res {
			res = d
		}
	}
	if math.IsInf(res, 1) {
		res = 0.01
	}
	return res
}
