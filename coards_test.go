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
	"io"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/ctessum/cdf"
)

// writeTestDEM writes a small terrain NetCDF file with 1-D coordinate
// axes and short-integer elevations, the layout of an ASTER GDEM tile.
func writeTestDEM(t *testing.T, lats, lons []float64, elev []int16) string {
	t.Helper()
	h := cdf.NewHeader([]string{"lat", "lon"}, []int{len(lats), len(lons)})
	h.AddVariable("lat", []string{"lat"}, []float64{0})
	h.AddVariable("lon", []string{"lon"}, []float64{0})
	h.AddVariable("ASTER_GDEM_DEM", []string{"lat", "lon"}, []int16{0})
	h.AddAttribute("ASTER_GDEM_DEM", "units", "m")
	h.Define()

	path := filepath.Join(t.TempDir(), "dem.nc")
	ff, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer ff.Close()
	f, err := cdf.Create(ff, h)
	if err != nil {
		t.Fatal(err)
	}
	// Writing the full extent of a fixed-size variable returns io.EOF
	// from the cdf library even when every element was written.
	if _, err := f.Writer("lat", nil, nil).Write(lats); err != nil && err != io.EOF {
		t.Fatal(err)
	}
	if _, err := f.Writer("lon", nil, nil).Write(lons); err != nil && err != io.EOF {
		t.Fatal(err)
	}
	if _, err := f.Writer("ASTER_GDEM_DEM", nil, nil).Write(elev); err != nil && err != io.EOF {
		t.Fatal(err)
	}
	return path
}

func TestReadCOARDS(t *testing.T) {
	lats := []float64{40.75, 40.76, 40.77}
	lons := []float64{-111.86, -111.85}
	elev := []int16{
		1500, 1510,
		1520, 1530,
		1540, 1550,
	}
	path := writeTestDEM(t, lats, lons, elev)
	ff, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer ff.Close()

	src, err := ReadCOARDS(ff, COARDSVars{Elevation: "ASTER_GDEM_DEM", Lat: "lat", Lon: "lon"})
	if err != nil {
		t.Fatal(err)
	}
	cells, err := src.Cells(src.Extent())
	if err != nil {
		t.Fatal(err)
	}
	if len(cells) != len(elev) {
		t.Fatalf("got %d cells, want %d", len(cells), len(elev))
	}
	// Cells come back in row-major grid order with the right
	// coordinates and elevations.
	k := 0
	for j, lat := range lats {
		for i, lon := range lons {
			c := cells[k]
			if c.Y != lat || c.X != lon {
				t.Errorf("cell %d at (%g, %g), want (%g, %g)", k, c.Y, c.X, lat, lon)
			}
			if c.Elevation != float64(elev[j*len(lons)+i]) {
				t.Errorf("cell %d elevation %g, want %d", k, c.Elevation, elev[j*len(lons)+i])
			}
			k++
		}
	}
	if got := src.Resolution(); math.Abs(got-0.01) > 1e-9 {
		t.Errorf("resolution = %g, want ≈ 0.01", got)
	}

	// The loaded source answers nearest-neighbor queries.
	ix, err := NewElevationIndex(src, 40.76, -111.855, 0.1)
	if err != nil {
		t.Fatal(err)
	}
	e, err := ix.NearestElevation(40.76, -111.85)
	if err != nil {
		t.Fatal(err)
	}
	if e != 1530 {
		t.Errorf("elevation = %g, want 1530", e)
	}
}

func TestReadCOARDSMissingVariable(t *testing.T) {
	path := writeTestDEM(t, []float64{40}, []float64{-112}, []int16{1500})
	ff, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer ff.Close()
	if _, err := ReadCOARDS(ff, COARDSVars{Elevation: "nosuch", Lat: "lat", Lon: "lon"}); err == nil {
		t.Error("missing elevation variable accepted")
	}
}

func TestReadProjected(t *testing.T) {
	// Axes already in degrees run through an identity lon/lat
	// transform; the cell locations must come out unchanged.
	lats := []float64{40.7, 40.8}
	lons := []float64{-111.9, -111.8}
	elev := []int16{1500, 1510, 1520, 1530}
	path := writeTestDEM(t, lats, lons, elev)
	ff, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer ff.Close()

	src, err := ReadProjected(ff,
		COARDSVars{Elevation: "ASTER_GDEM_DEM", Lat: "lat", Lon: "lon"},
		"+proj=longlat +units=degrees")
	if err != nil {
		t.Fatal(err)
	}
	cells, err := src.Cells(src.Extent())
	if err != nil {
		t.Fatal(err)
	}
	if len(cells) != len(elev) {
		t.Fatalf("got %d cells, want %d", len(cells), len(elev))
	}
	if c := cells[0]; math.Abs(c.Y-40.7) > 1e-8 || math.Abs(c.X+111.9) > 1e-8 || c.Elevation != 1500 {
		t.Errorf("first cell = (%g, %g, %g)", c.Y, c.X, c.Elevation)
	}
}
