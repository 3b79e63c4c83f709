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
	"testing"

	"github.com/ctessum/geom"
)

// testGrid builds a regular nx×ny degree grid of terrain samples
// centered on (lat0, lon0) with the given spacing, elevation of each
// cell set by elev(j, i).
func testGrid(t *testing.T, lat0, lon0, spacing float64, ny, nx int, elev func(j, i int) float64) *GridSource {
	t.Helper()
	cells := make([]GridCell, 0, ny*nx)
	for j := 0; j < ny; j++ {
		for i := 0; i < nx; i++ {
			cells = append(cells, GridCell{
				Point: geom.Point{
					X: lon0 + (float64(i)-float64(nx-1)/2)*spacing,
					Y: lat0 + (float64(j)-float64(ny-1)/2)*spacing,
				},
				Elevation: elev(j, i),
			})
		}
	}
	src, err := NewGridSource(cells, spacing)
	if err != nil {
		t.Fatal(err)
	}
	return src
}

func TestNearestElevation(t *testing.T) {
	src := testGrid(t, 40, -112, 0.01, 11, 11, func(j, i int) float64 {
		return float64(1000 + 10*j + i)
	})
	ix, err := NewElevationIndex(src, 40, -112, 0.1)
	if err != nil {
		t.Fatal(err)
	}
	if ix.Len() != 11*11 {
		t.Fatalf("index has %d cells, want %d", ix.Len(), 11*11)
	}

	// A query exactly on a grid node returns that node's elevation.
	e, err := ix.NearestElevation(40, -112)
	if err != nil {
		t.Fatal(err)
	}
	if want := float64(1000 + 10*5 + 5); e != want {
		t.Errorf("on-node elevation = %g, want %g", e, want)
	}

	// A query slightly toward a neighbor snaps to the closest node.
	e, err = ix.NearestElevation(40.004, -112)
	if err != nil {
		t.Fatal(err)
	}
	if want := float64(1000 + 10*5 + 5); e != want {
		t.Errorf("off-node elevation = %g, want %g", e, want)
	}
	e, err = ix.NearestElevation(40.006, -112)
	if err != nil {
		t.Fatal(err)
	}
	if want := float64(1000 + 10*6 + 5); e != want {
		t.Errorf("off-node elevation = %g, want %g", e, want)
	}
}

func TestNearestElevationTieBreak(t *testing.T) {
	// Two cells equidistant from the query point on the same parallel:
	// the one earlier in native grid order wins, every time.
	cells := []GridCell{
		{Point: geom.Point{X: -112.01, Y: 40}, Elevation: 1111},
		{Point: geom.Point{X: -111.99, Y: 40}, Elevation: 2222},
	}
	src, err := NewGridSource(cells, 0.01)
	if err != nil {
		t.Fatal(err)
	}
	ix, err := NewElevationIndex(src, 40, -112, 0.1)
	if err != nil {
		t.Fatal(err)
	}
	for trial := 0; trial < 10; trial++ {
		e, err := ix.NearestElevation(40, -112)
		if err != nil {
			t.Fatal(err)
		}
		if e != 1111 {
			t.Fatalf("trial %d: tie resolved to elevation %g, want 1111", trial, e)
		}
	}
}

func TestNearestElevationCoverageGap(t *testing.T) {
	src := testGrid(t, 40, -112, 0.01, 5, 5, func(j, i int) float64 { return 1500 })
	ix, err := NewElevationIndex(src, 40, -112, 0.1)
	if err != nil {
		t.Fatal(err)
	}
	_, err = ix.NearestElevation(41, -112)
	var gap *CoverageGapError
	if !errors.As(err, &gap) {
		t.Fatalf("out-of-extent query error = %v, want CoverageGapError", err)
	}
	if gap.Lat != 41 || gap.Lon != -112 {
		t.Errorf("coverage gap reported at (%g, %g), want (41, -112)", gap.Lat, gap.Lon)
	}
}

func TestNewElevationIndexSubgrid(t *testing.T) {
	// A wide source clipped to a small radius loads only the cells
	// near the instrument.
	src := testGrid(t, 40, -112, 0.1, 21, 21, func(j, i int) float64 { return 1500 })
	ix, err := NewElevationIndex(src, 40, -112, 0.25)
	if err != nil {
		t.Fatal(err)
	}
	if ix.Len() >= 21*21 {
		t.Errorf("subgrid holds %d cells; want fewer than the full %d", ix.Len(), 21*21)
	}
	if ix.Len() == 0 {
		t.Error("subgrid holds no cells")
	}

	if _, err := NewElevationIndex(src, 40, -112, 0); err == nil {
		t.Error("nonpositive radius accepted, want error")
	}
}
