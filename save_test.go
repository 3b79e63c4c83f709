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
	"bytes"
	"encoding/csv"
	"encoding/json"
	"testing"
	"time"
)

// testTable builds a two-profile table by hand: the first profile has
// one point below ground and one invalid point without ground data,
// the second is fully valid.
func testTable(t *testing.T) *ReceptorTable {
	t.Helper()
	table, err := NewReceptorTable([]float64{0, 250})
	if err != nil {
		t.Fatal(err)
	}
	t0 := time.Date(2023, time.July, 8, 17, 0, 0, 0, time.UTC)
	pos := InstrumentPosition{Lat: 40.766, Lon: -111.847, ZASL: 1492}
	surf, agl0 := 1500.0, -8.0

	if err := table.Append(&SlantProfile{
		Time: t0, Instrument: pos, SunUp: true,
		Points: []*ReceptorPoint{
			{Time: t0, HeightAIL: 0, Lat: 40.766, Lon: -111.847, ZASL: 1492,
				SurfaceElev: &surf, ZAGL: &agl0, AboveGround: false, Valid: true},
			{Time: t0, HeightAIL: 250, Lat: 40.7664, Lon: -111.8458, ZASL: 1742,
				Valid: false, Err: &CoverageGapError{Lat: 40.7664, Lon: -111.8458}},
		},
	}); err != nil {
		t.Fatal(err)
	}

	t1 := t0.Add(time.Hour)
	agl1, agl2 := -8.0, 242.0
	if err := table.Append(&SlantProfile{
		Time: t1, Instrument: pos, SunUp: true,
		Points: []*ReceptorPoint{
			{Time: t1, HeightAIL: 0, Lat: 40.766, Lon: -111.847, ZASL: 1492,
				SurfaceElev: &surf, ZAGL: &agl1, AboveGround: false, Valid: true},
			{Time: t1, HeightAIL: 250, Lat: 40.7665, Lon: -111.846, ZASL: 1742,
				SurfaceElev: &surf, ZAGL: &agl2, AboveGround: true, Valid: true},
		},
	}); err != nil {
		t.Fatal(err)
	}
	return table
}

func TestWriteCSV(t *testing.T) {
	var b bytes.Buffer
	if err := WriteCSV(&b, testTable(t)); err != nil {
		t.Fatal(err)
	}
	recs, err := csv.NewReader(&b).ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	// Header plus every row, invalid ones included.
	if len(recs) != 1+4 {
		t.Fatalf("got %d records, want 5", len(recs))
	}
	if recs[0][0] != "timestamp" || recs[0][8] != "valid" {
		t.Errorf("header = %v", recs[0])
	}
	if recs[1][0] != "2023-07-08T17:00:00Z" {
		t.Errorf("first timestamp = %q", recs[1][0])
	}
	// The invalid point keeps its row with empty ground fields.
	if recs[2][8] != "false" {
		t.Errorf("invalid row valid column = %q", recs[2][8])
	}
	if recs[2][5] != "" || recs[2][6] != "" {
		t.Errorf("invalid row ground fields = %q, %q; want empty", recs[2][5], recs[2][6])
	}
	if recs[1][6] != "-8.00" {
		t.Errorf("height above ground = %q, want -8.00", recs[1][6])
	}
	if recs[1][2] != "40.7660" {
		t.Errorf("latitude = %q, want 40.7660", recs[1][2])
	}
}

func TestWriteReceptorCSV(t *testing.T) {
	var b bytes.Buffer
	if err := WriteReceptorCSV(&b, testTable(t)); err != nil {
		t.Fatal(err)
	}
	recs, err := csv.NewReader(&b).ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	// The invalid point is dropped: header plus three release points.
	if len(recs) != 1+3 {
		t.Fatalf("got %d records, want 4", len(recs))
	}
	want := []string{"sim_id", "run_times", "lati", "long", "zagl", "z_is_agl", "zasl", "zail"}
	for i, h := range want {
		if recs[0][i] != h {
			t.Errorf("header[%d] = %q, want %q", i, recs[0][i], h)
		}
	}
	// Release points are numbered consecutively from zero.
	for i, rec := range recs[1:] {
		if got, want := rec[0], string(rune('0'+i)); got != want {
			t.Errorf("sim_id[%d] = %q, want %q", i, got, want)
		}
	}
	if recs[1][1] != "2023-07-08 17:00:00" {
		t.Errorf("run_times = %q", recs[1][1])
	}
	if recs[3][4] != "242.00" || recs[3][5] != "true" {
		t.Errorf("elevated release = %v", recs[3])
	}
}

func TestWriteGeoJSON(t *testing.T) {
	var b bytes.Buffer
	if err := WriteGeoJSON(&b, testTable(t)); err != nil {
		t.Fatal(err)
	}
	var out struct {
		Type     string `json:"type"`
		Features []struct {
			Type     string `json:"type"`
			Geometry struct {
				Type        string    `json:"type"`
				Coordinates []float64 `json:"coordinates"`
			} `json:"geometry"`
			Properties map[string]interface{} `json:"properties"`
		} `json:"features"`
	}
	if err := json.Unmarshal(b.Bytes(), &out); err != nil {
		t.Fatal(err)
	}
	if out.Type != "FeatureCollection" {
		t.Errorf("type = %q", out.Type)
	}
	if len(out.Features) != 3 {
		t.Fatalf("got %d features, want 3 (invalid point dropped)", len(out.Features))
	}
	f := out.Features[0]
	if f.Geometry.Type != "Point" {
		t.Errorf("geometry type = %q", f.Geometry.Type)
	}
	if len(f.Geometry.Coordinates) != 2 || f.Geometry.Coordinates[0] != -111.847 || f.Geometry.Coordinates[1] != 40.766 {
		t.Errorf("coordinates = %v", f.Geometry.Coordinates)
	}
	if _, ok := f.Properties["timestamp"]; !ok {
		t.Error("feature missing timestamp property")
	}
}
