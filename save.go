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
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/ctessum/geom"
	"github.com/ctessum/geom/encoding/geojson"
)

// WriteCSV writes the table's full output schema, one row per
// (time, height), including invalid rows so failures can be audited.
// Ground-level fields are empty where terrain coverage was missing.
func WriteCSV(w io.Writer, t *ReceptorTable) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{
		"timestamp", "height_above_instrument", "receptor_lat", "receptor_lon",
		"receptor_elevation_asl", "surface_elevation", "height_above_ground_level",
		"is_above_ground", "valid",
	}); err != nil {
		return fmt.Errorf("slantcol: writing table header: %v", err)
	}
	for _, r := range t.Rows() {
		rec := []string{
			r.Time.Format(time.RFC3339),
			round2(r.HeightAIL),
			round4(r.Lat),
			round4(r.Lon),
			round2(r.ZASL),
			optional(r.SurfaceElev),
			optional(r.ZAGL),
			strconv.FormatBool(r.AboveGround),
			strconv.FormatBool(r.Valid),
		}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("slantcol: writing table row: %v", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteReceptorCSV writes the table in the column layout read by
// STILT-style transport models: one numbered release point per valid
// row. Unlike WriteCSV it drops invalid rows, since a transport model
// cannot release particles at an undefined location; audit the full
// table first if the drops matter.
func WriteReceptorCSV(w io.Writer, t *ReceptorTable) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"sim_id", "run_times", "lati", "long", "zagl", "z_is_agl", "zasl", "zail"}); err != nil {
		return fmt.Errorf("slantcol: writing receptor header: %v", err)
	}
	id := 0
	for _, r := range t.Rows() {
		if !r.Valid || r.ZAGL == nil {
			continue
		}
		rec := []string{
			strconv.Itoa(id),
			r.Time.Format("2006-01-02 15:04:05"),
			round4(r.Lat),
			round4(r.Lon),
			round2(*r.ZAGL),
			strconv.FormatBool(r.AboveGround),
			round2(r.ZASL),
			round2(r.HeightAIL),
		}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("slantcol: writing receptor row: %v", err)
		}
		id++
	}
	cw.Flush()
	return cw.Error()
}

type geoJSONFeature struct {
	Type       string                 `json:"type"`
	Geometry   *geojson.Geometry      `json:"geometry"`
	Properties map[string]interface{} `json:"properties"`
}

type geoJSONCollection struct {
	Type     string            `json:"type"`
	Features []*geoJSONFeature `json:"features"`
}

// WriteGeoJSON writes the table's valid receptor points as a GeoJSON
// FeatureCollection for visual inspection on a map.
func WriteGeoJSON(w io.Writer, t *ReceptorTable) error {
	out := &geoJSONCollection{Type: "FeatureCollection"}
	for _, r := range t.Rows() {
		if !r.Valid {
			continue
		}
		g, err := geojson.ToGeoJSON(geom.Point{X: r.Lon, Y: r.Lat})
		if err != nil {
			return fmt.Errorf("slantcol: encoding receptor point: %v", err)
		}
		props := map[string]interface{}{
			"timestamp":               r.Time.Format(time.RFC3339),
			"height_above_instrument": r.HeightAIL,
			"receptor_elevation_asl":  r.ZASL,
			"is_above_ground":         r.AboveGround,
		}
		if r.ZAGL != nil {
			props["height_above_ground_level"] = *r.ZAGL
		}
		out.Features = append(out.Features, &geoJSONFeature{
			Type:       "Feature",
			Geometry:   g,
			Properties: props,
		})
	}
	e := json.NewEncoder(w)
	return e.Encode(out)
}

func round4(v float64) string { return strconv.FormatFloat(v, 'f', 4, 64) }
func round2(v float64) string { return strconv.FormatFloat(v, 'f', 2, 64) }

func optional(v *float64) string {
	if v == nil {
		return ""
	}
	return round2(*v)
}
