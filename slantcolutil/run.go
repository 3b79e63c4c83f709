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

package slantcolutil

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/atmoscolumn/slantcol"
	"github.com/sirupsen/logrus"
)

// Log receives progress information as a run proceeds.
var Log logrus.FieldLogger = logrus.StandardLogger()

// Run executes a receptor-generation run described by c: it loads the
// digital elevation model, resolves the instrument position for each
// day in [c.Start, c.End], generates slant-column receptors at the
// configured cadence and heights, and writes one receptor file per day
// to c.OutputDir. Days without observation data are skipped with a
// warning; an instrument that moves during a day aborts the run.
func Run(ctx context.Context, c *Config) error {
	inst, err := newInstrument(c)
	if err != nil {
		return err
	}

	demFile, err := os.Open(c.DEMFile)
	if err != nil {
		return fmt.Errorf("slantcol: opening DEM: %v", err)
	}
	defer demFile.Close()
	var src *slantcol.GridSource
	if c.DEMProj != "" {
		src, err = slantcol.ReadProjected(demFile, c.DEMVars, c.DEMProj)
	} else {
		src, err = slantcol.ReadCOARDS(demFile, c.DEMVars)
	}
	if err != nil {
		return err
	}

	if err := os.MkdirAll(c.OutputDir, 0755); err != nil {
		return fmt.Errorf("slantcol: creating output directory: %v", err)
	}

	ranges, err := slantcol.SplitDaily(c.Start, c.End)
	if err != nil {
		return err
	}
	Log.WithFields(logrus.Fields{
		"days":    len(ranges),
		"cadence": c.Cadence,
		"heights": len(c.Heights),
	}).Info("starting receptor generation")

	// The elevation subgrid only depends on the instrument position,
	// which is usually the same every day, so reuse it when it is.
	var ix *slantcol.ElevationIndex
	var ixPos slantcol.InstrumentPosition

	for _, r := range ranges {
		w, err := inst.ResolveWindow(r.Start, r.End, c.Cadence)
		if errors.Is(err, slantcol.ErrNoObservations) {
			Log.WithFields(logrus.Fields{
				"day": r.Start.Format("2006-01-02"),
			}).Warn("no observations; skipping day")
			continue
		}
		if err != nil {
			return err
		}

		if ix == nil || w.Position != ixPos {
			ix, err = slantcol.NewElevationIndex(src, w.Position.Lat, w.Position.Lon, c.SubgridRadius)
			if err != nil {
				return err
			}
			ixPos = w.Position
			Log.WithFields(logrus.Fields{
				"cells":  ix.Len(),
				"radius": c.SubgridRadius,
			}).Info("loaded elevation subgrid")
		}

		table, err := slantcol.Run(ctx, w.Position, w.Start, w.End, c.Cadence, c.Heights, ix)
		if err != nil {
			return err
		}
		if err := writeOutputs(c, w, table); err != nil {
			return err
		}
		Log.WithFields(logrus.Fields{
			"day":      r.Start.Format("2006-01-02"),
			"profiles": len(table.Profiles),
		}).Info("wrote receptors")
	}
	return nil
}

// newInstrument builds the configured instrument position source.
func newInstrument(c *Config) (slantcol.Instrument, error) {
	switch c.Mode {
	case "fixed":
		return slantcol.FixedInstrument{Position: c.Instrument}, nil
	case "observed":
		records, err := LoadObservations(c.ObservationDir, c.Start, c.End)
		if err != nil {
			return nil, err
		}
		Log.WithFields(logrus.Fields{
			"records": len(records),
		}).Info("loaded observations")
		return slantcol.ObservationInstrument{Records: records}, nil
	}
	return nil, fmt.Errorf("slantcol: InstrumentMode %q not recognized", c.Mode)
}

// writeOutputs writes the per-window receptor file, the audit table,
// and optionally a GeoJSON rendering of the receptor locations.
func writeOutputs(c *Config, w slantcol.Window, table *slantcol.ReceptorTable) error {
	stamp := w.Start.UTC().Format("20060102_150405") + "_" + w.End.UTC().Format("150405")

	if err := writeFile(filepath.Join(c.OutputDir, "receptors_"+stamp+".csv"), table, slantcol.WriteReceptorCSV); err != nil {
		return err
	}
	if err := writeFile(filepath.Join(c.OutputDir, "slantcol_"+stamp+".csv"), table, slantcol.WriteCSV); err != nil {
		return err
	}
	if c.GeoJSON {
		if err := writeFile(filepath.Join(c.OutputDir, "receptors_"+stamp+".geojson"), table, slantcol.WriteGeoJSON); err != nil {
			return err
		}
	}
	return nil
}

func writeFile(path string, table *slantcol.ReceptorTable, write func(w io.Writer, t *slantcol.ReceptorTable) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("slantcol: creating output file: %v", err)
	}
	if err := write(f, table); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
