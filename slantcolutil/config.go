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
	"fmt"
	"os"
	"time"

	"github.com/atmoscolumn/slantcol"
	"github.com/spf13/cast"
	"github.com/spf13/viper"
)

// timeLayout is the format of the Start and End options.
const timeLayout = "2006-01-02 15:04:05"

// Config is the parsed run configuration.
type Config struct {
	Mode       string // "fixed" or "observed"
	Instrument slantcol.InstrumentPosition

	Start, End time.Time
	Cadence    time.Duration
	Heights    []float64

	DEMFile       string
	DEMVars       slantcol.COARDSVars
	DEMProj       string
	SubgridRadius float64

	ObservationDir string
	OutputDir      string
	GeoJSON        bool
}

// ParseConfig reads and validates the configuration from cfg.
// Contradictory configuration is rejected here, before any computation
// begins.
func ParseConfig(cfg *viper.Viper) (*Config, error) {
	c := &Config{
		Mode: cfg.GetString("InstrumentMode"),
		Instrument: slantcol.InstrumentPosition{
			Lat:  cfg.GetFloat64("InstrumentLat"),
			Lon:  cfg.GetFloat64("InstrumentLon"),
			ZASL: cfg.GetFloat64("InstrumentZASL"),
		},
		DEMFile: os.ExpandEnv(cfg.GetString("DEMFile")),
		DEMVars: slantcol.COARDSVars{
			Elevation: cfg.GetString("DEMElevationVar"),
			Lat:       cfg.GetString("DEMLatVar"),
			Lon:       cfg.GetString("DEMLonVar"),
		},
		DEMProj:        cfg.GetString("DEMProj"),
		SubgridRadius:  cfg.GetFloat64("SubgridRadius"),
		ObservationDir: os.ExpandEnv(cfg.GetString("ObservationDir")),
		OutputDir:      os.ExpandEnv(cfg.GetString("OutputDir")),
		GeoJSON:        cfg.GetBool("GeoJSON"),
	}

	switch c.Mode {
	case "fixed":
	case "observed":
		if c.ObservationDir == "" {
			return nil, fmt.Errorf("slantcol: InstrumentMode 'observed' requires ObservationDir")
		}
	default:
		return nil, fmt.Errorf("slantcol: InstrumentMode %q not recognized; want 'fixed' or 'observed'", c.Mode)
	}

	loc, err := time.LoadLocation(cfg.GetString("Timezone"))
	if err != nil {
		return nil, fmt.Errorf("slantcol: invalid Timezone: %v", err)
	}
	c.Start, err = time.ParseInLocation(timeLayout, cfg.GetString("Start"), loc)
	if err != nil {
		return nil, fmt.Errorf("slantcol: invalid Start: %v", err)
	}
	c.End, err = time.ParseInLocation(timeLayout, cfg.GetString("End"), loc)
	if err != nil {
		return nil, fmt.Errorf("slantcol: invalid End: %v", err)
	}
	if c.End.Before(c.Start) {
		return nil, fmt.Errorf("slantcol: End %v is before Start %v", c.End, c.Start)
	}

	c.Cadence, err = time.ParseDuration(cfg.GetString("Cadence"))
	if err != nil {
		return nil, fmt.Errorf("slantcol: invalid Cadence: %v", err)
	}
	if c.Cadence <= 0 {
		return nil, fmt.Errorf("slantcol: Cadence must be positive, got %v", c.Cadence)
	}

	for _, s := range cfg.GetStringSlice("Heights") {
		h, err := cast.ToFloat64E(s)
		if err != nil {
			return nil, fmt.Errorf("slantcol: invalid height %q: %v", s, err)
		}
		c.Heights = append(c.Heights, h)
	}
	if len(c.Heights) == 0 {
		return nil, fmt.Errorf("slantcol: no release Heights configured")
	}

	if c.DEMFile == "" {
		return nil, fmt.Errorf("slantcol: DEMFile must be specified")
	}
	if c.SubgridRadius <= 0 {
		return nil, fmt.Errorf("slantcol: SubgridRadius must be positive, got %g", c.SubgridRadius)
	}
	return c, nil
}
