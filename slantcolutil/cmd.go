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

// Package slantcolutil holds the configuration and command-line
// interface for the slantcol receptor generator.
package slantcolutil

import (
	"fmt"

	"github.com/atmoscolumn/slantcol"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Cfg holds configuration information.
var Cfg *viper.Viper

var options []struct {
	name, usage, shorthand string
	defaultVal             interface{}
	flagsets               []*pflag.FlagSet
}

func init() {
	// Options are the configuration options available to slantcol.
	options = []struct {
		name, usage, shorthand string
		defaultVal             interface{}
		flagsets               []*pflag.FlagSet
	}{
		{
			name: "config",
			usage: `
              config specifies the configuration file location.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "InstrumentMode",
			usage: `
              InstrumentMode chooses how the instrument position and run
              window are determined: 'fixed' uses the configured position
              and time range; 'observed' derives both from observation
              record files in ObservationDir.`,
			defaultVal: "fixed",
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "InstrumentLat",
			usage: `
              InstrumentLat is the instrument latitude [degrees north].
              Ignored in 'observed' mode.`,
			defaultVal: 0.0,
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "InstrumentLon",
			usage: `
              InstrumentLon is the instrument longitude [degrees east].
              Ignored in 'observed' mode.`,
			defaultVal: 0.0,
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "InstrumentZASL",
			usage: `
              InstrumentZASL is the instrument elevation above sea level
              [m]. Ignored in 'observed' mode.`,
			defaultVal: 0.0,
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "Heights",
			usage: `
              Heights lists the particle release heights above the
              instrument [m], one receptor per height per time step.`,
			defaultVal: []string{"0", "250", "500"},
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "Start",
			usage: `
              Start is the beginning of the run range.
              Format = "YYYY-MM-DD HH:MM:SS".`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "End",
			usage: `
              End is the end of the run range.
              Format = "YYYY-MM-DD HH:MM:SS".`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "Timezone",
			usage: `
              Timezone is the IANA time zone that Start and End are given
              in, e.g. "America/Denver". Output timestamps are always UTC.`,
			defaultVal: "UTC",
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "Cadence",
			usage: `
              Cadence is the receptor time step, in Go duration syntax
              (e.g. "1h", "10m").`,
			defaultVal: "1h",
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "DEMFile",
			usage: `
              DEMFile is the path to the gridded terrain elevation
              (NetCDF) file.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "DEMElevationVar",
			usage: `
              DEMElevationVar is the name of the surface elevation
              variable in DEMFile.`,
			defaultVal: "ASTER_GDEM_DEM",
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "DEMLatVar",
			usage: `
              DEMLatVar is the name of the latitude (or projected y)
              coordinate variable in DEMFile.`,
			defaultVal: "lat",
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "DEMLonVar",
			usage: `
              DEMLonVar is the name of the longitude (or projected x)
              coordinate variable in DEMFile.`,
			defaultVal: "lon",
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "DEMProj",
			usage: `
              DEMProj is the Proj4 spatial reference of DEMFile's grid.
              Leave empty for datasets already in lon/lat degrees; set it
              for projected grids such as HRRR terrain extracts.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "SubgridRadius",
			usage: `
              SubgridRadius bounds the terrain subgrid loaded around the
              instrument [degrees]. It must cover the longest expected
              slant offset.`,
			defaultVal: 0.5,
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "ObservationDir",
			usage: `
              ObservationDir is the directory holding observation record
              files for 'observed' mode.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "OutputDir",
			usage: `
              OutputDir is the directory receptor tables are written to,
              one set of files per day.`,
			defaultVal: "output/receptors",
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "GeoJSON",
			usage: `
              GeoJSON additionally writes each day's valid receptors as a
              GeoJSON FeatureCollection for map inspection.`,
			defaultVal: false,
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
	}

	Cfg = viper.New()

	// Set the prefix for configuration environment variables.
	Cfg.SetEnvPrefix("SLANTCOL")

	for _, option := range options {
		for i, set := range option.flagsets {
			if i != 0 { // We don't want to create the same flag twice.
				set.AddFlag(option.flagsets[0].Lookup(option.name))
				continue
			}
			switch option.defaultVal.(type) {
			case string:
				if option.shorthand == "" {
					set.String(option.name, option.defaultVal.(string), option.usage)
				} else {
					set.StringP(option.name, option.shorthand, option.defaultVal.(string), option.usage)
				}
			case []string:
				if option.shorthand == "" {
					set.StringSlice(option.name, option.defaultVal.([]string), option.usage)
				} else {
					set.StringSliceP(option.name, option.shorthand, option.defaultVal.([]string), option.usage)
				}
			case bool:
				if option.shorthand == "" {
					set.Bool(option.name, option.defaultVal.(bool), option.usage)
				} else {
					set.BoolP(option.name, option.shorthand, option.defaultVal.(bool), option.usage)
				}
			case float64:
				if option.shorthand == "" {
					set.Float64(option.name, option.defaultVal.(float64), option.usage)
				} else {
					set.Float64P(option.name, option.shorthand, option.defaultVal.(float64), option.usage)
				}
			default:
				panic("invalid argument type")
			}
			Cfg.BindPFlag(option.name, set.Lookup(option.name))
		}
	}
}

func init() {
	// Link the commands together.
	Root.AddCommand(versionCmd)
	Root.AddCommand(runCmd)
}

// setConfig finds and reads in the configuration file, if there is one.
func setConfig() error {
	if cfgpath := Cfg.GetString("config"); cfgpath != "" {
		Cfg.SetConfigFile(cfgpath)
		if err := Cfg.ReadInConfig(); err != nil {
			return fmt.Errorf("slantcol: problem reading configuration file: %v", err)
		}
	}
	return nil
}

// Root is the main command.
var Root = &cobra.Command{
	Use:   "slantcol",
	Short: "A slant-column receptor generator for column observations.",
	Long: `slantcol computes receptor point tables for total-column atmospheric
sensors observing along the sun's line of sight. Each receptor is a
(time, latitude, longitude, height) particle-release point for a
Lagrangian transport model, placed on the slant path from the
instrument toward the sun and anchored to the terrain beneath it.

Configuration can be changed by using a configuration file (and
providing the path to the file using the --config flag), by using
command-line arguments, or by setting environment variables in the
format 'SLANTCOL_var' where 'var' is the name of the variable to be
set. Refer to https://github.com/spf13/viper for additional
configuration information.`,
	DisableAutoGenTag: true,
	PersistentPreRunE: func(*cobra.Command, []string) error { return setConfig() },
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Long:  "version prints the version number of this version of slantcol.",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Printf("slantcol v%s\n", slantcol.Version)
	},
	DisableAutoGenTag: true,
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Generate receptor tables.",
	Long: `run generates one receptor table per day of the configured range and
writes each as CSV (and optionally GeoJSON) to OutputDir.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := ParseConfig(Cfg)
		if err != nil {
			return err
		}
		return Run(cmd.Context(), c)
	},
	DisableAutoGenTag: true,
}
