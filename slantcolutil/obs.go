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
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/atmoscolumn/slantcol"
	"github.com/sirupsen/logrus"
)

// Observation record files follow the layout of EM27 retrieval output
// (.oof): the first token of the first line gives the number of header
// lines, the last header line names the columns, and data rows are
// whitespace-delimited. Timestamps are (year, day-of-year, decimal
// hour) in UTC; the instrument elevation column zobs is in kilometers.

// Columns required from every observation file.
var obsColumns = []string{"flag", "year", "day", "hour", "lat(deg)", "long(deg)", "zobs(km)"}

// ReadObservationFile parses one observation record file. When onlyGood
// is true, rows whose quality flag is nonzero are dropped.
func ReadObservationFile(r io.Reader, onlyGood bool) ([]slantcol.ObservationRecord, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 1024*1024), 1024*1024)
	if !sc.Scan() {
		return nil, fmt.Errorf("slantcol: empty observation file")
	}
	first := strings.Fields(sc.Text())
	if len(first) == 0 {
		return nil, fmt.Errorf("slantcol: empty observation file")
	}
	nheader, err := strconv.Atoi(first[0])
	if err != nil || nheader < 1 {
		return nil, fmt.Errorf("slantcol: observation file header count %q: %v", first[0], err)
	}
	// Skip to the last header line, which names the columns.
	var names []string
	for l := 1; l < nheader; l++ {
		if !sc.Scan() {
			return nil, fmt.Errorf("slantcol: observation file ends inside its %d-line header", nheader)
		}
		names = strings.Fields(sc.Text())
	}
	col := make(map[string]int)
	for i, n := range names {
		col[n] = i
	}
	for _, want := range obsColumns {
		if _, ok := col[want]; !ok {
			return nil, fmt.Errorf("slantcol: observation file missing column %q", want)
		}
	}

	var out []slantcol.ObservationRecord
	for sc.Scan() {
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 {
			continue
		}
		if len(fields) < len(names) {
			return nil, fmt.Errorf("slantcol: observation row has %d fields, want %d", len(fields), len(names))
		}
		get := func(name string) (float64, error) {
			return strconv.ParseFloat(fields[col[name]], 64)
		}
		flag, err := get("flag")
		if err != nil {
			return nil, fmt.Errorf("slantcol: observation flag: %v", err)
		}
		if onlyGood && flag != 0 {
			continue
		}
		year, err1 := get("year")
		doy, err2 := get("day")
		hour, err3 := get("hour")
		lat, err4 := get("lat(deg)")
		lon, err5 := get("long(deg)")
		zobs, err6 := get("zobs(km)")
		for _, err := range []error{err1, err2, err3, err4, err5, err6} {
			if err != nil {
				return nil, fmt.Errorf("slantcol: parsing observation row: %v", err)
			}
		}
		t := time.Date(int(year), 1, 1, 0, 0, 0, 0, time.UTC).
			AddDate(0, 0, int(doy)-1).
			Add(time.Duration(hour * float64(time.Hour)))
		out = append(out, slantcol.ObservationRecord{
			Time: t,
			Lat:  lat,
			Lon:  lon,
			ZASL: zobs * 1000,
		})
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("slantcol: reading observation file: %v", err)
	}
	return out, nil
}

// observationFileDate extracts the YYYYMMDD date from an observation
// filename of the form <id><YYYYMMDD>*.oof, where <id> is a two-letter
// instrument identifier.
func observationFileDate(name string) (time.Time, error) {
	base := strings.SplitN(filepath.Base(name), ".", 2)[0]
	if len(base) < 10 {
		return time.Time{}, fmt.Errorf("slantcol: observation filename %q too short for a date", name)
	}
	return time.Parse("20060102", base[2:10])
}

// LoadObservations reads every observation file in dir whose filename
// date falls within [start, end], in filename order. The day before
// start is included because UTC-stamped files can hold records from the
// previous local day. Only rows flagged good are returned.
func LoadObservations(dir string, start, end time.Time) ([]slantcol.ObservationRecord, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("slantcol: reading observation directory: %v", err)
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".oof") {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)

	lo := start.UTC().AddDate(0, 0, -1)
	hi := end.UTC()
	var out []slantcol.ObservationRecord
	for _, name := range names {
		d, err := observationFileDate(name)
		if err != nil {
			Log.WithFields(logrus.Fields{
				"file": name,
			}).Warn("observation file has no parseable date in its name; skipping")
			continue
		}
		if d.Before(time.Date(lo.Year(), lo.Month(), lo.Day(), 0, 0, 0, 0, time.UTC)) ||
			d.After(time.Date(hi.Year(), hi.Month(), hi.Day(), 0, 0, 0, 0, time.UTC)) {
			continue
		}
		f, err := os.Open(filepath.Join(dir, name))
		if err != nil {
			return nil, fmt.Errorf("slantcol: opening observation file: %v", err)
		}
		recs, err := ReadObservationFile(f, true)
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("slantcol: %s: %v", name, err)
		}
		out = append(out, recs...)
	}
	return out, nil
}
