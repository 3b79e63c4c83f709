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
	"fmt"
	"time"
)

// An ObservationRecord is one real instrument measurement: the time it
// was taken and where the instrument stood.
type ObservationRecord struct {
	Time time.Time
	Lat  float64 // [degrees]
	Lon  float64 // [degrees]
	ZASL float64 // [m]
}

// ErrNoObservations reports that a requested window contains no
// instrument data; callers should skip generation for the window
// instead of producing an empty table.
var ErrNoObservations = errors.New("slantcol: no observations in window")

// An InconsistentPositionError reports that the instrument position was
// not constant across an observation window. Relocation mid-window is
// rejected rather than resolved; callers wanting both locations must
// split the window themselves.
type InconsistentPositionError struct {
	Field    string // "latitude", "longitude" or "elevation"
	Got, Ref float64
	At       time.Time // time of the first differing record
}

func (e *InconsistentPositionError) Error() string {
	return fmt.Sprintf("slantcol: instrument %s changed within observation window: %g != %g at %v",
		e.Field, e.Got, e.Ref, e.At)
}

// A Window is an effective run window: the time span to generate
// receptors for and the authoritative instrument position during it.
type Window struct {
	Start, End time.Time
	Position   InstrumentPosition
}

// DeriveWindow computes the effective run window covering a set of
// observation records. The window starts at the earliest observation
// rounded down to its cadence bucket and ends at the latest observation
// rounded up, so the receptor grid fully covers, and only minimally
// overshoots, the actual data. It verifies that the instrument position
// is constant across every record, returning an
// InconsistentPositionError otherwise, and ErrNoObservations for an
// empty record set.
func DeriveWindow(records []ObservationRecord, cadence time.Duration) (Window, error) {
	if cadence <= 0 {
		return Window{}, fmt.Errorf("slantcol: cadence must be positive, got %v", cadence)
	}
	if len(records) == 0 {
		return Window{}, ErrNoObservations
	}
	ref := records[0]
	first, last := ref.Time, ref.Time
	for _, r := range records[1:] {
		switch {
		case r.Lat != ref.Lat:
			return Window{}, &InconsistentPositionError{Field: "latitude", Got: r.Lat, Ref: ref.Lat, At: r.Time}
		case r.Lon != ref.Lon:
			return Window{}, &InconsistentPositionError{Field: "longitude", Got: r.Lon, Ref: ref.Lon, At: r.Time}
		case r.ZASL != ref.ZASL:
			return Window{}, &InconsistentPositionError{Field: "elevation", Got: r.ZASL, Ref: ref.ZASL, At: r.Time}
		}
		if r.Time.Before(first) {
			first = r.Time
		}
		if r.Time.After(last) {
			last = r.Time
		}
	}
	return Window{
		Start:    first.Truncate(cadence),
		End:      ceilTime(last, cadence),
		Position: InstrumentPosition{Lat: ref.Lat, Lon: ref.Lon, ZASL: ref.ZASL},
	}, nil
}

// ceilTime rounds t up to the next multiple of d, leaving exact
// multiples unchanged.
func ceilTime(t time.Time, d time.Duration) time.Time {
	f := t.Truncate(d)
	if f.Equal(t) {
		return t
	}
	return f.Add(d)
}

// An Instrument resolves the effective run window and instrument
// position for a requested time range. It replaces configuration-string
// dispatch between fixed and observation-driven runs.
type Instrument interface {
	ResolveWindow(start, end time.Time, cadence time.Duration) (Window, error)
}

// A FixedInstrument sits at a configured position; the requested range
// is used as-is.
type FixedInstrument struct {
	Position InstrumentPosition
}

// ResolveWindow implements Instrument.
func (f FixedInstrument) ResolveWindow(start, end time.Time, _ time.Duration) (Window, error) {
	return Window{Start: start, End: end, Position: f.Position}, nil
}

// An ObservationInstrument derives its position and run window from
// real observation records, narrowing the requested range to the span
// where data exists.
type ObservationInstrument struct {
	Records []ObservationRecord
}

// ResolveWindow implements Instrument. It considers only records within
// [start, end], clips the derived window back to the requested range
// (observations can spill past midnight UTC), and returns
// ErrNoObservations when nothing remains.
func (o ObservationInstrument) ResolveWindow(start, end time.Time, cadence time.Duration) (Window, error) {
	var in []ObservationRecord
	for _, r := range o.Records {
		if !r.Time.Before(start) && !r.Time.After(end) {
			in = append(in, r)
		}
	}
	w, err := DeriveWindow(in, cadence)
	if err != nil {
		return Window{}, err
	}
	if w.Start.Before(start) {
		w.Start = start
	}
	if w.End.After(end) {
		w.End = end
	}
	return w, nil
}

// A DateRange is one contiguous span of a run.
type DateRange struct {
	Start, End time.Time
}

// SplitDaily splits [start, end] into per-day ranges in start's
// location, each ending at the last second of its day. Receptor tables
// and output files are produced per day.
func SplitDaily(start, end time.Time) ([]DateRange, error) {
	if end.Before(start) {
		return nil, fmt.Errorf("slantcol: end %v is before start %v", end, start)
	}
	loc := start.Location()
	var out []DateRange
	for cur := start; !cur.After(end); {
		y, m, d := cur.In(loc).Date()
		eod := time.Date(y, m, d, 23, 59, 59, 0, loc)
		if eod.After(end) {
			eod = end
		}
		out = append(out, DateRange{Start: cur, End: eod})
		cur = time.Date(y, m, d, 0, 0, 0, 0, loc).AddDate(0, 0, 1)
	}
	return out, nil
}
