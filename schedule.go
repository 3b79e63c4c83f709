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
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"
)

// Timestamps expands [start, end] into the strictly ascending sequence
// start + k*cadence for k = 0, 1, ... while the result is not after
// end. The sequence always includes start; it includes end exactly when
// the span divides evenly by the cadence.
func Timestamps(start, end time.Time, cadence time.Duration) ([]time.Time, error) {
	if cadence <= 0 {
		return nil, fmt.Errorf("slantcol: cadence must be positive, got %v", cadence)
	}
	if end.Before(start) {
		return nil, fmt.Errorf("slantcol: end %v is before start %v", end, start)
	}
	n := int(end.Sub(start)/cadence) + 1
	ts := make([]time.Time, n)
	for k := range ts {
		ts[k] = start.Add(time.Duration(k) * cadence)
	}
	return ts, nil
}

// Run generates the receptor table for one continuous window: it
// expands the window into timestamps at the given cadence, builds and
// ground-resolves a slant profile per timestamp, and assembles the
// profiles into a table ordered by ascending (time, height).
//
// Profiles are computed in parallel; they share only the read-only
// elevation index, and output order does not depend on completion
// order. Cancellation is cooperative at timestamp granularity: on a
// canceled context Run returns the table of profiles completed up to
// the first gap, together with the context's error, so the table never
// holds partial rows.
//
// Re-running with identical inputs reproduces an identical table.
func Run(ctx context.Context, pos InstrumentPosition, start, end time.Time, cadence time.Duration, heights []float64, ix *ElevationIndex) (*ReceptorTable, error) {
	if err := pos.check(); err != nil {
		return nil, err
	}
	table, err := NewReceptorTable(heights)
	if err != nil {
		return nil, err
	}
	ts, err := Timestamps(start, end, cadence)
	if err != nil {
		return nil, err
	}

	profiles := make([]*SlantProfile, len(ts))
	errs := make([]error, len(ts))
	nprocs := runtime.GOMAXPROCS(0)
	var wg sync.WaitGroup
	wg.Add(nprocs)
	for pp := 0; pp < nprocs; pp++ {
		go func(pp int) {
			defer wg.Done()
			for i := pp; i < len(ts); i += nprocs {
				if ctx.Err() != nil {
					return
				}
				p, err := BuildProfile(pos, ts[i], table.Heights)
				if err != nil {
					errs[i] = err
					continue
				}
				profiles[i] = Resolve(p, ix)
			}
		}(pp)
	}
	wg.Wait()

	for i, p := range profiles {
		if errs[i] != nil {
			return nil, errs[i]
		}
		if p == nil { // canceled before this timestamp completed
			return table, ctx.Err()
		}
		if err := table.Append(p); err != nil {
			return nil, err
		}
	}
	return table, ctx.Err()
}

// RunWindow resolves the effective window and instrument position for
// the requested range and runs the scheduler over it. A window with no
// observation data returns ErrNoObservations and no table; callers
// should skip that window.
func RunWindow(ctx context.Context, inst Instrument, start, end time.Time, cadence time.Duration, heights []float64, ix *ElevationIndex) (*ReceptorTable, error) {
	w, err := inst.ResolveWindow(start, end, cadence)
	if err != nil {
		return nil, err
	}
	return Run(ctx, w.Position, w.Start, w.End, cadence, heights, ix)
}
