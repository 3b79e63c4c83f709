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

// Command slantcol is a command-line interface for generating
// slant-column receptors for total-column atmospheric observations.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/atmoscolumn/slantcol/slantcolutil"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := slantcolutil.Root.ExecuteContext(ctx); err != nil {
		fmt.Println(err)
		os.Exit(-1)
	}
}
