/*
Copyright © 2024 the d3plot authors.
This file is part of d3plot.

d3plot is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

d3plot is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with d3plot.  If not, see <http://www.gnu.org/licenses/>.
*/

package d3plot

import "github.com/dynaread/d3plot/d3perr"

// Error and Kind are re-exported so callers can write d3plot.Error and
// d3plot.FileNotFound instead of reaching into the d3perr subpackage
// directly; the taxonomy itself lives in d3perr so that every subpackage
// (tensor, surface, analyze) can construct errors without importing the
// much larger root package.
type (
	Error = d3perr.Error
	Kind  = d3perr.Kind
)

const (
	FileNotFound       = d3perr.FileNotFound
	InvalidFormat      = d3perr.InvalidFormat
	Truncated          = d3perr.Truncated
	CorruptedData      = d3perr.CorruptedData
	UnsupportedVersion = d3perr.UnsupportedVersion
	Cancelled          = d3perr.Cancelled
)

// ErrorKind reports the Kind of err, or Unknown if err is not (and does
// not wrap) a *d3plot.Error.
func ErrorKind(err error) Kind { return d3perr.Of(err) }
