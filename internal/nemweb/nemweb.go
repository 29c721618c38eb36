// Package nemweb parses the NEMWEB portal's CSV-in-ZIP report format into
// typed records.
//
// Every report is a ZIP archive holding a single CSV whose lines carry no
// standard header. Each line is classified by its leading marker fields: a
// row-class letter (C comment, I column header, D data), a table group, and
// a subtype. A decoder selects the D-lines whose marker triple matches its
// source and maps fields positionally.
//
// All timestamps are normalized here, once, into NEM market time (AEST,
// UTC+10, no daylight saving). Nothing downstream re-interprets timezones.
package nemweb

import (
	"fmt"
	"time"
)

// MarketTime is the NEM market timezone: AEST, fixed UTC+10.
var MarketTime = time.FixedZone("AEST", 10*60*60)

// timeLayout is the portal's datetime format, e.g. "2025/01/15 10:30:00".
const timeLayout = "2006/01/02 15:04:05"

// ParseTime decodes a portal datetime string into market time.
func ParseTime(s string) (time.Time, error) {
	t, err := time.ParseInLocation(timeLayout, s, MarketTime)
	if err != nil {
		return time.Time{}, fmt.Errorf("nemweb: bad datetime %q", s)
	}
	return t, nil
}

// FormatError indicates an archive that could not be decoded at all. It is
// fatal for that source and cycle only; other sources proceed.
type FormatError struct {
	Err error
}

func (e *FormatError) Error() string {
	return "nemweb: undecodable archive: " + e.Err.Error()
}

func (e *FormatError) Unwrap() error { return e.Err }
