package nemweb

import (
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"
)

// rowKey is the marker triple that classifies a CSV line.
type rowKey struct {
	class   string // "C", "I", or "D"
	table   string
	subtype string
}

// row wraps one split data line and offers strictly-typed positional access.
// Coercion failures return errors; the decoders skip and count such rows
// rather than defaulting to zero, so absent readings are never fabricated.
type row struct {
	fields []string
}

func splitRow(line string) row {
	return row{fields: strings.Split(line, ",")}
}

func (r row) key() rowKey {
	k := rowKey{}
	if len(r.fields) > 0 {
		k.class = strings.Trim(r.fields[0], `" `)
	}
	if len(r.fields) > 1 {
		k.table = strings.Trim(r.fields[1], `" `)
	}
	if len(r.fields) > 2 {
		k.subtype = strings.Trim(r.fields[2], `" `)
	}
	return k
}

func (r row) len() int { return len(r.fields) }

// str returns the field at i with surrounding quotes and spaces stripped.
func (r row) str(i int) string {
	if i < 0 || i >= len(r.fields) {
		return ""
	}
	return strings.TrimSpace(strings.Trim(strings.TrimSpace(r.fields[i]), `"`))
}

func (r row) float(i int) (float64, error) {
	s := r.str(i)
	if s == "" {
		return 0, eris.Errorf("field %d empty", i)
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, eris.Errorf("field %d not numeric: %q", i, s)
	}
	return v, nil
}

func (r row) int(i int) (int, error) {
	s := r.str(i)
	if s == "" {
		return 0, eris.Errorf("field %d empty", i)
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, eris.Errorf("field %d not integer: %q", i, s)
	}
	return v, nil
}

func (r row) time(i int) (time.Time, error) {
	return ParseTime(r.str(i))
}

// optFloat reads a float but tolerates an absent value, returning 0 and
// false. For columns that are genuinely optional in the feed.
func (r row) optFloat(i int) (float64, bool) {
	v, err := r.float(i)
	if err != nil {
		return 0, false
	}
	return v, true
}

// headerIndex builds a column-name index from an I (header) row. Marker
// fields keep their absolute positions so D-row field indexes line up.
func headerIndex(r row) map[string]int {
	idx := make(map[string]int, r.len())
	for i := range r.fields {
		name := strings.ToUpper(r.str(i))
		if name != "" {
			idx[name] = i
		}
	}
	return idx
}

// named returns the field for a header-mapped column name.
func (r row) named(idx map[string]int, name string) string {
	i, ok := idx[name]
	if !ok {
		return ""
	}
	return r.str(i)
}

func (r row) namedFloat(idx map[string]int, name string) (float64, error) {
	i, ok := idx[name]
	if !ok {
		return 0, eris.Errorf("column %s not in header", name)
	}
	return r.float(i)
}

func (r row) namedOptFloat(idx map[string]int, name string) (float64, bool) {
	i, ok := idx[name]
	if !ok {
		return 0, false
	}
	return r.optFloat(i)
}

func (r row) namedTime(idx map[string]int, name string) (time.Time, error) {
	i, ok := idx[name]
	if !ok {
		return time.Time{}, eris.Errorf("column %s not in header", name)
	}
	return r.time(i)
}
