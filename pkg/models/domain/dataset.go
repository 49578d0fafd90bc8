package domain

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Domain identifies one of the business functional areas a dataset belongs to.
type Domain string

const (
	DomainFinance    Domain = "finance"
	DomainMarketing  Domain = "marketing"
	DomainOperations Domain = "operations"
	DomainPeople     Domain = "people"
	DomainTalent     Domain = "talent"
)

// Domains returns the functional areas in canonical reporting order.
func Domains() []Domain {
	return []Domain{DomainFinance, DomainMarketing, DomainOperations, DomainPeople, DomainTalent}
}

var domainAliases = map[string]Domain{
	"finance":    DomainFinance,
	"fin":        DomainFinance,
	"cfo":        DomainFinance,
	"marketing":  DomainMarketing,
	"mktg":       DomainMarketing,
	"cmo":        DomainMarketing,
	"operations": DomainOperations,
	"ops":        DomainOperations,
	"coo":        DomainOperations,
	"people":     DomainPeople,
	"hr":         DomainPeople,
	"people_ops": DomainPeople,
	"chro":       DomainPeople,
	"talent":     DomainTalent,
	"workforce":  DomainTalent,
	"cpo":        DomainTalent,
}

// ParseDomain resolves user facing names and org aliases (ops, hr, cfo, ...)
// to a canonical domain.
func ParseDomain(s string) (Domain, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	if d, ok := domainAliases[key]; ok {
		return d, nil
	}
	return "", fmt.Errorf("unknown domain %q", s)
}

// Row is a single record keyed by column name. Values are numbers, strings
// or nil; Float converts the numeric shapes.
type Row map[string]any

// Dataset is an ordered table: column order is meaningful (period synthesis
// falls back to the first column) and rows keep their input order.
type Dataset struct {
	Columns []string
	Rows    []Row
}

// NewDataset builds a dataset from explicit columns and rows.
func NewDataset(columns []string, rows []Row) Dataset {
	return Dataset{Columns: columns, Rows: rows}
}

// FromRecords builds a dataset from bare records, deriving the column set
// from the union of keys in sorted order. Use this for sources without a
// stable column order, e.g. decoded JSON objects.
func FromRecords(rows []Row) Dataset {
	seen := make(map[string]struct{})
	for _, r := range rows {
		for k := range r {
			seen[k] = struct{}{}
		}
	}
	cols := make([]string, 0, len(seen))
	for k := range seen {
		cols = append(cols, k)
	}
	sort.Strings(cols)
	return Dataset{Columns: cols, Rows: rows}
}

// NumRows returns the row count.
func (d Dataset) NumRows() int { return len(d.Rows) }

// HasColumn reports whether the column exists.
func (d Dataset) HasColumn(name string) bool {
	for _, c := range d.Columns {
		if c == name {
			return true
		}
	}
	return false
}

// Column returns the values of a column in row order; missing cells are nil.
func (d Dataset) Column(name string) []any {
	out := make([]any, len(d.Rows))
	for i, r := range d.Rows {
		out[i] = r[name]
	}
	return out
}

// AddColumn appends a column. Shorter value slices leave trailing cells nil;
// an existing column of the same name is overwritten in place.
func (d *Dataset) AddColumn(name string, values []any) {
	if !d.HasColumn(name) {
		d.Columns = append(d.Columns, name)
	}
	for i := range d.Rows {
		if i < len(values) {
			d.Rows[i][name] = values[i]
		} else {
			d.Rows[i][name] = nil
		}
	}
}

// Clone returns a deep copy; resolvers mutate their working copy only.
func (d Dataset) Clone() Dataset {
	cols := make([]string, len(d.Columns))
	copy(cols, d.Columns)
	rows := make([]Row, len(d.Rows))
	for i, r := range d.Rows {
		nr := make(Row, len(r))
		for k, v := range r {
			nr[k] = v
		}
		rows[i] = nr
	}
	return Dataset{Columns: cols, Rows: rows}
}

// Float converts a cell value to float64. Strings are parsed after trimming
// spaces, commas and a currency/percent wrapper; booleans and nil do not
// convert.
func Float(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case int:
		return float64(x), true
	case int32:
		return float64(x), true
	case int64:
		return float64(x), true
	case uint64:
		return float64(x), true
	case string:
		s := strings.TrimSpace(x)
		s = strings.ReplaceAll(s, ",", "")
		s = strings.TrimPrefix(s, "$")
		s = strings.TrimSuffix(s, "%")
		if s == "" {
			return 0, false
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// String renders a cell value the way it should appear in keys and labels:
// integral floats drop the decimal point.
func String(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		if x == float64(int64(x)) {
			return strconv.FormatInt(int64(x), 10)
		}
		return strconv.FormatFloat(x, 'g', -1, 64)
	default:
		return fmt.Sprintf("%v", x)
	}
}
