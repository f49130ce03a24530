package doc

import "fmt"

// Filter builds a SQL WHERE clause over a collection's indexed columns and
// its JSONB body, translating a map_1 Get query's field/range/geo
// constraints.
type Filter struct {
	conditions []string
	args       []any
	OrderBy    string
	Limit      int
}

// And appends a raw condition using numbered placeholders continued from
// whatever has already been added.
func (f *Filter) and(cond string, args ...any) {
	base := len(f.args)
	shifted := cond
	for i := len(args); i >= 1; i-- {
		shifted = replacePlaceholder(shifted, i, base+i)
	}
	f.conditions = append(f.conditions, shifted)
	f.args = append(f.args, args...)
}

func replacePlaceholder(s string, from, to int) string {
	old := fmt.Sprintf("$%d", from)
	new := fmt.Sprintf("$%d", to)
	out := ""
	for i := 0; i < len(s); {
		if i+len(old) <= len(s) && s[i:i+len(old)] == old {
			// Require the match to not be a prefix of a longer placeholder,
			// e.g. $1 must not match inside $10.
			if i+len(old) == len(s) || s[i+len(old)] < '0' || s[i+len(old)] > '9' {
				out += new
				i += len(old)
				continue
			}
		}
		out += string(s[i])
		i++
	}
	return out
}

// ByUid restricts results to documents owned by uid.
func (f *Filter) ByUid(uid string) *Filter {
	f.and("uid = $1", uid)
	return f
}

// ByNamespace restricts results to documents in the given reserved
// namespace (e.g. "_chan" for msg_1 entries layered over map_1).
func (f *Filter) ByNamespace(ns string) *Filter {
	f.and("ns = $1", ns)
	return f
}

// Public restricts results to documents whose body marks them public via
// the reserved _pub field.
func (f *Filter) Public() *Filter {
	f.and("(body->>'_pub')::boolean IS TRUE")
	return f
}

// VisibleTo restricts results to documents that are either public or owned
// by uid, the standard visibility rule for map_1 Get.
func (f *Filter) VisibleTo(uid string) *Filter {
	f.and("((body->>'_pub')::boolean IS TRUE OR uid = $1)", uid)
	return f
}

// FieldEquals restricts results to documents where JSONB field equals
// value, compared against the field's text form (body->>field): a string's
// contents without quotes, or a number's or boolean's literal text.
func (f *Filter) FieldEquals(field, value string) *Filter {
	f.and(fmt.Sprintf("body->>%s = $1", quoteIdent(field)), value)
	return f
}

// FieldRange restricts results to documents where the numeric JSONB field
// falls in [lo, hi): inclusive lower bound, strict upper bound. Either
// bound may be nil to leave it open.
func (f *Filter) FieldRange(field string, lo, hi *float64) *Filter {
	col := fmt.Sprintf("(body->>%s)::double precision", quoteIdent(field))
	if lo != nil {
		f.and(fmt.Sprintf("%s >= $1", col), *lo)
	}
	if hi != nil {
		f.and(fmt.Sprintf("%s < $1", col), *hi)
	}
	return f
}

// GeoSphere restricts results to documents whose reserved _geo field (a
// [lon, lat] pair, per spec) lies within radiusMeters of the given center,
// using the great-circle haversine formula evaluated in SQL rather than a
// dedicated spatial extension, since no GIS driver is wired into the
// gateway. _geo[0] is longitude, _geo[1] is latitude.
func (f *Filter) GeoSphere(lon, lat, radiusMeters float64) *Filter {
	const earthRadiusMeters = 6371000.0
	cond := fmt.Sprintf(
		`%g * acos(
			sin(radians($1)) * sin(radians((body->'_geo'->>1)::double precision)) +
			cos(radians($1)) * cos(radians((body->'_geo'->>1)::double precision)) *
			cos(radians((body->'_geo'->>0)::double precision) - radians($2))
		) <= $3`,
		earthRadiusMeters,
	)
	f.and(cond, lat, lon, radiusMeters)
	return f
}

// ExcludeID excludes a specific document id.
func (f *Filter) ExcludeID(id string) *Filter {
	f.and("id != $1", id)
	return f
}

// Build renders the accumulated conditions into a single WHERE-clause body
// (without the "WHERE" keyword) and its positional arguments.
func (f *Filter) Build() (string, []any) {
	if len(f.conditions) == 0 {
		return "", nil
	}
	where := f.conditions[0]
	for _, c := range f.conditions[1:] {
		where += " AND " + c
	}
	return where, f.args
}

func quoteIdent(s string) string {
	return "'" + s + "'"
}
