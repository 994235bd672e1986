package admin

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"gorm.io/gorm"
)

// FieldKind declares how a whitelisted field may be filtered.
type FieldKind int

const (
	// FieldText filters with LIKE %v%.
	FieldText FieldKind = iota
	// FieldExact filters with equality.
	FieldExact
	// FieldRange filters with paired <field>_start / <field>_end bounds.
	FieldRange
)

// FieldSpec is a per-model whitelist. Query parameters naming fields outside
// the whitelist are rejected, not ignored, so typos fail loudly.
type FieldSpec map[string]FieldKind

const (
	defaultPageSize = 20
	maxPageSize     = 200
)

// ListQuery is the parsed form of a list request.
type ListQuery struct {
	Scopes []func(*gorm.DB) *gorm.DB
	Page   int
	Size   int
}

// Offset returns the row offset for the page.
func (q *ListQuery) Offset() int {
	return (q.Page - 1) * q.Size
}

// reserved parameters that are not filter fields.
var reservedParams = map[string]bool{
	"page": true, "size": true, "sort": true,
}

// ParseListQuery validates request parameters against the whitelist and
// builds gorm scopes. Sort accepts both the map form (sort[field]=asc) and
// the string form ("field asc, field2 desc").
func ParseListQuery(values url.Values, spec FieldSpec) (*ListQuery, error) {
	q := &ListQuery{Page: 1, Size: defaultPageSize}

	if raw := values.Get("page"); raw != "" {
		page, err := strconv.Atoi(raw)
		if err != nil || page < 1 {
			return nil, fmt.Errorf("invalid page %q", raw)
		}
		q.Page = page
	}
	if raw := values.Get("size"); raw != "" {
		size, err := strconv.Atoi(raw)
		if err != nil || size < 1 || size > maxPageSize {
			return nil, fmt.Errorf("invalid size %q", raw)
		}
		q.Size = size
	}

	sortFields := map[string]string{}
	var sortOrder []string

	for key, vals := range values {
		if len(vals) == 0 || vals[0] == "" {
			continue
		}
		value := vals[0]

		if reservedParams[key] {
			if key != "sort" {
				continue
			}
			fields, order, err := parseSortString(value, spec)
			if err != nil {
				return nil, err
			}
			for _, f := range order {
				if _, dup := sortFields[f]; !dup {
					sortOrder = append(sortOrder, f)
				}
				sortFields[f] = fields[f]
			}
			continue
		}

		if field, ok := sortMapKey(key); ok {
			dir, err := normalizeDirection(value)
			if err != nil {
				return nil, err
			}
			if _, allowed := spec[field]; !allowed {
				return nil, fmt.Errorf("field %q is not sortable", field)
			}
			if _, dup := sortFields[field]; !dup {
				sortOrder = append(sortOrder, field)
			}
			sortFields[field] = dir
			continue
		}

		scope, err := buildFilterScope(key, value, spec)
		if err != nil {
			return nil, err
		}
		q.Scopes = append(q.Scopes, scope)
	}

	for _, field := range sortOrder {
		f, dir := field, sortFields[field]
		q.Scopes = append(q.Scopes, func(db *gorm.DB) *gorm.DB {
			return db.Order(f + " " + dir)
		})
	}
	return q, nil
}

func buildFilterScope(key, value string, spec FieldSpec) (func(*gorm.DB) *gorm.DB, error) {
	// Range bounds arrive as <field>_start / <field>_end.
	for _, suffix := range []string{"_start", "_end"} {
		if !strings.HasSuffix(key, suffix) {
			continue
		}
		field := strings.TrimSuffix(key, suffix)
		kind, ok := spec[field]
		if !ok {
			break
		}
		if kind != FieldRange {
			return nil, fmt.Errorf("field %q does not accept range bounds", field)
		}
		if suffix == "_start" {
			return func(db *gorm.DB) *gorm.DB { return db.Where(field+" >= ?", value) }, nil
		}
		return func(db *gorm.DB) *gorm.DB { return db.Where(field+" <= ?", value) }, nil
	}

	kind, ok := spec[key]
	if !ok {
		return nil, fmt.Errorf("unknown filter field %q", key)
	}
	switch kind {
	case FieldText:
		return func(db *gorm.DB) *gorm.DB { return db.Where(key+" LIKE ?", "%"+value+"%") }, nil
	case FieldExact:
		return func(db *gorm.DB) *gorm.DB { return db.Where(key+" = ?", value) }, nil
	default:
		return nil, fmt.Errorf("field %q requires %s_start or %s_end bounds", key, key, key)
	}
}

// sortMapKey recognizes the map form sort[field].
func sortMapKey(key string) (string, bool) {
	if strings.HasPrefix(key, "sort[") && strings.HasSuffix(key, "]") {
		return key[len("sort[") : len(key)-1], true
	}
	return "", false
}

func parseSortString(value string, spec FieldSpec) (map[string]string, []string, error) {
	fields := map[string]string{}
	var order []string
	for _, term := range strings.Split(value, ",") {
		term = strings.TrimSpace(term)
		if term == "" {
			continue
		}
		parts := strings.Fields(term)
		field := parts[0]
		dir := "asc"
		if len(parts) > 1 {
			var err error
			dir, err = normalizeDirection(parts[1])
			if err != nil {
				return nil, nil, err
			}
		}
		if len(parts) > 2 {
			return nil, nil, fmt.Errorf("malformed sort term %q", term)
		}
		if _, allowed := spec[field]; !allowed {
			return nil, nil, fmt.Errorf("field %q is not sortable", field)
		}
		if _, dup := fields[field]; !dup {
			order = append(order, field)
		}
		fields[field] = dir
	}
	return fields, order, nil
}

func normalizeDirection(dir string) (string, error) {
	switch strings.ToLower(dir) {
	case "asc":
		return "asc", nil
	case "desc":
		return "desc", nil
	default:
		return "", fmt.Errorf("invalid sort direction %q", dir)
	}
}
