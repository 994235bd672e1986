package sharding

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"backoffice-core/pkg/logger"

	"gorm.io/gorm"
)

// ErrUnboundedQuery is returned when a cross-shard query is issued without a
// key range; unbounded scans over every shard are refused.
var ErrUnboundedQuery = errors.New("cross-shard query requires a bounded key range")

// Row is one record of a shard table keyed by column name.
type Row = map[string]interface{}

// TableModel describes the logical model behind a sharded table family.
type TableModel struct {
	// PrototypeTable is the declared physical table the DDL is cloned from,
	// e.g. bo_market_kline_1d_0.
	PrototypeTable string
	// Columns lists insertable columns in emission order.
	Columns []string
	// UniqueColumns is the natural key used for conflict resolution.
	UniqueColumns []string
}

var trailingDigitsRe = regexp.MustCompile(`_\d+$`)

// BaseTableName strips the trailing _<digits> suffix from a prototype name.
func BaseTableName(prototype string) string {
	return trailingDigitsRe.ReplaceAllString(prototype, "")
}

// Router routes reads and writes of a sharded table family to the correct
// physical shard, creating shards on demand through the TableMaker.
type Router struct {
	db       *gorm.DB
	model    TableModel
	base     string
	strategy Strategy
	maker    *TableMaker
	logger   *logger.Logger
}

func NewRouter(db *gorm.DB, model TableModel, strategy Strategy, maker *TableMaker, log *logger.Logger) *Router {
	return &Router{
		db:       db,
		model:    model,
		base:     BaseTableName(model.PrototypeTable),
		strategy: strategy,
		maker:    maker,
		logger:   log,
	}
}

// BaseTable exposes the derived base name (mostly for logging and tests).
func (r *Router) BaseTable() string { return r.base }

// ShardFor returns the physical table name holding the given key.
func (r *Router) ShardFor(key interface{}) (string, error) {
	suffix, err := r.strategy.Suffix(key)
	if err != nil {
		return "", err
	}
	return r.base + "_" + suffix, nil
}

// QuerySingleTable reads from one physical shard. A missing shard yields an
// empty result, not an error.
func (r *Router) QuerySingleTable(ctx context.Context, table string, filters Row, orderBy string, limit, offset int) ([]Row, error) {
	exists, err := r.maker.TableExists(ctx, table)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, nil
	}

	terms, err := parseOrderBy(orderBy, r.model.Columns)
	if err != nil {
		return nil, err
	}

	q := r.db.WithContext(ctx).Table(table)
	if len(filters) > 0 {
		q = q.Where(map[string]interface{}(filters))
	}
	if clause := orderClause(terms); clause != "" {
		q = q.Order(clause)
	}
	if limit > 0 {
		q = q.Limit(limit)
	}
	if offset > 0 {
		q = q.Offset(offset)
	}

	var rows []map[string]interface{}
	if err := q.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("query %s: %w", table, err)
	}
	return rows, nil
}

// QueryMultiTables reads across every shard covered by [start, end], merging
// and re-sorting in memory. The range is mandatory.
func (r *Router) QueryMultiTables(ctx context.Context, start, end interface{}, filters Row, orderBy string, limit, maxTables int) ([]Row, error) {
	if start == nil || end == nil {
		return nil, ErrUnboundedQuery
	}
	suffixes, err := r.strategy.RangeSuffixes(start, end)
	if err != nil {
		return nil, err
	}
	if maxTables > 0 && len(suffixes) > maxTables {
		return nil, fmt.Errorf("range covers %d shards, exceeding the limit of %d", len(suffixes), maxTables)
	}

	terms, err := parseOrderBy(orderBy, r.model.Columns)
	if err != nil {
		return nil, err
	}

	var merged []Row
	for _, suffix := range suffixes {
		rows, err := r.QuerySingleTable(ctx, r.base+"_"+suffix, filters, orderBy, limit, 0)
		if err != nil {
			return nil, err
		}
		merged = append(merged, rows...)
	}

	sortRows(merged, terms)
	if limit > 0 && len(merged) > limit {
		merged = merged[:limit]
	}
	return merged, nil
}

// Count sums per-shard counts over [start, end]; missing shards contribute 0.
func (r *Router) Count(ctx context.Context, start, end interface{}, filters Row) (int64, error) {
	if start == nil || end == nil {
		return 0, ErrUnboundedQuery
	}
	suffixes, err := r.strategy.RangeSuffixes(start, end)
	if err != nil {
		return 0, err
	}

	var total int64
	for _, suffix := range suffixes {
		table := r.base + "_" + suffix
		exists, err := r.maker.TableExists(ctx, table)
		if err != nil {
			return 0, err
		}
		if !exists {
			continue
		}
		var count int64
		q := r.db.WithContext(ctx).Table(table)
		if len(filters) > 0 {
			q = q.Where(map[string]interface{}(filters))
		}
		if err := q.Count(&count).Error; err != nil {
			return 0, fmt.Errorf("count %s: %w", table, err)
		}
		total += count
	}
	return total, nil
}

// Insert writes one row to its shard without conflict handling.
func (r *Router) Insert(ctx context.Context, row Row) error {
	return r.insertOne(ctx, row, false)
}

// Upsert writes one row, transparently becoming an UPDATE on duplicate key.
// Every non-key column except created_at is named in the update clause.
func (r *Router) Upsert(ctx context.Context, row Row) error {
	return r.insertOne(ctx, row, true)
}

func (r *Router) insertOne(ctx context.Context, row Row, onDuplicate bool) error {
	key, ok := row[r.strategy.KeyColumn()]
	if !ok {
		return fmt.Errorf("row is missing sharding key column %q", r.strategy.KeyColumn())
	}
	suffix, err := r.strategy.Suffix(key)
	if err != nil {
		return err
	}
	if _, err := r.maker.EnsureTableExists(ctx, r.model.PrototypeTable, r.base, suffix); err != nil {
		return err
	}

	table := r.base + "_" + suffix
	cols := r.insertColumns()
	stampRow(row, cols)

	var sb strings.Builder
	args := make([]interface{}, 0, len(cols))
	sb.WriteString("INSERT INTO `")
	sb.WriteString(table)
	sb.WriteString("` (")
	sb.WriteString(joinColumns(cols))
	sb.WriteString(") VALUES (")
	for i, col := range cols {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString("?")
		args = append(args, row[col])
	}
	sb.WriteString(")")
	if onDuplicate {
		sb.WriteString(" ON DUPLICATE KEY UPDATE ")
		sb.WriteString(r.duplicateClause(cols))
	}

	if err := r.db.WithContext(ctx).Exec(sb.String(), args...).Error; err != nil {
		return fmt.Errorf("insert into %s: %w", table, err)
	}
	return nil
}

// BatchUpsert groups rows by target shard, ensures each shard once, then
// emits one multi-VALUES statement per shard. Returns the number of rows
// written. An empty input returns 0 without touching the DB.
func (r *Router) BatchUpsert(ctx context.Context, rows []Row) (int, error) {
	if len(rows) == 0 {
		return 0, nil
	}

	keyCol := r.strategy.KeyColumn()
	grouped := make(map[string][]Row)
	var order []string
	for _, row := range rows {
		key, ok := row[keyCol]
		if !ok {
			return 0, fmt.Errorf("row is missing sharding key column %q", keyCol)
		}
		suffix, err := r.strategy.Suffix(key)
		if err != nil {
			return 0, err
		}
		if _, seen := grouped[suffix]; !seen {
			order = append(order, suffix)
		}
		grouped[suffix] = append(grouped[suffix], row)
	}

	cols := r.insertColumns()
	written := 0
	for _, suffix := range order {
		if _, err := r.maker.EnsureTableExists(ctx, r.model.PrototypeTable, r.base, suffix); err != nil {
			return written, err
		}
		table := r.base + "_" + suffix
		shardRows := grouped[suffix]

		var sb strings.Builder
		args := make([]interface{}, 0, len(shardRows)*len(cols))
		sb.WriteString("INSERT INTO `")
		sb.WriteString(table)
		sb.WriteString("` (")
		sb.WriteString(joinColumns(cols))
		sb.WriteString(") VALUES ")
		for i, row := range shardRows {
			stampRow(row, cols)
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString("(")
			for j, col := range cols {
				if j > 0 {
					sb.WriteString(", ")
				}
				sb.WriteString("?")
				args = append(args, row[col])
			}
			sb.WriteString(")")
		}
		sb.WriteString(" ON DUPLICATE KEY UPDATE ")
		sb.WriteString(r.duplicateClause(cols))

		if err := r.db.WithContext(ctx).Exec(sb.String(), args...).Error; err != nil {
			return written, fmt.Errorf("batch insert into %s: %w", table, err)
		}
		written += len(shardRows)
	}
	return written, nil
}

// Update patches a row addressed by its natural key within the shard that
// holds keyValue.
func (r *Router) Update(ctx context.Context, keyValue interface{}, pkValues Row, patch Row) error {
	suffix, err := r.strategy.Suffix(keyValue)
	if err != nil {
		return err
	}
	table := r.base + "_" + suffix
	exists, err := r.maker.TableExists(ctx, table)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("shard table %s does not exist", table)
	}
	if hasColumn(r.model.Columns, "updated_at") {
		patch["updated_at"] = time.Now()
	}
	result := r.db.WithContext(ctx).Table(table).
		Where(map[string]interface{}(pkValues)).
		Updates(map[string]interface{}(patch))
	if result.Error != nil {
		return fmt.Errorf("update %s: %w", table, result.Error)
	}
	return nil
}

// insertColumns is the model column list minus the auto-increment id.
func (r *Router) insertColumns() []string {
	cols := make([]string, 0, len(r.model.Columns))
	for _, c := range r.model.Columns {
		if c == "id" {
			continue
		}
		cols = append(cols, c)
	}
	return cols
}

// duplicateClause names every non-key column except created_at.
func (r *Router) duplicateClause(cols []string) string {
	var parts []string
	for _, col := range cols {
		if col == "created_at" || hasColumn(r.model.UniqueColumns, col) {
			continue
		}
		parts = append(parts, fmt.Sprintf("`%s`=VALUES(`%s`)", col, col))
	}
	return strings.Join(parts, ", ")
}

func stampRow(row Row, cols []string) {
	now := time.Now()
	if hasColumn(cols, "created_at") {
		if _, ok := row["created_at"]; !ok {
			row["created_at"] = now
		}
	}
	if hasColumn(cols, "updated_at") {
		row["updated_at"] = now
	}
}

func joinColumns(cols []string) string {
	quoted := make([]string, len(cols))
	for i, c := range cols {
		quoted[i] = "`" + c + "`"
	}
	return strings.Join(quoted, ", ")
}

func hasColumn(cols []string, name string) bool {
	for _, c := range cols {
		if c == name {
			return true
		}
	}
	return false
}

type orderTerm struct {
	column string
	desc   bool
}

// parseOrderBy validates an order clause like "trade_time desc, id" against
// the model's declared columns.
func parseOrderBy(orderBy string, allowed []string) ([]orderTerm, error) {
	if strings.TrimSpace(orderBy) == "" {
		return nil, nil
	}
	var terms []orderTerm
	for _, part := range strings.Split(orderBy, ",") {
		fields := strings.Fields(strings.TrimSpace(part))
		if len(fields) == 0 {
			continue
		}
		term := orderTerm{column: fields[0]}
		if len(fields) > 1 {
			switch strings.ToLower(fields[1]) {
			case "desc":
				term.desc = true
			case "asc":
			default:
				return nil, fmt.Errorf("invalid sort direction %q", fields[1])
			}
		}
		if !hasColumn(allowed, term.column) && term.column != "id" {
			return nil, fmt.Errorf("unknown sort column %q", term.column)
		}
		terms = append(terms, term)
	}
	return terms, nil
}

func orderClause(terms []orderTerm) string {
	parts := make([]string, 0, len(terms))
	for _, t := range terms {
		dir := "ASC"
		if t.desc {
			dir = "DESC"
		}
		parts = append(parts, fmt.Sprintf("`%s` %s", t.column, dir))
	}
	return strings.Join(parts, ", ")
}

// sortRows stably sorts merged shard results. NULL compares as the maximum
// value, so DESC puts NULLs first and ASC puts them last.
func sortRows(rows []Row, terms []orderTerm) {
	if len(terms) == 0 {
		return
	}
	sort.SliceStable(rows, func(i, j int) bool {
		for _, t := range terms {
			c := compareValues(rows[i][t.column], rows[j][t.column])
			if c == 0 {
				continue
			}
			if t.desc {
				return c > 0
			}
			return c < 0
		}
		return false
	})
}

// compareValues orders mixed scalar values, treating nil as greater than
// everything.
func compareValues(a, b interface{}) int {
	if a == nil && b == nil {
		return 0
	}
	if a == nil {
		return 1
	}
	if b == nil {
		return -1
	}

	if ta, ok := asComparableTime(a); ok {
		if tb, ok := asComparableTime(b); ok {
			switch {
			case ta.Before(tb):
				return -1
			case ta.After(tb):
				return 1
			default:
				return 0
			}
		}
	}
	if fa, ok := asFloat(a); ok {
		if fb, ok := asFloat(b); ok {
			switch {
			case fa < fb:
				return -1
			case fa > fb:
				return 1
			default:
				return 0
			}
		}
	}
	return strings.Compare(fmt.Sprintf("%v", a), fmt.Sprintf("%v", b))
}

func asComparableTime(v interface{}) (time.Time, bool) {
	switch t := v.(type) {
	case time.Time:
		return t, true
	case *time.Time:
		if t == nil {
			return time.Time{}, false
		}
		return *t, true
	default:
		return time.Time{}, false
	}
}

func asFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint64:
		return float64(n), true
	case *float64:
		if n == nil {
			return 0, false
		}
		return *n, true
	default:
		return 0, false
	}
}
