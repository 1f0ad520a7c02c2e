// Package introspect populates an ORM schema registry from a live PostgreSQL
// database by reading information_schema: one resource per table with a
// single-column primary key of a key type (integer, uuid or text),
// belongs_to relationships for single-column foreign keys and the matching
// has_many on the referenced table. Composite foreign keys are not mapped.
package introspect

import (
	"context"
	"database/sql"
	"fmt"
	"slices"
	"strings"

	"go.uber.org/zap"

	"github.com/conduit-lang/resourcegraph/internal/orm/schema"
	rstrings "github.com/conduit-lang/resourcegraph/internal/util/strings"
)

const (
	tablesQuery = `SELECT table_name FROM information_schema.tables
WHERE table_schema = $1 AND table_type = 'BASE TABLE'
ORDER BY table_name`

	columnsQuery = `SELECT table_name, column_name, data_type, is_nullable FROM information_schema.columns
WHERE table_schema = $1
ORDER BY table_name, ordinal_position`

	constraintsQuery = `SELECT tc.table_name, tc.constraint_name, kcu.column_name, tc.constraint_type, COALESCE(ccu.table_name, '')
FROM information_schema.table_constraints tc
JOIN information_schema.key_column_usage kcu
  ON tc.constraint_name = kcu.constraint_name AND tc.table_schema = kcu.table_schema
LEFT JOIN information_schema.constraint_column_usage ccu
  ON tc.constraint_type = 'FOREIGN KEY' AND ccu.constraint_name = tc.constraint_name AND ccu.table_schema = tc.table_schema
WHERE tc.table_schema = $1 AND tc.constraint_type IN ('PRIMARY KEY', 'FOREIGN KEY')
ORDER BY tc.table_name, kcu.ordinal_position`
)

// Introspector reads table metadata through database/sql
type Introspector struct {
	db     *sql.DB
	schema string
	skip   map[string]bool
	logger *zap.Logger
}

// Option configures an Introspector
type Option func(*Introspector)

// WithSchema sets the database schema to read (default "public")
func WithSchema(name string) Option {
	return func(i *Introspector) {
		if name != "" {
			i.schema = name
		}
	}
}

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) Option {
	return func(i *Introspector) {
		if logger != nil {
			i.logger = logger
		}
	}
}

// WithSkipTables excludes tables such as migration bookkeeping
func WithSkipTables(tables ...string) Option {
	return func(i *Introspector) {
		for _, t := range tables {
			i.skip[t] = true
		}
	}
}

// New creates an introspector over db
func New(db *sql.DB, opts ...Option) *Introspector {
	i := &Introspector{
		db:     db,
		schema: "public",
		skip:   map[string]bool{"schema_migrations": true},
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

type table struct {
	name        string
	columns     []column
	primaryKeys []string
	foreignKeys []foreignKey
}

type column struct {
	name     string
	dataType string
	nullable bool
}

// foreignKey is one FOREIGN KEY constraint. The constraint_column_usage join
// repeats each column once per referenced column, so columns is deduplicated.
type foreignKey struct {
	name    string
	columns []string
	target  string
}

func (t *table) addForeignKey(name, column, target string) {
	for idx := range t.foreignKeys {
		fk := &t.foreignKeys[idx]
		if fk.name != name {
			continue
		}
		if !slices.Contains(fk.columns, column) {
			fk.columns = append(fk.columns, column)
		}
		return
	}
	t.foreignKeys = append(t.foreignKeys, foreignKey{name: name, columns: []string{column}, target: target})
}

// primaryKeyType reports the column type backing the table's primary key
func (t *table) primaryKeyType() (column, schema.PrimitiveType, bool) {
	for _, c := range t.columns {
		if c.name == t.primaryKeys[0] {
			typ, ok := columnType(c.dataType)
			return c, typ, ok
		}
	}
	return column{name: t.primaryKeys[0]}, schema.TypeText, false
}

// Load reads every table of the schema and registers one ResourceSchema per
// usable table. It returns the number of schemas registered.
func (i *Introspector) Load(ctx context.Context, registry *schema.Registry) (int, error) {
	tables, order, err := i.readTables(ctx)
	if err != nil {
		return 0, err
	}
	if err := i.readColumns(ctx, tables); err != nil {
		return 0, err
	}
	if err := i.readConstraints(ctx, tables); err != nil {
		return 0, err
	}

	schemas := make(map[string]*schema.ResourceSchema, len(order))
	for _, name := range order {
		t := tables[name]
		if len(t.primaryKeys) != 1 {
			i.logger.Warn("skipping table without single-column primary key",
				zap.String("table", name),
				zap.Int("primary_keys", len(t.primaryKeys)))
			continue
		}
		pk, typ, known := t.primaryKeyType()
		if _, ok := schema.KeyType(typ); !known || !ok {
			i.logger.Warn("skipping table with non-key primary key type",
				zap.String("table", name),
				zap.String("column", pk.name),
				zap.String("data_type", pk.dataType))
			continue
		}
		schemas[name] = i.resource(t)
	}

	for _, name := range order {
		rs, ok := schemas[name]
		if !ok {
			continue
		}
		for _, fk := range tables[name].foreignKeys {
			if len(fk.columns) != 1 {
				i.logger.Warn("skipping composite foreign key",
					zap.String("table", name),
					zap.String("constraint", fk.name),
					zap.Strings("columns", fk.columns))
				continue
			}
			target, ok := schemas[fk.target]
			if !ok {
				i.logger.Warn("skipping foreign key to unmapped table",
					zap.String("table", name),
					zap.String("column", fk.columns[0]),
					zap.String("target", fk.target))
				continue
			}
			link(rs, target, fk.columns[0])
		}
	}

	registered := 0
	for _, name := range order {
		rs, ok := schemas[name]
		if !ok {
			continue
		}
		if err := registry.Register(rs); err != nil {
			return registered, fmt.Errorf("failed to register table %s: %w", name, err)
		}
		registered++
		i.logger.Debug("introspected table",
			zap.String("table", name),
			zap.String("resource", rs.Name),
			zap.Int("fields", len(rs.Fields)),
			zap.Int("relationships", len(rs.Relationships)))
	}

	return registered, nil
}

func (i *Introspector) readTables(ctx context.Context) (map[string]*table, []string, error) {
	rows, err := i.db.QueryContext(ctx, tablesQuery, i.schema)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list tables: %w", err)
	}
	defer rows.Close()

	tables := make(map[string]*table)
	var order []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, nil, fmt.Errorf("failed to scan table: %w", err)
		}
		if i.skip[name] {
			continue
		}
		tables[name] = &table{name: name}
		order = append(order, name)
	}
	return tables, order, rows.Err()
}

func (i *Introspector) readColumns(ctx context.Context, tables map[string]*table) error {
	rows, err := i.db.QueryContext(ctx, columnsQuery, i.schema)
	if err != nil {
		return fmt.Errorf("failed to list columns: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var tableName, name, dataType, nullable string
		if err := rows.Scan(&tableName, &name, &dataType, &nullable); err != nil {
			return fmt.Errorf("failed to scan column: %w", err)
		}
		t, ok := tables[tableName]
		if !ok {
			continue
		}
		t.columns = append(t.columns, column{
			name:     name,
			dataType: dataType,
			nullable: strings.EqualFold(nullable, "YES"),
		})
	}
	return rows.Err()
}

func (i *Introspector) readConstraints(ctx context.Context, tables map[string]*table) error {
	rows, err := i.db.QueryContext(ctx, constraintsQuery, i.schema)
	if err != nil {
		return fmt.Errorf("failed to list constraints: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var tableName, constraint, columnName, kind, target string
		if err := rows.Scan(&tableName, &constraint, &columnName, &kind, &target); err != nil {
			return fmt.Errorf("failed to scan constraint: %w", err)
		}
		t, ok := tables[tableName]
		if !ok {
			continue
		}
		switch kind {
		case "PRIMARY KEY":
			t.primaryKeys = append(t.primaryKeys, columnName)
		case "FOREIGN KEY":
			t.addForeignKey(constraint, columnName, target)
		}
	}
	return rows.Err()
}

func (i *Introspector) resource(t *table) *schema.ResourceSchema {
	rs := schema.NewResourceSchema(rstrings.ToPascalCase(rstrings.Singularize(t.name)))
	rs.TableName = t.name

	for _, c := range t.columns {
		typ, ok := columnType(c.dataType)
		if !ok {
			i.logger.Debug("mapping unknown column type to text",
				zap.String("table", t.name),
				zap.String("column", c.name),
				zap.String("data_type", c.dataType))
		}
		var annotations []string
		if c.name == t.primaryKeys[0] {
			annotations = append(annotations, schema.AnnotationPrimary)
		}
		rs.AddField(c.name, typ, c.nullable, annotations...)
	}
	return rs
}

// link adds owner belongs_to target and the inverse has_many on target
func link(owner, target *schema.ResourceSchema, fkColumn string) {
	field := strings.TrimSuffix(fkColumn, "_id")
	if field == fkColumn || owner.HasField(field) || owner.HasRelationship(field) {
		field = fkColumn + "_ref"
	}
	owner.AddRelationship(&schema.Relationship{
		Type:           schema.RelationshipBelongsTo,
		TargetResource: target.Name,
		FieldName:      field,
		ForeignKey:     fkColumn,
	})

	inverse := owner.TableName
	if target.HasField(inverse) || target.HasRelationship(inverse) {
		return
	}
	target.AddRelationship(&schema.Relationship{
		Type:           schema.RelationshipHasMany,
		TargetResource: owner.Name,
		FieldName:      inverse,
		ForeignKey:     fkColumn,
	})
}

// columnType maps a PostgreSQL data_type to the ORM's primitive type
func columnType(dataType string) (schema.PrimitiveType, bool) {
	switch strings.ToLower(dataType) {
	case "integer", "smallint":
		return schema.TypeInt, true
	case "bigint":
		return schema.TypeBigInt, true
	case "uuid":
		return schema.TypeUUID, true
	case "text":
		return schema.TypeText, true
	case "character varying", "character", "citext":
		return schema.TypeString, true
	case "boolean":
		return schema.TypeBool, true
	case "timestamp with time zone", "timestamp without time zone":
		return schema.TypeTimestamp, true
	case "date":
		return schema.TypeDate, true
	case "numeric":
		return schema.TypeDecimal, true
	case "real", "double precision":
		return schema.TypeFloat, true
	case "json":
		return schema.TypeJSON, true
	case "jsonb":
		return schema.TypeJSONB, true
	default:
		return schema.TypeText, false
	}
}
