package loader

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "github.com/microsoft/go-mssqldb"
	"github.com/shopspring/decimal"
	_ "github.com/sijms/go-ora/v2"
	_ "modernc.org/sqlite"

	"github.com/KaramelBytes/dataprobe/internal/dataset"
)

// Drivers lists the accepted driver names after alias resolution.
var Drivers = []string{"mysql", "postgres", "sqlserver", "oracle", "sqlite"}

// DriverName resolves common aliases to a registered database/sql driver.
func DriverName(driver string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(driver)) {
	case "mysql", "mariadb":
		return "mysql", nil
	case "postgres", "postgresql", "pg":
		return "postgres", nil
	case "sqlserver", "mssql":
		return "sqlserver", nil
	case "oracle":
		return "oracle", nil
	case "sqlite", "sqlite3":
		return "sqlite", nil
	}
	return "", fmt.Errorf("%w: driver %q (use one of %s)", ErrUnsupported, driver, strings.Join(Drivers, ", "))
}

// Open opens and pings a database handle.
func Open(ctx context.Context, driver, dsn string) (*sql.DB, error) {
	name, err := DriverName(driver)
	if err != nil {
		return nil, err
	}
	db, err := sql.Open(name, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", name, err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s: %w", name, err)
	}
	return db, nil
}

// kindForDatabaseType maps a driver-reported column type name onto a storage
// kind. ok is false for names that give no hint (untyped sqlite expressions).
func kindForDatabaseType(typeName string) (dataset.Kind, bool) {
	t := strings.ToUpper(strings.TrimSpace(typeName))
	if i := strings.IndexByte(t, '('); i >= 0 {
		t = strings.TrimSpace(t[:i])
	}
	t = strings.TrimPrefix(t, "UNSIGNED ")
	switch t {
	case "INT", "INTEGER", "BIGINT", "SMALLINT", "TINYINT", "MEDIUMINT",
		"INT2", "INT4", "INT8", "SERIAL", "BIGSERIAL", "YEAR":
		return dataset.KindInt, true
	case "FLOAT", "DOUBLE", "REAL", "FLOAT4", "FLOAT8", "DOUBLE PRECISION",
		"BINARY_FLOAT", "BINARY_DOUBLE", "IBFLOAT", "IBDOUBLE",
		"DECIMAL", "NUMERIC", "NUMBER", "MONEY", "SMALLMONEY":
		return dataset.KindFloat, true
	case "BOOL", "BOOLEAN", "BIT":
		return dataset.KindBool, true
	case "DATE", "DATETIME", "DATETIME2", "SMALLDATETIME", "DATETIMEOFFSET",
		"TIMESTAMP", "TIMESTAMPTZ", "TIMESTAMP WITH TIME ZONE", "TIMESTAMP WITH LOCAL TIME ZONE",
		"TIMESTAMPTZ_DTY", "TIMESTAMP_DTY":
		return dataset.KindTime, true
	case "JSON", "JSONB":
		return dataset.KindCompound, true
	case "ENUM":
		return dataset.KindCategory, true
	case "CHAR", "VARCHAR", "TEXT", "NCHAR", "NVARCHAR", "NTEXT", "VARCHAR2", "NVARCHAR2",
		"CLOB", "NCLOB", "BPCHAR", "UUID", "UNIQUEIDENTIFIER", "TINYTEXT", "MEDIUMTEXT",
		"LONGTEXT", "CITEXT", "LONG", "CHARACTER", "CHARACTER VARYING":
		return dataset.KindString, true
	}
	return dataset.KindObject, false
}

// LoadSQL runs query and materializes the result set. Declared column types
// choose the storage kind; untyped columns are inferred from their values.
func LoadSQL(ctx context.Context, db *sql.DB, query string, opt Options) (*dataset.Dataset, error) {
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	types, err := rows.ColumnTypes()
	if err != nil {
		return nil, fmt.Errorf("column types: %w", err)
	}
	raw := make([][]any, len(types))
	for {
		if opt.MaxRows > 0 && len(types) > 0 && len(raw[0]) >= opt.MaxRows {
			break
		}
		if !rows.Next() {
			break
		}
		dest := make([]any, len(types))
		ptrs := make([]any, len(types))
		for i := range dest {
			ptrs[i] = &dest[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		for i, v := range dest {
			if b, ok := v.([]byte); ok {
				v = string(b)
			}
			raw[i] = append(raw[i], v)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}

	cols := make([]*dataset.Column, len(types))
	for i, ct := range types {
		col, err := sqlColumn(ct.Name(), ct.DatabaseTypeName(), raw[i], opt)
		if err != nil {
			return nil, err
		}
		cols[i] = col
	}
	return dataset.New(cols...)
}

func sqlColumn(name, typeName string, vals []any, opt Options) (*dataset.Column, error) {
	if opt.isCategorical(name) {
		out := make([]any, len(vals))
		for i, v := range vals {
			if v != nil {
				out[i] = dataset.FormatValue(v)
			}
		}
		return dataset.NewColumn(name, dataset.KindCategory, out)
	}
	kind, ok := kindForDatabaseType(typeName)
	if !ok {
		kind = inferKind(vals)
	}
	out, err := convertColumn(kind, vals)
	if err != nil {
		// sqlite affinity lets a declared column hold other storage classes.
		inferred := inferKind(vals)
		if inferred == kind {
			return nil, fmt.Errorf("column %q: %w", name, err)
		}
		kind = inferred
		if out, err = convertColumn(kind, vals); err != nil {
			return nil, fmt.Errorf("column %q: %w", name, err)
		}
	}
	col, err := dataset.NewColumn(name, kind, out)
	if err != nil && kind == dataset.KindCompound {
		// JSON scalars are not compound values.
		return dataset.NewColumn(name, dataset.KindObject, out)
	}
	return col, err
}

func convertColumn(kind dataset.Kind, vals []any) ([]any, error) {
	out := make([]any, len(vals))
	for i, v := range vals {
		if v == nil {
			continue
		}
		cv, err := convertSQLValue(kind, v)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		out[i] = cv
	}
	return out, nil
}

// inferKind picks the narrowest kind holding every present value.
func inferKind(vals []any) dataset.Kind {
	kind := dataset.KindObject
	seen := false
	for _, v := range vals {
		if v == nil {
			continue
		}
		var k dataset.Kind
		switch v.(type) {
		case int64, int32, int:
			k = dataset.KindInt
		case float64, float32:
			k = dataset.KindFloat
		case bool:
			k = dataset.KindBool
		case time.Time:
			k = dataset.KindTime
		case string:
			k = dataset.KindString
		default:
			return dataset.KindObject
		}
		switch {
		case !seen:
			kind = k
		case kind == k:
		case kind.IsNumeric() && k.IsNumeric():
			kind = dataset.KindFloat
		default:
			return dataset.KindObject
		}
		seen = true
	}
	if !seen {
		return dataset.KindString
	}
	return kind
}

// convertSQLValue coerces a scanned value to kind. Textual numbers go through
// decimal parsing so DECIMAL/NUMERIC payloads keep their digits until the
// final float conversion.
func convertSQLValue(kind dataset.Kind, v any) (any, error) {
	switch kind {
	case dataset.KindInt:
		switch x := v.(type) {
		case string:
			return strconv.ParseInt(strings.TrimSpace(x), 10, 64)
		case float64:
			if x != math.Trunc(x) {
				return nil, fmt.Errorf("non-integer value %g", x)
			}
			return int64(x), nil
		}
	case dataset.KindFloat:
		switch x := v.(type) {
		case string:
			d, err := decimal.NewFromString(strings.TrimSpace(x))
			if err != nil {
				return nil, fmt.Errorf("parse number %q: %w", x, err)
			}
			return d.InexactFloat64(), nil
		case int64:
			return float64(x), nil
		}
	case dataset.KindBool:
		switch x := v.(type) {
		case int64:
			return x != 0, nil
		case string:
			if len(x) == 1 && (x[0] == 0 || x[0] == 1) {
				return x[0] == 1, nil
			}
			return strconv.ParseBool(strings.TrimSpace(x))
		}
	case dataset.KindTime:
		if s, ok := v.(string); ok {
			if t, ok := parseTimeMaybe(strings.TrimSpace(s)); ok {
				return t, nil
			}
			return nil, fmt.Errorf("parse time %q", s)
		}
	case dataset.KindCompound:
		if s, ok := v.(string); ok {
			var decoded any
			if err := json.Unmarshal([]byte(s), &decoded); err != nil {
				return nil, fmt.Errorf("decode json: %w", err)
			}
			return decoded, nil
		}
	case dataset.KindString, dataset.KindCategory:
		if _, ok := v.(string); !ok {
			return dataset.FormatValue(v), nil
		}
	}
	return v, nil
}
