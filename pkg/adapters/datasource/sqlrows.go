package datasource

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/ekaya-inc/ekaya-askdb/pkg/models"
)

// ValueConverter turns a driver value into something JSON can carry.
// dbType is the driver's DatabaseTypeName for the column.
type ValueConverter func(dbType string, v any) any

// ConvertValue is the default converter: byte slices become strings unless
// the column is binary.
func ConvertValue(dbType string, v any) any {
	b, ok := v.([]byte)
	if !ok {
		return v
	}
	if isBinaryType(dbType) {
		return b
	}
	return string(b)
}

func isBinaryType(dbType string) bool {
	switch strings.ToUpper(dbType) {
	case "BLOB", "BINARY", "VARBINARY", "IMAGE", "BYTEA":
		return true
	}
	return false
}

// ScanRows materializes database/sql rows. maxRows <= 0 reads everything;
// otherwise reading stops at maxRows and the result is marked truncated.
// The caller still owns rows and must close it.
func ScanRows(rows *sql.Rows, maxRows int, convert ValueConverter) (*models.ResultTable, error) {
	if convert == nil {
		convert = ConvertValue
	}

	colTypes, err := rows.ColumnTypes()
	if err != nil {
		return nil, fmt.Errorf("read column types: %w", err)
	}

	result := &models.ResultTable{
		Columns: make([]models.ColumnInfo, len(colTypes)),
		Rows:    make([][]any, 0),
	}
	for i, ct := range colTypes {
		result.Columns[i] = models.ColumnInfo{
			Name: ct.Name(),
			Type: strings.ToUpper(ct.DatabaseTypeName()),
		}
	}

	for rows.Next() {
		if maxRows > 0 && len(result.Rows) >= maxRows {
			result.Truncated = true
			break
		}

		values := make([]any, len(colTypes))
		ptrs := make([]any, len(colTypes))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		for i, v := range values {
			values[i] = convert(result.Columns[i].Type, v)
		}
		result.Rows = append(result.Rows, values)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}

	return result, nil
}

// ScanStrings reads a single string column, e.g. a table or column listing.
func ScanStrings(rows *sql.Rows) ([]string, error) {
	var out []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, fmt.Errorf("scan name: %w", err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate names: %w", err)
	}
	return out, nil
}
