package mysql

import "database/sql"

// nullString maps "" to SQL NULL so optional record fields round-trip cleanly
func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
