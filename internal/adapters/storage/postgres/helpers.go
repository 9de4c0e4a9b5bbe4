package postgres

import (
	"database/sql"
	"strconv"
)

func nullIfEmpty(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func itoa(n int) string {
	return strconv.Itoa(n)
}
