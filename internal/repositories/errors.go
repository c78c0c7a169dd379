package repositories

import (
	"errors"

	"github.com/go-sql-driver/mysql"
)

// MySQL server error numbers
const (
	errDuplicateEntry     = 1062
	errNoReferencedRow    = 1452
	errNoReferencedRowOld = 1216
)

// isDuplicateEntry reports whether err is a unique key violation
func isDuplicateEntry(err error) bool {
	var mysqlErr *mysql.MySQLError
	return errors.As(err, &mysqlErr) && mysqlErr.Number == errDuplicateEntry
}

// isMissingReference reports whether err is a foreign key violation on insert
func isMissingReference(err error) bool {
	var mysqlErr *mysql.MySQLError
	return errors.As(err, &mysqlErr) &&
		(mysqlErr.Number == errNoReferencedRow || mysqlErr.Number == errNoReferencedRowOld)
}
