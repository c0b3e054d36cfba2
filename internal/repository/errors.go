// Package repository holds the MySQL data access layer.  Repositories return
// the sentinel errors below (or a per-entity ErrXNotFound) so that services
// can translate them into the application error taxonomy.
package repository

import (
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"
)

// ErrConflict is returned when a write cannot proceed because of the current
// state of the row, such as deleting a booking that is no longer pending.
var ErrConflict = errors.New("conflict")

// ErrDuplicate is returned when a unique key rejects an insert or update.
var ErrDuplicate = errors.New("duplicate entry")

// isDuplicate reports whether err is MySQL error 1062 (duplicate key).
func isDuplicate(err error) bool {
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		return me.Number == 1062
	}
	return err != nil && strings.Contains(err.Error(), "1062")
}
