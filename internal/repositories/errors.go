package repositories

import (
	"errors"
	"strings"

	"github.com/financialmanagement/backend/internal/models"
	"github.com/go-sql-driver/mysql"
)

// mysqlDuplicateEntry is the server error number for a unique key violation
const mysqlDuplicateEntry = 1062

// duplicateError maps a unique key violation to the matching sentinel.
// It returns nil when err is not a duplicate entry error.
func duplicateError(err error) error {
	var mysqlErr *mysql.MySQLError
	if !errors.As(err, &mysqlErr) || mysqlErr.Number != mysqlDuplicateEntry {
		return nil
	}

	switch {
	case strings.Contains(mysqlErr.Message, "uq_users_username"):
		return models.ErrDuplicateUsername
	case strings.Contains(mysqlErr.Message, "uq_users_email"):
		return models.ErrDuplicateEmail
	default:
		return models.ErrDuplicate
	}
}
