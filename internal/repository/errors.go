package repository

import (
	"errors"

	"github.com/lib/pq"
)

// pgUniqueViolation はPostgreSQLの一意制約違反のSQLSTATE。
const pgUniqueViolation pq.ErrorCode = "23505"

// isUniqueViolation はerrがPostgreSQLの一意制約違反かどうかを判定する。
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == pgUniqueViolation
	}
	return false
}
