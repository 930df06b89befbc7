package database

import (
	"context"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"net"

	"github.com/go-sql-driver/mysql"

	"github.com/rzpsarthak13/mgmt-repository/internal/core"
	"github.com/rzpsarthak13/mgmt-repository/internal/orm"
)

// MySQL server error numbers, see
// https://dev.mysql.com/doc/mysql-errors/8.0/en/server-error-reference.html
const (
	erDupEntry           = 1062
	erRowIsReferenced    = 1451
	erNoReferencedRow    = 1452
	erBadNullError       = 1048
	erDataTooLong        = 1406
	erParseError         = 1064
	erNoSuchTable        = 1146
	erBadFieldError      = 1054
	erWrongValueCount    = 1136
	erLockWaitTimeout    = 1205
	erLockDeadlock       = 1213
	erConCountError      = 1040
	erServerShutdown     = 1053
	erAccessDeniedError  = 1045
	erDBAccessDenied     = 1044
	erTooManyUserConnect = 1203
)

// Classify maps an error returned by the driver or by row mapping to the kind
// of technical failure it represents.
func Classify(err error) core.ErrorKind {
	if err == nil {
		return core.KindUnknown
	}

	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) {
		switch mysqlErr.Number {
		case erDupEntry, erRowIsReferenced, erNoReferencedRow, erBadNullError, erDataTooLong:
			return core.KindConstraint
		case erParseError, erNoSuchTable, erBadFieldError, erWrongValueCount:
			return core.KindStatement
		case erLockWaitTimeout, erLockDeadlock, erConCountError, erServerShutdown,
			erAccessDeniedError, erDBAccessDenied, erTooManyUserConnect:
			return core.KindConnectivity
		}
		return core.KindUnknown
	}

	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	switch {
	case errors.Is(err, orm.ErrDecode), errors.Is(err, orm.ErrEncode),
		errors.As(err, &syntaxErr), errors.As(err, &typeErr):
		return core.KindSerialization
	case errors.Is(err, orm.ErrUnknownEnumValue), errors.Is(err, orm.ErrMissingColumn),
		errors.Is(err, orm.ErrEmptyInClause):
		return core.KindMapping
	case errors.Is(err, mysql.ErrInvalidConn), errors.Is(err, driver.ErrBadConn),
		errors.Is(err, ErrClosed), errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, context.Canceled):
		return core.KindConnectivity
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return core.KindConnectivity
	}

	return core.KindUnknown
}
