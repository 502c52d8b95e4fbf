// Copyright (C) 2026 Storj Labs, Inc.
// See LICENSE for copying information.

package sqliterdbms

import (
	"database/sql"
	"errors"
	"regexp"
	"sync"

	"github.com/mattn/go-sqlite3"

	"github.com/gridlabs/tieredstorage/storage/rdbms/sqlmap"
)

// DriverName is the database/sql driver registered by this package. It is
// the sqlite3 driver with a regexp function.
const DriverName = "sqlite3_tiered"

var registerOnce sync.Once

func registerDriver() {
	registerOnce.Do(func() {
		sql.Register(DriverName, &sqlite3.SQLiteDriver{
			ConnectHook: func(conn *sqlite3.SQLiteConn) error {
				return conn.RegisterFunc(sqlmap.RegexpFunction, patterns.match, true)
			},
		})
	})
}

var patterns patternCache

// patternCache compiles every pattern once.
type patternCache struct {
	compiled sync.Map
}

// match implements regexp(pattern, value). NULL and non text values do not
// match.
func (c *patternCache) match(pattern string, value interface{}) (bool, error) {
	var re *regexp.Regexp
	if cached, ok := c.compiled.Load(pattern); ok {
		re = cached.(*regexp.Regexp)
	} else {
		var err error
		re, err = regexp.Compile(pattern)
		if err != nil {
			return false, err
		}
		c.compiled.Store(pattern, re)
	}
	switch v := value.(type) {
	case string:
		return re.MatchString(v), nil
	case []byte:
		return re.Match(v), nil
	}
	return false, nil
}

// isPrimaryKeyViolation reports whether err is a duplicate primary key.
func isPrimaryKeyViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	return false
}
