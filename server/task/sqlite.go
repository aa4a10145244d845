// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package task

import (
	"fmt"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// sqliteBusyTimeoutMillis is how long a statement waits for a lock held by another process.
const sqliteBusyTimeoutMillis = 5000

// OpenSQLite opens a SQLite database for a [DatabaseTaskStore].
//
// The pool is limited to one connection: SQLite allows a single writer, and a deferred
// transaction that reads before it writes fails with "database is locked" when another
// connection holds the write lock. One connection also keeps ":memory:" databases shared.
func OpenSQLite(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", dsn, err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)

	if err := db.Exec(fmt.Sprintf("PRAGMA busy_timeout = %d", sqliteBusyTimeoutMillis)).Error; err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("configure sqlite %s: %w", dsn, err)
	}
	return db, nil
}
