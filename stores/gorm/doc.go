// Package gorm provides a GORM-backed user store.
//
// The store works with any GORM dialector (PostgreSQL, MySQL, SQLite).
// Run AutoMigrate once at startup to create the users table; the unique
// index on email is the store-level uniqueness constraint the register
// flow relies on.
package gorm
