// Package sqlite contains the SQLite repository for analysed sessions
// and their turn results.
//
// All database read/write operations belong here rather than in the
// detection packages. This keeps the engine free of SQL noise and makes
// it easy to swap storage backends for testing.
package sqlite
