//go:build !cgo

package store

// IsBusy always reports false: without cgo the SQLite driver cannot open
// a database, so there are no lock conflicts to retry.
func IsBusy(err error) bool { return false }
