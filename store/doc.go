// Package store holds one typed repository per table of the attribution data model.
//
// Repositories are thin gorm wrappers. They translate gorm's not-found and
// unique-violation errors into ErrNotFound and ErrDuplicate so callers never
// import gorm to classify failures.
package store
