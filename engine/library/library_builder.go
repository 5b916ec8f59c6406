package library

import "gorm.io/gorm"

// LibraryBuilderOption is a functional option for configuring a Library during construction.
type LibraryBuilderOption func(*library)

// WithPath is an option builder that stores the library in a SQLite file.
//
// Parameters:
//   - path: the database file, created if missing
//
// Returns:
//   - LibraryBuilderOption: a function that applies the path option to a library
func WithPath(path string) LibraryBuilderOption {
	return func(l *library) {
		l.path = path
	}
}

// WithDB is an option builder that stores the library in an existing database.
// The library migrates its tables into db and never closes it.
//
// Parameters:
//   - db: the database connection to use
//
// Returns:
//   - LibraryBuilderOption: a function that applies the database option to a library
func WithDB(db *gorm.DB) LibraryBuilderOption {
	return func(l *library) {
		l.db = db
	}
}
