package bakerecord

import (
	"git.home.luguber.info/inful/pagebaker/internal/foundation/errors"
)

var (
	// ErrDatabaseOpenFailed indicates the SQLite database could not be opened.
	ErrDatabaseOpenFailed = errors.RecordError("could not open bake record database").Build()

	// ErrInitializeSchemaFailed indicates the database schema could not be initialized.
	ErrInitializeSchemaFailed = errors.RecordError("failed to initialize bake record schema").Build()

	// ErrAppendFailed indicates writing a record row failed.
	ErrAppendFailed = errors.RecordError("failed to write bake record").Build()

	// ErrQueryFailed indicates reading record rows failed.
	ErrQueryFailed = errors.RecordError("failed to query bake record").Build()

	// ErrRunNotFound indicates the requested run does not exist.
	ErrRunNotFound = errors.NewError(errors.CategoryNotFound, "bake run not found").Build()
)
