package config

import (
	"errors"
	"fmt"
)

var (
	// ErrClosed is returned by operations on a closed Store.
	ErrClosed = errors.New("settings store closed")

	// ErrNotLoaded is returned by Watch before Load.
	ErrNotLoaded = errors.New("settings store not loaded")
)

// FileError reports a settings file that could not be read. The layer it
// would have replaced is kept.
type FileError struct {
	Path  string
	Layer string
	Err   error
}

func (e *FileError) Error() string {
	return fmt.Sprintf("settings layer %s (%s): %v", e.Layer, e.Path, e.Err)
}

func (e *FileError) Unwrap() error {
	return e.Err
}
