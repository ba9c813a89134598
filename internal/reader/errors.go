package reader

import (
	"errors"
	"strings"
)

// Errors returned when a book cannot be loaded.
var (
	// ErrFileNotFound indicates the path does not exist.
	ErrFileNotFound = errors.New("file not found")

	// ErrUnsupportedFormat indicates the file is not a book we can read,
	// either because of its extension or because the container is malformed.
	ErrUnsupportedFormat = errors.New("unsupported format")

	// ErrEmptyBook indicates the book parsed but has no readable words.
	ErrEmptyBook = errors.New("book has no readable text")
)

// UserMessage returns a short description of a load error suitable for a dialog.
func UserMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrFileNotFound):
		return "The file could not be found."
	case errors.Is(err, ErrUnsupportedFormat):
		return "This file is not a readable book. Supported formats: " + strings.Join(SupportedFormats(), ", ") + "."
	case errors.Is(err, ErrEmptyBook):
		return "This book has no text to read."
	}
	return err.Error()
}
