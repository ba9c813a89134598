package reader

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// Format defines a file format reader for extracting a book. Load is always
// given a non-nil logger.
type Format interface {
	Name() string
	Extensions() []string
	Load(filename string, log *slog.Logger) (*Book, error)
}

var registry []Format

// Register adds a format reader to the registry.
func Register(f Format) {
	registry = append(registry, f)
}

// lookup returns the registered format for filename's extension.
func lookup(filename string) Format {
	ext := strings.ToLower(filepath.Ext(filename))
	for _, f := range registry {
		for _, e := range f.Extensions() {
			if ext == e {
				return f
			}
		}
	}
	return nil
}

// SupportedFormats returns registered format names with their extensions.
func SupportedFormats() []string {
	var out []string
	for _, f := range registry {
		out = append(out, f.Name()+" ("+strings.Join(f.Extensions(), ", ")+")")
	}
	return out
}

// SupportedExtensions returns every registered extension.
func SupportedExtensions() []string {
	var out []string
	for _, f := range registry {
		out = append(out, f.Extensions()...)
	}
	return out
}

// Extractor loads books through the format registry.
type Extractor struct {
	log *slog.Logger
}

// NewExtractor returns an Extractor. A nil logger discards output.
func NewExtractor(log *slog.Logger) *Extractor {
	if log == nil {
		log = discardLogger()
	}
	return &Extractor{log: log}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// Extract opens filename and returns its words in reading order.
func Extract(filename string) (*Book, error) {
	return NewExtractor(nil).Extract(filename)
}

// Extract opens filename and returns its words in reading order.
//
// Errors wrap ErrFileNotFound, ErrUnsupportedFormat or ErrEmptyBook.
// Panics raised by the parsing libraries are reported as ErrUnsupportedFormat.
func (e *Extractor) Extract(filename string) (book *Book, err error) {
	defer func() {
		if r := recover(); r != nil {
			e.log.Error("parser panic", "file", filename, "panic", r)
			book, err = nil, fmt.Errorf("%w: %v", ErrUnsupportedFormat, r)
		}
	}()

	if _, err := os.Stat(filename); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrFileNotFound, filename)
		}
		return nil, err
	}

	f := lookup(filename)
	if f == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(filename))
	}

	book, err = f.Load(filename, e.log)
	if err != nil {
		e.log.Warn("load failed", "file", filename, "format", f.Name(), "error", err)
		return nil, err
	}
	if len(book.Words) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmptyBook, filename)
	}

	if book.Title == "" {
		book.Title = strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
	}
	fillPreviews(book)

	e.log.Info("book loaded",
		"file", filename,
		"format", f.Name(),
		"words", len(book.Words),
		"chapters", len(book.Chapters),
		"cover", book.Cover != nil,
	)
	return book, nil
}
