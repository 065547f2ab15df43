package adoc

import (
	"github.com/tsawler/adoc/internal/logger"
	"github.com/tsawler/adoc/model"
)

// LoadOptions holds configuration for loading a document.
type LoadOptions struct {
	// Security
	safeMode        model.SafeMode
	recoverSecurity bool
	baseDir         string
	maxIncludeDepth int // 0 keeps the max-include-depth attribute

	// Attributes passed by the caller, in order
	attributes       []model.SeedEntry
	attributeMissing string

	// Processing options
	sourcemap  bool
	headerOnly bool
	converter  model.Converter

	log *logger.Logger
}

// defaultOptions returns the default load options.
func defaultOptions() LoadOptions {
	return LoadOptions{
		safeMode:        model.SafeModeSecure,
		recoverSecurity: false,
		baseDir:         "", // empty means the directory of the source file
		maxIncludeDepth: 0,
		sourcemap:       false,
		headerOnly:      false,
		log:             logger.Discard(),
	}
}

// clone creates a deep copy of LoadOptions.
func (o LoadOptions) clone() LoadOptions {
	newOpts := o

	// Deep copy attribute entries
	if o.attributes != nil {
		newOpts.attributes = make([]model.SeedEntry, len(o.attributes))
		copy(newOpts.attributes, o.attributes)
	}

	return newOpts
}
