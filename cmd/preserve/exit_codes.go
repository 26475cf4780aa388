package main

import (
	"errors"
	"os"

	preserve "github.com/alnah/go-preserve"
	"github.com/alnah/go-preserve/internal/assets"
	"github.com/alnah/go-preserve/internal/config"
	"github.com/alnah/go-preserve/internal/logger"
)

// Exit codes for the preserve CLI.
// Follows Unix conventions: 0=success, 1=general, 2=usage, and custom codes < 126.
const (
	ExitSuccess = 0 // Successful run
	ExitGeneral = 1 // General/unexpected error
	ExitUsage   = 2 // Invalid flags, config, or option values
	ExitIO      = 3 // File not found, permission denied, store failures
)

// exitCodeFor returns the appropriate exit code for an error.
// It uses errors.Is to check wrapped errors, so callers must use fmt.Errorf("%w", err).
func exitCodeFor(err error) int {
	if err == nil {
		return ExitSuccess
	}

	// I/O errors (exit 3)
	if errors.Is(err, os.ErrNotExist) ||
		errors.Is(err, os.ErrPermission) ||
		errors.Is(err, ErrReadInput) ||
		errors.Is(err, ErrWriteOutput) ||
		errors.Is(err, ErrCreateOutputDir) ||
		errors.Is(err, ErrOpenStore) ||
		errors.Is(err, preserve.ErrStoreClosed) ||
		errors.Is(err, assets.ErrAssetRead) ||
		errors.Is(err, assets.ErrPathTraversal) {
		return ExitIO
	}

	// Usage/config/validation errors (exit 2)
	if errors.Is(err, ErrUsage) ||
		errors.Is(err, ErrUnknownCommand) ||
		errors.Is(err, ErrUnknownKey) ||
		errors.Is(err, ErrInvalidPair) ||
		errors.Is(err, config.ErrConfigNotFound) ||
		errors.Is(err, config.ErrConfigParse) ||
		errors.Is(err, config.ErrFieldTooLong) ||
		errors.Is(err, config.ErrInvalidValue) ||
		errors.Is(err, logger.ErrInvalidLevel) ||
		errors.Is(err, preserve.ErrInvalidOption) ||
		errors.Is(err, preserve.ErrUnknownChannel) ||
		errors.Is(err, assets.ErrStyleNotFound) ||
		errors.Is(err, assets.ErrTemplateNotFound) ||
		errors.Is(err, assets.ErrInvalidAssetName) ||
		errors.Is(err, assets.ErrInvalidBasePath) ||
		errors.Is(err, ErrPageTemplate) {
		return ExitUsage
	}

	return ExitGeneral
}
