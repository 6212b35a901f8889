package domain

import "errors"

var (
	// ErrConfigurationMissing means the local repository root does not exist.
	ErrConfigurationMissing = errors.New("repository root does not exist")
	// ErrNotIndexed means a query arrived before the repository was indexed.
	ErrNotIndexed = errors.New("repository has not been indexed")
	// ErrArtifactNotFound means the main archive is missing at its resolved path.
	ErrArtifactNotFound = errors.New("artifact not found")
	// ErrClassNotFound means the requested entry is absent from an archive.
	ErrClassNotFound = errors.New("class not found in archive")
	// ErrArchiveUnreadable means the zip container could not be opened or parsed.
	ErrArchiveUnreadable = errors.New("archive unreadable")
	// ErrExternalToolUnavailable means a decompiler or disassembler is not installed.
	ErrExternalToolUnavailable = errors.New("external tool unavailable")
	// ErrExternalToolFailed means an external tool ran but produced nothing usable.
	ErrExternalToolFailed = errors.New("external tool failed")
)
