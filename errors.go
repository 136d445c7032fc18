package splice

import "fmt"

// SymbolNotFoundError is returned by the Resolver when no symbol in the
// store matches the requested name/file/kind restriction.
type SymbolNotFoundError struct {
	Name string
	File string
	Hint string
}

func (e *SymbolNotFoundError) Error() string {
	if e.File != "" {
		return fmt.Sprintf("symbol %q not found in %s: %s", e.Name, e.File, e.Hint)
	}
	return fmt.Sprintf("symbol %q not found: %s", e.Name, e.Hint)
}

// AmbiguousCandidate names one symbol among several that satisfy a
// Resolver request equally well.
type AmbiguousCandidate struct {
	File string
	Kind SymbolKind
}

// AmbiguousSymbolError is returned by the Resolver when more than one
// symbol satisfies the requested name/file/kind restriction.
type AmbiguousSymbolError struct {
	Name       string
	Candidates []AmbiguousCandidate
}

func (e *AmbiguousSymbolError) Error() string {
	return fmt.Sprintf("symbol %q is ambiguous across %d candidates", e.Name, len(e.Candidates))
}

// UnalignedSpanError is returned when a requested span endpoint does not
// fall on a UTF-8 character boundary.
type UnalignedSpanError struct {
	File   string
	Offset int
}

func (e *UnalignedSpanError) Error() string {
	return fmt.Sprintf("%s: offset %d is not a UTF-8 boundary", e.File, e.Offset)
}

// InvalidBatchSchemaError is returned when a Batch Manifest fails to parse
// or violates the manifest's structural rules.
type InvalidBatchSchemaError struct {
	Path    string
	Message string
}

func (e *InvalidBatchSchemaError) Error() string {
	return fmt.Sprintf("invalid batch manifest %s: %s", e.Path, e.Message)
}

// ParseValidationFailedError is returned by the Patch Engine's syntax gate
// when a post-edit file fails to re-parse cleanly.
type ParseValidationFailedError struct {
	File    string
	Message string
}

func (e *ParseValidationFailedError) Error() string {
	return fmt.Sprintf("%s: syntax gate failed: %s", e.File, e.Message)
}

// CargoCheckFailedError is returned by the Patch Engine's semantic gate for
// Rust when `cargo check` reports an error-level diagnostic.
type CargoCheckFailedError struct {
	Diagnostics []DiagnosticRecord
}

func (e *CargoCheckFailedError) Error() string {
	return fmt.Sprintf("cargo check failed with %d diagnostic(s)", len(e.Diagnostics))
}

// CompilerValidationFailedError is returned by the Patch Engine's semantic
// gate for any non-Rust language when the language's checker reports an
// error-level diagnostic.
type CompilerValidationFailedError struct {
	Language    Language
	Diagnostics []DiagnosticRecord
}

func (e *CompilerValidationFailedError) Error() string {
	return fmt.Sprintf("%s validation failed with %d diagnostic(s)", e.Language, len(e.Diagnostics))
}

// AnalyzerNotAvailableError is returned when analyzer_mode requests
// rust-analyzer but the binary cannot be located.
type AnalyzerNotAvailableError struct {
	Path string
}

func (e *AnalyzerNotAvailableError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("rust-analyzer not available at %s", e.Path)
	}
	return "rust-analyzer not available on PATH"
}

// AnalyzerFailedError is returned when rust-analyzer produced output,
// interpreted as at least one actionable finding.
type AnalyzerFailedError struct {
	Output string
}

func (e *AnalyzerFailedError) Error() string {
	return "rust-analyzer reported findings"
}

// RollbackFailedError is catastrophic: it surfaces both the error that
// triggered rollback and the failure of the rollback itself. The
// BackupManifest, if one was staged, is left in place for manual recovery.
type RollbackFailedError struct {
	Cause          error
	RollbackCause  error
	BackupManifest *BackupManifest
}

func (e *RollbackFailedError) Error() string {
	return fmt.Sprintf("rollback failed after %v: %v", e.Cause, e.RollbackCause)
}

func (e *RollbackFailedError) Unwrap() error {
	return e.Cause
}
