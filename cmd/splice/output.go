package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	splice "github.com/oldnordic/splice"
)

// successPayload is spec.md §6's success envelope.
type successPayload struct {
	Status  string              `json:"status"`
	Message string              `json:"message"`
	Data    *successData        `json:"data"`
}

type successData struct {
	OperationID   string                `json:"operation_id"`
	Files         []splice.FileResult   `json:"files"`
	PreviewReport *splice.PreviewReport `json:"preview_report,omitempty"`
}

// errorPayload is spec.md §6's error envelope.
type errorPayload struct {
	Status string     `json:"status"`
	Error  errorBody  `json:"error"`
}

type errorBody struct {
	Kind        string                     `json:"kind"`
	Message     string                     `json:"message"`
	File        string                     `json:"file,omitempty"`
	Hint        string                     `json:"hint,omitempty"`
	Diagnostics []splice.DiagnosticRecord  `json:"diagnostics,omitempty"`
}

// emitSuccess writes an ApplyResult to stdout as spec.md §6's success
// payload and returns nil, so callers can `return emitSuccess(...)` directly
// from a cobra RunE.
func emitSuccess(message string, result *splice.ApplyResult) error {
	payload := successPayload{
		Status:  "ok",
		Message: message,
		Data: &successData{
			OperationID:   result.OperationID,
			Files:         result.Files,
			PreviewReport: result.PreviewReport,
		},
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(payload)
}

// emitError writes err to stderr as spec.md §6's error payload, classifying
// it against Splice's closed error taxonomy, and returns an opaque error so
// main() exits 1 without printing a second message.
func emitError(err error) error {
	payload := errorPayload{Status: "error", Error: classifyError(err)}
	enc := json.NewEncoder(os.Stderr)
	enc.SetIndent("", "  ")
	enc.Encode(payload)
	return errors.New("splice: command failed")
}

func classifyError(err error) errorBody {
	var (
		notFound    *splice.SymbolNotFoundError
		ambiguous   *splice.AmbiguousSymbolError
		unaligned   *splice.UnalignedSpanError
		badSchema   *splice.InvalidBatchSchemaError
		syntaxFail  *splice.ParseValidationFailedError
		cargoFail   *splice.CargoCheckFailedError
		compileFail *splice.CompilerValidationFailedError
		noAnalyzer  *splice.AnalyzerNotAvailableError
		analyzerErr *splice.AnalyzerFailedError
		rollback    *splice.RollbackFailedError
	)

	switch {
	case errors.As(err, &notFound):
		return errorBody{Kind: "symbol_not_found", Message: notFound.Error(), File: notFound.File, Hint: notFound.Hint}
	case errors.As(err, &ambiguous):
		return errorBody{Kind: "ambiguous_symbol", Message: ambiguous.Error()}
	case errors.As(err, &unaligned):
		return errorBody{Kind: "unaligned_span", Message: unaligned.Error(), File: unaligned.File}
	case errors.As(err, &badSchema):
		return errorBody{Kind: "invalid_batch_schema", Message: badSchema.Error(), File: badSchema.Path}
	case errors.As(err, &syntaxFail):
		return errorBody{Kind: "parse_validation_failed", Message: syntaxFail.Error(), File: syntaxFail.File}
	case errors.As(err, &cargoFail):
		return errorBody{Kind: "cargo_check_failed", Message: cargoFail.Error(), Diagnostics: cargoFail.Diagnostics}
	case errors.As(err, &compileFail):
		return errorBody{Kind: "compiler_validation_failed", Message: compileFail.Error(), Diagnostics: compileFail.Diagnostics}
	case errors.As(err, &noAnalyzer):
		return errorBody{Kind: "analyzer_not_available", Message: noAnalyzer.Error()}
	case errors.As(err, &analyzerErr):
		return errorBody{Kind: "analyzer_failed", Message: analyzerErr.Error()}
	case errors.As(err, &rollback):
		return errorBody{Kind: "rollback_failed", Message: rollback.Error()}
	default:
		return errorBody{Kind: "internal", Message: fmt.Sprint(err)}
	}
}
