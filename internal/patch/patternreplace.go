package patch

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	splice "github.com/oldnordic/splice"
	"github.com/oldnordic/splice/internal/lang"
)

// PatternResult reports how many files a PatternReplace touched and which
// ones were actually modified, in the shape of frizbee's replacer report.
type PatternResult struct {
	Processed []string
	Modified  []string
	Result    *splice.ApplyResult
}

// PatternReplace locates every occurrence of search in each of files and
// stages a SpanReplacement for the ones that are not inside a comment or
// string-literal token, per SPEC_FULL.md §4.6.1. A match is kept anyway if
// search itself starts with a comment or string prefix (e.g. replacing the
// contents of a specific string literal), since in that case the token
// boundary is exactly what the caller is searching for.
func (e *Engine) PatternReplace(ctx context.Context, files []string, search, replace string, language splice.Language, opts splice.BatchOptions) (*PatternResult, error) {
	searchStartsInToken := strings.HasPrefix(strings.TrimSpace(search), "\"") || strings.HasPrefix(strings.TrimSpace(search), "//") || strings.HasPrefix(strings.TrimSpace(search), "/*") || strings.HasPrefix(strings.TrimSpace(search), "#")

	var batch splice.Batch
	result := &PatternResult{}

	for _, path := range files {
		result.Processed = append(result.Processed, path)

		absPath := path
		if !filepath.IsAbs(absPath) {
			absPath = filepath.Join(e.Root, absPath)
		}
		src, err := os.ReadFile(absPath)
		if err != nil {
			return nil, err
		}

		tree, err := lang.Parse(ctx, src, language)
		if err != nil {
			return nil, err
		}

		matched := false
		start := 0
		for {
			idx := strings.Index(string(src[start:]), search)
			if idx < 0 {
				break
			}
			matchStart := start + idx
			matchEnd := matchStart + len(search)

			if searchStartsInToken || !lang.IsInsideCommentOrString(tree, matchStart) {
				batch.Replacements = append(batch.Replacements, splice.SpanReplacement{
					File:       path,
					ByteStart:  matchStart,
					ByteEnd:    matchEnd,
					NewContent: []byte(replace),
				})
				matched = true
			}
			start = matchEnd
		}
		tree.Close()

		if matched {
			result.Modified = append(result.Modified, path)
		}
	}

	applyResult, err := e.ApplyBatch(ctx, batch, opts)
	if err != nil {
		return nil, err
	}
	result.Result = applyResult
	return result, nil
}
