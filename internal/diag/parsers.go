package diag

import (
	"regexp"
	"strconv"
	"strings"

	splice "github.com/oldnordic/splice"
)

// cargoDiagRe matches the header line of cargo/rustc's default (human)
// message format, e.g.
// "error[E0308]: mismatched types" or "warning: unused variable: `x`".
var cargoDiagRe = regexp.MustCompile(`^(error|warning)(\[[A-Z0-9]+\])?: (.+)$`)

// cargoLocationRe matches the following "  --> src/lib.rs:4:5" line.
var cargoLocationRe = regexp.MustCompile(`^\s*-->\s*(.+):(\d+):(\d+)$`)

func parseCargo(tool, stdout, stderr string) []splice.DiagnosticRecord {
	var out []splice.DiagnosticRecord
	lines := strings.Split(stdout+"\n"+stderr, "\n")
	for i := 0; i < len(lines); i++ {
		m := cargoDiagRe.FindStringSubmatch(lines[i])
		if m == nil {
			continue
		}
		rec := splice.DiagnosticRecord{
			Tool:    tool,
			Level:   levelFor(m[1]),
			Code:    strings.Trim(m[2], "[]"),
			Message: m[3],
		}
		if i+1 < len(lines) {
			if loc := cargoLocationRe.FindStringSubmatch(lines[i+1]); loc != nil {
				rec.File = loc[1]
				rec.Line, _ = strconv.Atoi(loc[2])
				rec.Column, _ = strconv.Atoi(loc[3])
			}
		}
		out = append(out, rec)
	}
	return out
}

// clangDiagRe matches clang/gcc's "file:line:col: error: message" form.
var clangDiagRe = regexp.MustCompile(`^(.+):(\d+):(\d+):\s+(error|warning|note):\s+(.+)$`)

func parseClang(tool, stdout, stderr string) []splice.DiagnosticRecord {
	var out []splice.DiagnosticRecord
	for _, line := range strings.Split(stdout+"\n"+stderr, "\n") {
		m := clangDiagRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		lineNo, _ := strconv.Atoi(m[2])
		col, _ := strconv.Atoi(m[3])
		out = append(out, splice.DiagnosticRecord{
			Tool:    tool,
			Level:   levelFor(m[4]),
			File:    m[1],
			Line:    lineNo,
			Column:  col,
			Message: m[5],
		})
	}
	return out
}

// javacDiagRe matches javac's "file:line: error: message" form.
var javacDiagRe = regexp.MustCompile(`^(.+):(\d+):\s+(error|warning):\s+(.+)$`)

func parseJavac(tool, stdout, stderr string) []splice.DiagnosticRecord {
	var out []splice.DiagnosticRecord
	for _, line := range strings.Split(stdout+"\n"+stderr, "\n") {
		m := javacDiagRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		lineNo, _ := strconv.Atoi(m[2])
		out = append(out, splice.DiagnosticRecord{
			Tool:    tool,
			Level:   levelFor(m[3]),
			File:    m[1],
			Line:    lineNo,
			Message: m[4],
		})
	}
	return out
}

// tscDiagRe matches tsc's "file(line,col): error TS1234: message" form.
var tscDiagRe = regexp.MustCompile(`^(.+)\((\d+),(\d+)\):\s+(error|warning)\s+(TS\d+):\s+(.+)$`)

func parseTSC(tool, stdout, stderr string) []splice.DiagnosticRecord {
	var out []splice.DiagnosticRecord
	for _, line := range strings.Split(stdout+"\n"+stderr, "\n") {
		m := tscDiagRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		lineNo, _ := strconv.Atoi(m[2])
		col, _ := strconv.Atoi(m[3])
		out = append(out, splice.DiagnosticRecord{
			Tool:    tool,
			Level:   levelFor(m[4]),
			File:    m[1],
			Line:    lineNo,
			Column:  col,
			Code:    m[5],
			Message: m[6],
		})
	}
	return out
}

// parseGeneric handles tools whose output doesn't carry a stable
// machine-parseable location (python's py_compile traceback, node
// --check's SyntaxError dump): any non-empty output (stdout and stderr
// together) is treated as one
// error-level record carrying the raw text, since the presence of output
// at all already means the syntax/semantic check failed.
func parseGeneric(tool, stdout, stderr string) []splice.DiagnosticRecord {
	combined := strings.TrimSpace(stdout + stderr)
	if combined == "" {
		return nil
	}
	return []splice.DiagnosticRecord{{
		Tool:    tool,
		Level:   splice.LevelError,
		Message: combined,
	}}
}

func levelFor(s string) splice.DiagnosticLevel {
	switch s {
	case "error":
		return splice.LevelError
	case "warning":
		return splice.LevelWarning
	default:
		return splice.LevelNote
	}
}
