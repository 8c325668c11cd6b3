// Package format normalizes model output for display in chat clients.
package format

import "strings"

// StripEscapes removes every literal backslash from s, regardless of what
// follows it. This is a blunt de-escape, not a markdown parser: backslashes
// inside code snippets or Windows paths are removed too. Accepted behavior.
func StripEscapes(s string) string {
	return strings.ReplaceAll(s, "\\", "")
}

// NormalizeLists rewrites list markers line by line: a line whose trimmed
// content starts with "-" becomes a "• " bullet followed by the remainder,
// and every other line (ordinal markers like "1." included) passes through
// trimmed. The result always ends with a single trailing newline after the
// final line.
func NormalizeLists(s string) string {
	lines := strings.Split(s, "\n")
	out := make([]string, len(lines))
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "-") {
			out[i] = "• " + strings.TrimSpace(trimmed[1:])
		} else {
			out[i] = trimmed
		}
	}
	joined := strings.Join(out, "\n")
	if !strings.HasSuffix(joined, "\n") {
		joined += "\n"
	}
	return joined
}
