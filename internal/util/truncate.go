package util

import "fmt"

// DefaultLogMaxLen caps logged payload previews at 1KB.
const DefaultLogMaxLen = 1024

// TruncateLog shortens long strings for log output.
func TruncateLog(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + fmt.Sprintf("... [truncated, %d bytes total]", len(s))
}

// TruncateBytes is a []byte convenience wrapper using DefaultLogMaxLen.
func TruncateBytes(b []byte) string {
	return TruncateLog(string(b), DefaultLogMaxLen)
}
