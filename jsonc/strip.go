// Package jsonc removes the full-line "//" comment extension from JSON
// resource files so that the remainder can be handed to a standard JSON
// parser.
//
// Only lines whose first two bytes are "//" are comments. A "//" that follows
// any other byte on the same line, including leading whitespace, is left in
// place and will be rejected by the parser.
package jsonc

import "bytes"

// CommentPrefix marks a comment line.
const CommentPrefix = "//"

// Strip splits data into lines on "\n", "\r\n", or "\r", drops every comment
// line, and joins the rest with "\n". Trailing blank lines are dropped, so
// the output never ends in "\n" and Strip(Strip(b)) equals Strip(b).
func Strip(data []byte) []byte {
	lines := SplitLines(data)
	kept := lines[:0]
	for _, line := range lines {
		if IsComment(line) {
			continue
		}
		kept = append(kept, line)
	}
	for len(kept) > 0 && len(kept[len(kept)-1]) == 0 {
		kept = kept[:len(kept)-1]
	}
	return bytes.Join(kept, []byte{'\n'})
}

// IsComment reports whether line starts with CommentPrefix.
func IsComment(line []byte) bool {
	return bytes.HasPrefix(line, []byte(CommentPrefix))
}

// SplitLines splits data at line boundaries without keeping the terminators.
func SplitLines(data []byte) [][]byte {
	var lines [][]byte
	start := 0
	for i := 0; i < len(data); i++ {
		switch data[i] {
		case '\n':
			lines = append(lines, data[start:i])
			start = i + 1
		case '\r':
			lines = append(lines, data[start:i])
			if i+1 < len(data) && data[i+1] == '\n' {
				i++
			}
			start = i + 1
		}
	}
	if start < len(data) {
		lines = append(lines, data[start:])
	}
	return lines
}

// CommentLines returns the 1-based line numbers of the comment lines in data.
func CommentLines(data []byte) []int {
	var nums []int
	for i, line := range SplitLines(data) {
		if IsComment(line) {
			nums = append(nums, i+1)
		}
	}
	return nums
}
