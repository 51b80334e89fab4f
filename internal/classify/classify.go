// Package classify implements stateless Unicode classification of raw
// terminal input chunks: does a chunk look like IME-produced text, and if
// so, which script does it appear to belong to.
package classify

import "unicode/utf8"

// Script identifies the writing system a classified IME chunk appears to
// belong to. Unknown means the chunk was classified as IME (multi-byte
// UTF-8 or a combining mark was present) but did not fall inside any of
// the named script ranges.
type Script int

const (
	Unknown Script = iota
	Vietnamese
	Chinese
	Japanese
	Korean
	Thai
	Arabic
	Devanagari
)

func (s Script) String() string {
	switch s {
	case Vietnamese:
		return "vietnamese"
	case Chinese:
		return "chinese"
	case Japanese:
		return "japanese"
	case Korean:
		return "korean"
	case Thai:
		return "thai"
	case Arabic:
		return "arabic"
	case Devanagari:
		return "devanagari"
	default:
		return "unknown"
	}
}

// Result is the outcome of classifying a chunk: either Regular input, or
// IME-produced text tagged with its detected Script (Unknown if no
// specific script range matched).
type Result struct {
	IME    bool
	Script Script
}

type codeRange struct {
	lo, hi rune
}

type scriptRanges struct {
	script Script
	ranges []codeRange
}

// combiningMarks is checked independently of the per-script table: any
// combining mark in this range marks a chunk as IME regardless of script.
var combiningMarks = codeRange{0x0300, 0x036F}

// table lists script ranges in match-priority order: the first script
// whose ranges contain any code point in the chunk wins.
var table = []scriptRanges{
	{Vietnamese, []codeRange{
		{0x00C0, 0x00FF},
		{0x0102, 0x0103},
		{0x0110, 0x0111},
		{0x0128, 0x0129},
		{0x0168, 0x0169},
		{0x01A0, 0x01B0},
		{0x1EA0, 0x1EF9},
		combiningMarks,
	}},
	{Chinese, []codeRange{
		{0x4E00, 0x9FFF},
		{0x3400, 0x4DBF},
		{0xF900, 0xFAFF},
		{0x2F00, 0x2FDF},
	}},
	{Japanese, []codeRange{
		{0x3040, 0x309F},
		{0x30A0, 0x30FF},
		{0x31F0, 0x31FF},
		{0xFF65, 0xFF9F},
	}},
	{Korean, []codeRange{
		{0xAC00, 0xD7AF},
		{0x1100, 0x11FF},
		{0xA960, 0xA97F},
		{0x3130, 0x318F},
	}},
	{Thai, []codeRange{{0x0E00, 0x0E7F}}},
	{Arabic, []codeRange{{0x0600, 0x06FF}}},
	{Devanagari, []codeRange{{0x0900, 0x097F}}},
}

func inRange(r rune, ranges []codeRange) bool {
	for _, cr := range ranges {
		if r >= cr.lo && r <= cr.hi {
			return true
		}
	}
	return false
}

// DetectScript reports the first script in table order that has any code
// point present in text, and true if one was found. It does not itself
// decide IME-ness; a chunk with no script match can still be IME by rule
// (a) or (b) in Classify.
func DetectScript(text string) (Script, bool) {
	for _, entry := range table {
		for _, r := range text {
			if inRange(r, entry.ranges) {
				return entry.script, true
			}
		}
	}
	return Unknown, false
}

func hasCombiningMark(text string) bool {
	for _, r := range text {
		if r >= combiningMarks.lo && r <= combiningMarks.hi {
			return true
		}
	}
	return false
}

// Classify decides whether text looks like IME-produced output. An empty
// chunk or a single ASCII byte (< 0x80) is always Regular. Otherwise a
// chunk is IME if it contains multi-byte UTF-8 (byte length exceeds
// code-point length), a combining mark, or a code point in one of the
// per-script ranges.
func Classify(text string) Result {
	if len(text) == 0 {
		return Result{IME: false}
	}
	if len(text) == 1 && text[0] < 0x80 {
		return Result{IME: false}
	}

	ime := len(text) > utf8.RuneCountInString(text)
	if !ime {
		ime = hasCombiningMark(text)
	}

	script, found := DetectScript(text)
	if found {
		ime = true
	}
	if !ime {
		return Result{IME: false}
	}
	if !found {
		script = Unknown
	}
	return Result{IME: true, Script: script}
}
