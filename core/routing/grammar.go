package routing

import (
	"strings"
)

// The constrained model emits calls as `call:<function>{key:value,...}`.
// Values may be wrapped in paired escape markers to permit embedded commas
// and punctuation.
const (
	callMarker   = "call:"
	escapeMarker = "<escape>"
)

// parseState classifies the outcome of scanning a raw model response.
type parseState int

const (
	// parseStateNoMatch means no recognized function marker was found.
	parseStateNoMatch parseState = iota
	// parseStateParsed means a marker was found and its argument block
	// yielded at least one argument.
	parseStateParsed
	// parseStatePartial means a marker was found but no argument block
	// followed it, or the block was present but yielded zero arguments.
	parseStatePartial
	// parseStateMalformed means a marker was found but its argument block
	// was not properly delimited.
	parseStateMalformed
)

type parseResult struct {
	function Function
	args     map[string]any
	state    parseState
}

// parseFunctionCall scans the raw model response for a function-call marker
// and, when present, tokenizes its argument block.
func parseFunctionCall(raw string) parseResult {
	for _, function := range vocabulary {
		marker := callMarker + string(function)
		idx := strings.Index(raw, marker)
		if idx < 0 {
			continue
		}

		rest := raw[idx+len(marker):]
		if !strings.HasPrefix(rest, "{") {
			return parseResult{function: function, state: parseStatePartial}
		}

		end := strings.IndexByte(rest, '}')
		if end < 0 {
			return parseResult{function: function, state: parseStateMalformed}
		}

		args := scanArgumentBlock(rest[1:end])
		if len(args) == 0 {
			return parseResult{function: function, state: parseStatePartial}
		}

		return parseResult{function: function, args: args, state: parseStateParsed}
	}

	return parseResult{state: parseStateNoMatch}
}

// scanArgumentBlock tokenizes a comma-separated `key:value` block. Values are
// either escape-delimited or a maximal run of non-comma characters, taken
// verbatim.
func scanArgumentBlock(block string) map[string]any {
	args := map[string]any{}

	pos := 0
	for pos < len(block) {
		// Skip separators and stray whitespace before the next key.
		for pos < len(block) && (block[pos] == ',' || block[pos] == ' ' || block[pos] == '\t' || block[pos] == '\n') {
			pos++
		}

		keyStart := pos
		for pos < len(block) && isWordByte(block[pos]) {
			pos++
		}
		key := block[keyStart:pos]
		if key == "" || pos >= len(block) || block[pos] != ':' {
			// Not a key:value pair, resynchronize at the next comma.
			next := strings.IndexByte(block[pos:], ',')
			if next < 0 {
				break
			}
			pos += next + 1
			continue
		}
		pos++ // consume ':'

		var value string
		if strings.HasPrefix(block[pos:], escapeMarker) {
			closing := strings.Index(block[pos+len(escapeMarker):], escapeMarker)
			if closing >= 0 {
				value = block[pos+len(escapeMarker) : pos+len(escapeMarker)+closing]
				pos += 2*len(escapeMarker) + closing
				args[key] = coerceValue(value)
				continue
			}
			// Unterminated escape, fall through to a bare scan so the raw
			// text is still preserved.
		}

		valueEnd := strings.IndexByte(block[pos:], ',')
		if valueEnd < 0 {
			value = block[pos:]
			pos = len(block)
		} else {
			value = block[pos : pos+valueEnd]
			pos += valueEnd + 1
		}
		if value != "" {
			args[key] = coerceValue(value)
		}
	}

	return args
}

// coerceValue types an argument value: all-digit strings become integers,
// true/false (any case) become booleans, everything else stays a verbatim
// string.
func coerceValue(value string) any {
	if isAllDigits(value) {
		n := 0
		for i := 0; i < len(value); i++ {
			n = n*10 + int(value[i]-'0')
		}
		return n
	}

	switch strings.ToLower(value) {
	case "true":
		return true
	case "false":
		return false
	}

	return value
}

func isAllDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

func isWordByte(b byte) bool {
	return b == '_' ||
		(b >= 'a' && b <= 'z') ||
		(b >= 'A' && b <= 'Z') ||
		(b >= '0' && b <= '9')
}
