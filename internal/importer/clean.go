package importer

import "strings"

const unknownText = "Unknown"

var nullLiterals = map[string]struct{}{
	"":        {},
	"unknown": {},
	"n/a":     {},
	"-":       {},
}

// Clean folds the spellings upstream tools use for "no value" into null.
func Clean(v Value) Value {
	switch v.Kind() {
	case ValueAbsent, ValueNull:
		return Null()
	case ValueString:
		if _, ok := nullLiterals[strings.ToLower(strings.TrimSpace(v.str))]; ok {
			return Null()
		}
	}
	return v
}
