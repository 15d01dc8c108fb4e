package importer

import (
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Resolve looks up the first value in row matching one of aliases. Matching
// runs in three tiers, each scanning aliases in priority order: exact key,
// normalized key, then normalized substring in either direction. The second
// return value is false when no column matched.
func Resolve(row RawRow, aliases []string) (Value, bool) {
	return newRowIndex(row).lookup(aliases)
}

type rowIndex struct {
	row  RawRow
	keys []string
	norm []string
}

func newRowIndex(row RawRow) rowIndex {
	keys := make([]string, 0, len(row))
	for k := range row {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	normalized := make([]string, len(keys))
	for i, k := range keys {
		normalized[i] = normalizeKey(k)
	}
	return rowIndex{row: row, keys: keys, norm: normalized}
}

func (idx rowIndex) lookup(aliases []string) (Value, bool) {
	for _, alias := range aliases {
		if v, ok := idx.row[alias]; ok && !v.IsAbsent() {
			return v, true
		}
	}

	normAliases := make([]string, len(aliases))
	for i, alias := range aliases {
		normAliases[i] = normalizeKey(alias)
	}

	for _, na := range normAliases {
		if na == "" {
			continue
		}
		for i, nk := range idx.norm {
			if nk == na {
				return idx.row[idx.keys[i]], true
			}
		}
	}

	// Overlapping aliases (a bare "Date" column, say) resolve to whichever
	// alias comes first; there is no disambiguation by column position.
	for _, na := range normAliases {
		if na == "" {
			continue
		}
		for i, nk := range idx.norm {
			if nk == "" {
				continue
			}
			if strings.Contains(na, nk) || strings.Contains(nk, na) {
				return idx.row[idx.keys[i]], true
			}
		}
	}

	return Value{}, false
}

func normalizeKey(key string) string {
	folded := strings.ToLower(norm.NFKC.String(key))
	return strings.Map(func(r rune) rune {
		switch r {
		case '_', '-', '#', '.', '(', ')':
			return -1
		}
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, folded)
}
