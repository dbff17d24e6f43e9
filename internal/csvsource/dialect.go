package csvsource

import (
	"bytes"
	"path/filepath"
	"strings"
)

// candidates are the delimiters considered when sniffing, in order of
// preference on a tie.
var candidates = []rune{',', '\t', ';', '|'}

// Dialect describes how a delimited-text file is written.
type Dialect struct {
	Delimiter rune
	CRLF      bool
}

// detectDialect inspects the first line of data. A forced delimiter wins
// over sniffing. Files named *.tsv prefer tab.
func detectDialect(path string, data []byte, forced rune) Dialect {
	line := data
	d := Dialect{}
	if i := bytes.IndexByte(data, '\n'); i >= 0 {
		line = data[:i]
		d.CRLF = i > 0 && data[i-1] == '\r'
	}

	if forced != 0 {
		d.Delimiter = forced
		return d
	}
	d.Delimiter = sniffDelimiter(string(line), isTSV(path))
	return d
}

func isTSV(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".tsv")
}

// sniffDelimiter picks the candidate that occurs most often outside quotes.
func sniffDelimiter(header string, tsv bool) rune {
	counts := make(map[rune]int, len(candidates))
	quoted := false
	for _, r := range header {
		if r == '"' {
			quoted = !quoted
			continue
		}
		if !quoted {
			counts[r]++
		}
	}

	if tsv && counts['\t'] > 0 {
		return '\t'
	}
	best, bestCount := rune(0), 0
	for _, c := range candidates {
		if counts[c] > bestCount {
			best, bestCount = c, counts[c]
		}
	}
	if best != 0 {
		return best
	}
	if tsv {
		return '\t'
	}
	return ','
}
