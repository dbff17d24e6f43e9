package csvsource

import (
	"bytes"
	"encoding/csv"
	"errors"
	"io"
	"strings"
	"unicode/utf8"
)

// rowReader is a streaming CSV reader that also hands out the raw bytes each
// record was parsed from, so rows that are not modified can be copied
// through byte for byte.
type rowReader struct {
	data   []byte
	reader *csv.Reader
	offset int64
	row    int

	// start is the offset of the last record's raw bytes.
	start int

	// lines holds the offset at which each line of data begins.
	lines []int
}

func newRowReader(data []byte, delimiter rune) *rowReader {
	reader := csv.NewReader(bytes.NewReader(data))
	reader.Comma = delimiter

	// Allow a variable number of fields per row.
	reader.FieldsPerRecord = -1

	// Allow quotes that don't follow strict CSV rules.
	reader.LazyQuotes = true

	lines := []int{0}
	for i, b := range data {
		if b == '\n' {
			lines = append(lines, i+1)
		}
	}
	return &rowReader{data: data, reader: reader, lines: lines}
}

// next returns the next record and its raw bytes, including any blank lines
// skipped before it and its line terminator. At the end of input it returns
// io.EOF together with whatever trailing bytes followed the last record.
func (p *rowReader) next() ([]string, []byte, error) {
	record, err := p.reader.Read()
	if errors.Is(err, io.EOF) {
		rest := p.data[p.offset:]
		p.offset = int64(len(p.data))
		return nil, rest, io.EOF
	}
	if err != nil {
		return nil, nil, err
	}
	p.row++

	end := p.reader.InputOffset()
	raw := p.data[p.offset:end]
	p.start = int(p.offset)
	p.offset = end
	return record, raw, nil
}

// fieldSpan returns the byte range of field i of the last record within its
// raw bytes. A quoted field's range includes its quotes; the last field ends
// before the line terminator.
func (p *rowReader) fieldSpan(i, fields int, raw []byte) (int, int) {
	from := p.fieldOffset(i) - p.start
	if i+1 < fields {
		return from, p.fieldOffset(i+1) - p.start - utf8.RuneLen(p.reader.Comma)
	}
	to := len(raw)
	if bytes.HasSuffix(raw, []byte("\r\n")) {
		to -= 2
	} else if bytes.HasSuffix(raw, []byte("\n")) {
		to--
	}
	return from, to
}

func (p *rowReader) fieldOffset(i int) int {
	line, col := p.reader.FieldPos(i)
	return p.lines[line-1] + col - 1
}

// spliceField replaces the byte range [from, to) of raw with value. The rest
// of the row is kept byte for byte. The value is quoted when the original
// field was quoted or when it needs quoting.
func spliceField(raw []byte, from, to int, value string, delimiter rune) []byte {
	quoted := from < to && raw[from] == '"'
	if !quoted {
		quoted = value != "" && (strings.ContainsRune(value, delimiter) ||
			strings.ContainsAny(value, "\"\r\n") ||
			value[0] == ' ' || value[0] == '\t')
	}

	out := make([]byte, 0, len(raw)-(to-from)+len(value)+2)
	out = append(out, raw[:from]...)
	if quoted {
		out = append(out, '"')
		out = append(out, strings.ReplaceAll(value, `"`, `""`)...)
		out = append(out, '"')
	} else {
		out = append(out, value...)
	}
	return append(out, raw[to:]...)
}
