package parser

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/KaramelBytes/salesloom-cli/internal/dataset"
)

type csvParser struct{}

func (csvParser) CanParse(filename string) bool {
	name := strings.ToLower(filename)
	return strings.HasSuffix(name, ".csv") || strings.HasSuffix(name, ".tsv") || strings.HasSuffix(name, ".txt")
}

func (csvParser) Parse(r io.Reader, opt Options) (*Table, error) {
	br := bufio.NewReader(r)
	if bom, _ := br.Peek(3); bytes.Equal(bom, []byte{0xEF, 0xBB, 0xBF}) {
		_, _ = br.Discard(3)
	}
	delim := opt.Delimiter
	if delim == 0 {
		delim = sniffDelimiter(opt.Filename, br)
	}
	cr := csv.NewReader(br)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	cr.LazyQuotes = true
	cr.Comma = delim

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, &dataset.MalformedInputError{Reason: "file is empty"}
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	header = append([]string(nil), header...)

	var records [][]string
	for opt.MaxRows <= 0 || len(records) < opt.MaxRows {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row %d: %w", len(records)+2, err)
		}
		records = append(records, rec)
	}
	return buildTable(header, stringRecords(records), opt.MaxRows), nil
}

var delimiterCandidates = []rune{',', ';', '\t', '|'}

// sniffDelimiter picks the candidate occurring most often in the first line.
// A .tsv extension always means tab.
func sniffDelimiter(filename string, br *bufio.Reader) rune {
	if strings.HasSuffix(strings.ToLower(filename), ".tsv") {
		return '\t'
	}
	head, _ := br.Peek(4096)
	line := string(head)
	if i := strings.IndexByte(line, '\n'); i >= 0 {
		line = line[:i]
	}
	best, bestCount := ',', 0
	for _, c := range delimiterCandidates {
		if n := strings.Count(line, string(c)); n > bestCount {
			best, bestCount = c, n
		}
	}
	return best
}
