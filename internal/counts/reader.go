package counts

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"genenorm/internal/normalize"
)

// Options controls how a count table is parsed.
type Options struct {
	Schema    Schema
	Delimiter rune // 0 = tab
}

// ParseDelimiter maps "tab", "comma" (or a single character) to a rune.
func ParseDelimiter(s string) (rune, error) {
	switch s {
	case "", "tab", `\t`:
		return '\t', nil
	case "comma", ",":
		return ',', nil
	case "semicolon", ";":
		return ';', nil
	}
	return 0, fmt.Errorf("unsupported delimiter %q (want tab|comma|semicolon)", s)
}

// Load reads the table at path ("-" = stdin).
func Load(path string, opt Options) (*normalize.Table, error) {
	rc, err := Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rc.Close() }()
	name := path
	if path == "-" {
		name = "<stdin>"
	}
	return Read(rc, name, opt)
}

// Read parses a delimited table with a header row. Lines starting with '#'
// and blank lines are skipped. name prefixes error messages.
func Read(r io.Reader, name string, opt Options) (*normalize.Table, error) {
	c := csv.NewReader(r)
	c.Comma = opt.Delimiter
	if c.Comma == 0 {
		c.Comma = '\t'
	}
	c.Comment = '#'
	c.LazyQuotes = true
	c.ReuseRecord = true

	header, err := c.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%s: no header line", name)
		}
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}
	header = trimAll(header)
	lay, err := opt.Schema.resolve(header)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}

	samples := make([]string, len(lay.counts))
	for s, i := range lay.counts {
		samples[s] = header[i]
	}

	var (
		genes   []string
		lengths []int
		rows    [][]float64
		seen    = make(map[string]int)
	)
	for {
		rec, err := c.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		ln, _ := c.FieldPos(0)

		gene := strings.TrimSpace(rec[lay.gene])
		if gene == "" {
			return nil, fmt.Errorf("%s:%d: empty gene id", name, ln)
		}
		if first, dup := seen[gene]; dup {
			return nil, fmt.Errorf("%s:%d: duplicate gene id %q (first seen on line %d)", name, ln, gene, first)
		}
		seen[gene] = ln

		length, err := parseLength(rec[lay.length])
		if err != nil {
			return nil, fmt.Errorf("%s:%d: gene %q: bad %s: %v", name, ln, gene, header[lay.length], err)
		}

		row := make([]float64, len(lay.counts))
		for s, i := range lay.counts {
			v, err := strconv.ParseFloat(strings.TrimSpace(rec[i]), 64)
			if err != nil {
				return nil, fmt.Errorf("%s:%d: gene %q: bad count for sample %q: %v", name, ln, gene, samples[s], err)
			}
			row[s] = v
		}

		genes = append(genes, gene)
		lengths = append(lengths, length)
		rows = append(rows, row)
	}

	return normalize.NewTable(genes, lengths, samples, rows)
}

// parseLength accepts integers and integral floats ("1500", "1500.0").
func parseLength(s string) (int, error) {
	s = strings.TrimSpace(s)
	if n, err := strconv.Atoi(s); err == nil {
		return n, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if f != math.Trunc(f) || math.IsInf(f, 0) || math.Abs(f) > math.MaxInt32 {
		return 0, fmt.Errorf("%q is not an integer length", s)
	}
	return int(f), nil
}

func trimAll(fields []string) []string {
	out := make([]string, len(fields))
	for i, f := range fields {
		out[i] = strings.TrimSpace(f)
	}
	return out
}
