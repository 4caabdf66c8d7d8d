package counts

import (
	"errors"
	"fmt"
)

// DefaultLengthColumn matches featureCounts output.
const DefaultLengthColumn = "Length"

// Schema names the columns that carry the gene id, the gene length and the
// per-sample counts. It is resolved against the header at load time.
type Schema struct {
	GeneColumn   string   // "" = first column
	LengthColumn string   // "" = DefaultLengthColumn
	CountColumns []string // explicit sample columns, in output order
	CountsFrom   int      // 0-based first count column; <0 = every column after the length column
}

// DefaultSchema selects the first column as gene id, "Length" as length and
// every later column as a sample.
func DefaultSchema() Schema { return Schema{CountsFrom: -1} }

type layout struct {
	gene   int
	length int
	counts []int
}

func (s Schema) resolve(header []string) (layout, error) {
	idx := make(map[string]int, len(header))
	for i, h := range header {
		if j, dup := idx[h]; dup {
			return layout{}, fmt.Errorf("duplicate header column %q (columns %d and %d)", h, j+1, i+1)
		}
		idx[h] = i
	}
	find := func(role, name string) (int, error) {
		i, ok := idx[name]
		if !ok {
			return 0, fmt.Errorf("%s column %q not found in header", role, name)
		}
		return i, nil
	}

	var l layout
	var err error
	if s.GeneColumn != "" {
		if l.gene, err = find("gene", s.GeneColumn); err != nil {
			return layout{}, err
		}
	}
	lengthName := s.LengthColumn
	if lengthName == "" {
		lengthName = DefaultLengthColumn
	}
	if l.length, err = find("length", lengthName); err != nil {
		return layout{}, err
	}
	if l.length == l.gene {
		return layout{}, errors.New("gene and length columns must differ")
	}

	switch {
	case len(s.CountColumns) > 0:
		for _, name := range s.CountColumns {
			i, err := find("count", name)
			if err != nil {
				return layout{}, err
			}
			l.counts = append(l.counts, i)
		}
	case s.CountsFrom >= 0:
		if s.CountsFrom >= len(header) {
			return layout{}, fmt.Errorf("counts start at column %d but header has %d columns", s.CountsFrom+1, len(header))
		}
		for i := s.CountsFrom; i < len(header); i++ {
			l.counts = append(l.counts, i)
		}
	default:
		for i := l.length + 1; i < len(header); i++ {
			l.counts = append(l.counts, i)
		}
	}

	seen := make(map[int]bool, len(l.counts))
	for _, i := range l.counts {
		if i == l.gene || i == l.length {
			return layout{}, fmt.Errorf("column %q cannot be both a sample and the gene/length column", header[i])
		}
		if seen[i] {
			return layout{}, fmt.Errorf("sample column %q listed twice", header[i])
		}
		seen[i] = true
	}
	return l, nil
}
