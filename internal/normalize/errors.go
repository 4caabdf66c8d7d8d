package normalize

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinels for errors.Is. Every *ValidationError unwraps to exactly one of these.
var (
	ErrInputShape       = errors.New("normalize: table has no genes or no samples")
	ErrInvalidLength    = errors.New("normalize: gene length must be positive")
	ErrInvalidCount     = errors.New("normalize: read count must be finite and non-negative")
	ErrZeroLibrarySize  = errors.New("normalize: sample has zero mapped reads")
	ErrNumericIntegrity = errors.New("normalize: result contains NaN or Inf")
)

// Kind classifies a validation failure.
type Kind string

const (
	KindInputShape       Kind = "input_shape"
	KindInvalidLength    Kind = "invalid_length"
	KindInvalidCount     Kind = "invalid_count"
	KindZeroLibrarySize  Kind = "zero_library_size"
	KindNumericIntegrity Kind = "numeric_integrity"
)

func (k Kind) sentinel() error {
	switch k {
	case KindInputShape:
		return ErrInputShape
	case KindInvalidLength:
		return ErrInvalidLength
	case KindInvalidCount:
		return ErrInvalidCount
	case KindZeroLibrarySize:
		return ErrZeroLibrarySize
	case KindNumericIntegrity:
		return ErrNumericIntegrity
	}
	return nil
}

// ValidationError reports which gene and/or sample broke an invariant.
// Row and Col are 0-based; -1 means not applicable.
type ValidationError struct {
	Kind   Kind
	Gene   string
	Sample string
	Row    int
	Col    int
	Value  float64
	Detail string
}

func (e *ValidationError) Error() string {
	var b strings.Builder
	b.WriteString(string(e.Kind))
	b.WriteString(":")
	if e.Gene != "" {
		fmt.Fprintf(&b, " gene %q", e.Gene)
		if e.Row >= 0 {
			fmt.Fprintf(&b, " (row %d)", e.Row+1)
		}
	}
	if e.Sample != "" {
		fmt.Fprintf(&b, " sample %q", e.Sample)
	}
	if e.Detail != "" {
		b.WriteString(" ")
		b.WriteString(e.Detail)
	}
	return b.String()
}

func (e *ValidationError) Unwrap() error { return e.Kind.sentinel() }

func shapeError(format string, a ...any) *ValidationError {
	return &ValidationError{Kind: KindInputShape, Row: -1, Col: -1, Detail: fmt.Sprintf(format, a...)}
}
