// Package writers serializes normalized matrices.
//
// Design:
//   - Writers own all presentation knowledge (delimiters, number format, JSON).
//   - The normalize package stays domain-only and never imports this one.
//   - JSON goes through pkg/api (v1) for a stable wire format.
package writers
