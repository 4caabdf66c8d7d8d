// Package normalize is the expression normalization core: it turns a gene by
// sample read-count table into RPKM and TPM matrices.
//
// It never imports app, appcore, cli, counts, writers, or plotting, and it
// never logs. Callers get either both matrices or a *ValidationError.
package normalize
