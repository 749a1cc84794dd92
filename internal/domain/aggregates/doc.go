// Package aggregates declares aggregate write contracts and the shared error
// taxonomy used by their implementations in internal/data/aggregates.
package aggregates
