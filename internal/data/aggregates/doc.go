// Package aggregates implements the aggregate write contracts declared in
// internal/domain/aggregates. Every write runs in one transaction owned by the
// aggregate, and failures are mapped to domain aggregate error codes.
package aggregates
