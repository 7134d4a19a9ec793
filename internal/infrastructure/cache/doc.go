// Package cache provides the delivery deduplication stores used by the
// webhook pipeline: an in-process map for single-instance deployments and a
// Redis store shared by every replica.
package cache
