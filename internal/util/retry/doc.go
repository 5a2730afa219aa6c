// Package retry provides the bounded retry loops used during node bootstrap.
//
// [Poll] repeats an operation at a fixed interval for a fixed number of
// attempts; interval times attempts bounds the worst-case wait of every
// blocking step (role resolution, token wait, leader health wait).
// [WithExponentialBackoff] retries short write paths against the shared store.
// Errors wrapped with [Fatal] are never retried by either loop.
package retry
