// Package async runs independent tasks concurrently.
//
// [RunParallel] starts every task, waits for all of them and joins their
// errors. The simulation uses it to boot a virtual fleet in parallel.
package async
