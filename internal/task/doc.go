// Package task manages background job admission, execution, and lifecycle.
// It provides a concurrency-bounded scheduler for long-running operations
// like AI calls, batch imports, and marketplace syncs, ensuring they don't
// block the caller while exposing progress and cooperative cancellation.
package task
