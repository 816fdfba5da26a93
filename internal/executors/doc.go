// Package executors maps task types to the code that runs them.
//
// Each executor declares a JSON schema for its payload. Payloads are
// validated when a task is submitted, so an executor only ever sees input
// that matches its schema.
package executors
