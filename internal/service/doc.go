// Package service contains the application use cases that sit between the
// HTTP layer and the task scheduler.
//
// TaskService is the single entry point for submitting work: it resolves the
// executor for a task type, validates the payload, registers the task and
// starts it on the scheduler in the background. Read operations and
// cancellation are thin pass-throughs that translate scheduler results into
// the sentinel errors the API layer maps to status codes.
package service
