// Package mocks provides shared mock implementations for testing.
//
// Each mock is a struct with one function field per interface method. A nil
// field falls back to the mock's default return values, so a test only sets
// the behavior it cares about:
//
//	tasks := &mocks.MockTaskService{
//	    GetFn: func(id uuid.UUID) (task.Task, error) {
//	        return task.Task{}, service.ErrTaskNotFound
//	    },
//	}
//
// When adding a new mock to this package:
//  1. Create a new file named after the interface being mocked
//  2. Implement the mock struct with function fields for each interface method
//  3. Add a compile-time assertion that the mock satisfies the interface
package mocks
