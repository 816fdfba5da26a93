// Package api handles incoming HTTP requests, routing, request validation,
// and response formatting for the task administration endpoints. It acts as
// an adapter between HTTP clients and the task service, including a
// websocket stream that mirrors the live task list.
package api
