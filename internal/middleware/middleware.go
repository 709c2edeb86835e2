// Package middleware stores global and route-specific middleware: session
// authentication, request logging, CORS, rate limiting, panic recovery,
// tracing, and the global error handler.
package middleware
