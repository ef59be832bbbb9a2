// Package middleware provides HTTP middleware for the authoring console.
//
// It includes:
//   - Request logging in W3C Extended Log Format
//   - Prometheus request metrics
//   - Bearer-token auth for the console API
//   - Response compression (gzip) for JSON payloads
package middleware
