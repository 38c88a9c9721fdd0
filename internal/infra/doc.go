// Package infra provides shared infrastructure used by the adapters:
// a TTL cache, a token-bucket rate limiter, and an HTTP GET helper.
package infra
