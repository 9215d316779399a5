// Package llm wraps the external generative-language service behind a
// one-method client so it can be swapped for a stub in tests.
package llm
