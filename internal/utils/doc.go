// Package utils provides the low-level streaming plumbing shared by the
// provider adapters: SSE framing over partial buffers ([ParseSSE]), a
// decoding stream reader on top of it ([SSEReader]), the streaming POST helper
// ([DoPostStream]) and small string and timing helpers.
package utils
