// Package gemini streams completions from Google's Gemini API through the
// streamGenerateContent endpoint with alt=sse.
//
// Each SSE event carries the text produced since the previous event; the
// text parts of the first candidate are concatenated and forwarded as one
// delta. Gemini has no end sentinel: the stream ends when the server closes
// the connection, and stray "[DONE]" or empty payloads are ignored.
package gemini
