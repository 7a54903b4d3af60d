// Package summarizer orchestrates one page summarization.
//
// A run moves through extract, prompt build, stream open, streaming and
// persist. The session id is handed to the caller as soon as the session is
// stored, so a surface can subscribe to the [sink.Hub] before the first delta.
// Deltas are appended to the stored session and broadcast in arrival order;
// the run ends with a DONE message, or an ERROR message after a failed stream.
package summarizer
