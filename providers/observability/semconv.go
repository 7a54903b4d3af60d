package observability

// Attribute keys, span names, event names and metric names shared by every
// component. Use these instead of string literals so log output stays greppable.

// --- LLM provider attributes ---

const (
	// AttrLLMProvider is the provider name ("openai" or "gemini").
	AttrLLMProvider = "llm.provider"

	// AttrLLMModel is the model identifier sent to the provider.
	AttrLLMModel = "llm.model"

	// AttrLLMEndpointType is "responses", "chat_completions" or "stream_generate_content".
	AttrLLMEndpointType = "llm.endpoint.type"

	// AttrLLMModelFamily is the OpenAI model family ("reasoning" or "standard").
	AttrLLMModelFamily = "llm.model.family"

	AttrLLMDeltaCount = "llm.delta.count"
	AttrLLMDeltaChars = "llm.delta.chars"

	// AttrLLMRetryReason explains why a stream request was sent a second time.
	AttrLLMRetryReason = "llm.retry.reason"

	// AttrSSEPayload is a (truncated) raw event payload, logged at trace level.
	AttrSSEPayload = "sse.payload"
)

// --- Summary attributes ---

const (
	AttrSessionID = "summary.session_id"

	// AttrSummaryLength is the requested length preset ("short", "medium", "long").
	AttrSummaryLength = "summary.length"

	// AttrSummaryState is the orchestrator state a failure happened in.
	AttrSummaryState = "summary.state"

	AttrSummaryChars = "summary.chars"

	AttrPageURL       = "page.url"
	AttrPageTitle     = "page.title"
	AttrPageTextChars = "page.text.chars"

	// AttrPageSource tells whether page text came from the selection, the DOM or the markdown fallback.
	AttrPageSource = "page.source"
)

// --- HTTP attributes ---

const (
	AttrHTTPMethod = "http.method"

	AttrHTTPStatusCode = "http.status_code"

	// AttrHTTPURL is the request URL with credentials redacted.
	AttrHTTPURL = "http.url"

	// AttrHTTPRequestBodySize is the request body size in bytes.
	AttrHTTPRequestBodySize = "http.request.body.size"

	// AttrHTTPDuration is the time until response headers arrived.
	AttrHTTPDuration = "http.duration"

	AttrHTTPRoute = "http.route"
)

// --- General attributes ---

const (
	AttrError = "error"

	// AttrErrorType classifies failures: "input", "provider_http", "provider_stream" or "internal".
	AttrErrorType = "error.type"

	AttrDuration = "duration"

	AttrStatus = "status"

	AttrStatusDescription = "status_description"
)

// --- Span names ---

const (
	// SpanSummarize covers one whole summarization, from extraction to the terminal snapshot.
	SpanSummarize = "summary.summarize"

	// SpanProviderStream covers one provider request including its optional retry.
	SpanProviderStream = "llm.stream"

	SpanPageExtract = "page.extract"

	SpanSessionEviction = "session.eviction"
)

// --- Event names ---

const (
	EventHTTPStreamPrepared = "http.stream.prepared"
	EventHTTPStreamStarted  = "http.stream.started"
	EventHTTPStreamError    = "http.stream.error"

	// EventStreamRetry marks the single rate-limit retry of the OpenAI reasoning family.
	EventStreamRetry = "llm.stream.retry"

	// EventStreamDone marks the provider's end-of-stream sentinel.
	EventStreamDone = "llm.stream.done"

	// EventStreamNoise marks an event payload that was skipped because it was not valid JSON.
	EventStreamNoise = "llm.stream.noise"

	EventSessionOpened    = "summary.session.opened"
	EventSessionPersisted = "summary.session.persisted"
	EventSessionFailed    = "summary.session.failed"
)

// --- Metric names ---

const (
	MetricSummariesStarted   = "summaries.started"
	MetricSummariesCompleted = "summaries.completed"
	MetricSummariesFailed    = "summaries.failed"

	// MetricSummaryDeltas counts text deltas forwarded to subscribers.
	MetricSummaryDeltas = "summary.deltas"

	// MetricSummaryDuration is a histogram of whole-summarization durations in milliseconds.
	MetricSummaryDuration = "summary.duration"

	MetricSessionsEvicted = "sessions.evicted"
)
