// Package openai streams completions from the OpenAI API.
//
// The model identifier decides the request shape once per call: models in the
// reasoning family ("gpt-5" in the name) go to /responses with a minimal
// reasoning effort and the flex service tier, and are retried once without
// the tier when the first attempt is rate limited. Every other model goes to
// /chat/completions. Both shapes end at the "[DONE]" sentinel.
package openai
