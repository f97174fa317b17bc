// Package llm abstracts the text-generation backends used for transaction
// extraction. It exposes a single Generate capability implemented by OpenAI,
// Anthropic, Gemini and a deterministic mock, plus the prompt builder and
// output validator that turn a document into a candidate result.
package llm
