// Package model defines the chat-completion contract between the
// orchestrator and a language model provider, plus the OpenAI-backed
// streaming implementation.
package model
