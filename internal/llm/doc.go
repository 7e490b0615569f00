// Package llm relays free-form questions from the /ai command to a hosted
// language model. Providers live in subpackages; Assistant turns provider
// failures into a fixed apology so the bot never surfaces raw API errors.
package llm
