// Package telegram is a minimal Bot API client: the update model received on
// the webhook, sendMessage with reply and inline keyboards, callback answers
// and webhook management.
package telegram
