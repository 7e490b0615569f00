// Package api hosts the HTTP surface of the bot: the Telegram webhook,
// status endpoints and Prometheus metrics.
package api
