// Package bot routes Telegram updates to the wallet features. Updates of one
// session are handled one at a time; different sessions run concurrently.
package bot
