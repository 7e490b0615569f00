// Package mysql persists users, catalog products and history events in
// MySQL. Opening a Store applies the embedded schema migrations.
package mysql
