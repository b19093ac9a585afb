// Package service exposes the house operations under their wire names.
//
// Service wraps a housestore.Store and a query.Engine, logs each call and
// records it in metrics. Open picks the storage driver: memory, sqlite or
// postgres. With a durable driver the store is hydrated from the journal at
// open and every mutation is written through before it becomes visible.
package service
