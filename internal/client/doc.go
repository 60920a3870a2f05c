// Package client implements the client application runtime.
//
// It wires the local store, the remote gateway, and the background
// synchronization workers into a single process lifecycle.
package client
