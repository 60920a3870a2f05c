// Package config provides configuration loading, merging, and validation
// facilities for questlog.
//
// Configuration is assembled from multiple sources in the following
// priority order (later sources fill fields the earlier ones left zero):
//  1. Environment variables
//  2. Command-line flags
//  3. JSON config file
//
// The main entry points are [GetStructuredConfig] for the server and
// [GetClientConfig] for the client sync engine.
package config
