// Package config loads runtime configuration for the gophauth CLI client.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file selected via -c or -config.
//  3. Environment variables prefixed with GOPHAUTH_CLIENT_.
//  4. Command-line flags, which override earlier values.
//
// Supported flags
//
//	-a string     address:port of the gRPC endpoint
//	-r duration   per-request timeout
//	-t string     access token used by the "me" command
//
// Environment
//
//	GOPHAUTH_CLIENT_SERVER_ADDR, GOPHAUTH_CLIENT_TIMEOUT, GOPHAUTH_CLIENT_TOKEN
//
// # JSON schema
//
//	{
//	  "server_endpoint_addr": "127.0.0.1:50051",
//	  "request_timeout": "10s",
//	  "access_token": "eyJ..."
//	}
//
// Arguments left after flag parsing are returned to the caller as the
// command line (for example "login").
package config
