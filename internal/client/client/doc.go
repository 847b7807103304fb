// Package client is the gRPC client of the gophauth AuthService. It keeps
// the access token returned by Login and attaches it to later calls.
package client
