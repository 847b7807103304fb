// Package cli implements the gophauth command-line client: one command per
// invocation (signup, login, me), with interactive prompts for credentials.
package cli
