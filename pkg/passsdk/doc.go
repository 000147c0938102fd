// Package passsdk holds the wire types of the vaultbox HTTP API and a thin
// Go client for it. The server handlers and the client bindings share these
// types so the two sides cannot drift apart.
package passsdk
