// Package sqlitekb implements kb.Store on a local SQLite database so imports
// can be rehearsed offline. Identifiers follow the remote Q-number scheme.
package sqlitekb
