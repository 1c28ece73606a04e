// Package kb models knowledge-base entities, claims, and the write policies
// that decide how a new claim interacts with existing ones.
//
// The Store interface is the only surface the import pipeline depends on.
// MemStore backs tests and dry runs; the sqlitekb and wikibase subpackages
// provide local and remote implementations.
package kb
