// Package wikibase implements kb.Store against a Wikibase action API
// (wbsearchentities, wbgetentities, wbeditentity, wbsetsitelink).
//
// Claim edits are computed locally with kb.ApplyEdits and submitted as a
// single wbeditentity diff, so policy semantics match the local stores.
package wikibase
