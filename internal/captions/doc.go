// Package captions runs wiki pages in a category through the completion API.
//
// Rewriter sends each page's wikitext with a fixed instruction and saves the
// reply when it differs from the original. Extractor asks for a JSON object
// instead and writes one file per page, keeping unparseable replies under a
// raw_response key. Both process pages strictly one at a time; a failure on
// one page is recorded and the run moves on.
package captions
