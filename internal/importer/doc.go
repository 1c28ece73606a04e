// Package importer implements the record-import pipeline shared by the book,
// article, and person workflows: validate, resolve references with
// lookup-or-create, write the record, back-link referenced entities, and append
// an audit line.
//
// Workflows only describe records (Prepare builds a Plan); Runner owns the
// per-record state machine and the fail-fast versus best-effort policy.
package importer
