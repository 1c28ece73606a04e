// Package quotes searches the library full-text index for passages matching a
// query within each book keyword, and groups hand-edited results into {{q}}
// template sections for a wiki page.
//
// Search results are saved as one JSON file per keyword named
// <query>_<keyword>.txt. After an editor replaces each title with a section
// heading and trims the quotes, Group reads the same files back.
package quotes
