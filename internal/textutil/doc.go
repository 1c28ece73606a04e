// Package textutil derives filesystem-safe names from captions and page
// titles.
package textutil
