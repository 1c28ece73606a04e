// Package authorsindex builds the alphabetical listing of author pages shown
// on the works wiki's Authors page, one section per Authors-X category.
package authorsindex
