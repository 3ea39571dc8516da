// Package textutil provides filename sanitization shared by the export paths.
package textutil
