// Package migrations expone los scripts SQL del esquema para aplicarlos al arrancar.
package migrations

import "embed"

// FS contiene los archivos NNN_*.sql en orden lexicográfico.
//
//go:embed *.sql
var FS embed.FS
