// Package client provides the `folio` command-line commands.
//
// Book commands open the data directory directly, so they must not run
// against a directory held by a running server on a locking engine
// (diskv, pebble, bolt). Use `folio watch` against the server instead.
//
// # Address configuration
//
// The HTTP base URL for watch is discovered via a BaseURLFunc. The
// standalone binary reads FOLIO_HTTP and defaults to http://127.0.0.1:7080.
//
// Usage
//
//	folio put theme '{"dark":true}'
//	folio get theme
//	folio get missing --default '{}'
//	folio keys --book orders
//	folio exists theme
//	folio path theme
//	folio rm theme other
//	folio destroy --book orders --confirm
//
//	# follow one key, or every change that matches a CEL filter
//	folio watch theme
//	folio watch --filter 'key.startsWith("user/")' --limit 10
//
// Global flags --config, --data-dir, --engine and --book override the
// config file and FOLIO_* variables.
package client
