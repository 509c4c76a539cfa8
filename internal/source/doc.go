// Package source loads HTML documents for auditing.
//
// A target is a file path, a file:// URL, an http(s) URL or "-" for standard
// input. Documents are size-limited, rejected when empty, and decoded to UTF-8
// from the charset declared in the Content-Type header, a byte order mark or a
// <meta> element (golang.org/x/net/html/charset).
//
// Input validation happens here, before the rule engine runs: the engine only
// ever sees a non-empty UTF-8 document.
package source
