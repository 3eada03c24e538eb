// Package fileutil walks test vector directories and checks output paths.
//
// # Scanning
//
// ScanDirectory walks a tree depth-first in lexical order (the order
// filepath.WalkDir yields) and returns every regular file whose name ends in
// one of the configured extensions:
//
//	result, err := fileutil.ScanDirectory("/data/vectors", fileutil.ScanOptions{
//	    Extensions:  []string{".fil"},
//	    Recursive:   true,
//	    ExcludeDirs: []string{"tmp"},
//	})
//
// Extension matching is case-insensitive and suffix based, so multi-part
// extensions such as ".fil.gz" work. When several extensions match, the
// longest wins. Each Match carries the extension that matched so callers can
// strip it from the name.
//
// Hidden directories are walked like any other. Only names listed in
// ExcludeDirs are skipped; the scanner adds ".tvscan" there itself.
//
// # Error tolerance
//
// Only a missing or non-directory root is fatal. Unreadable subdirectories
// and entries are collected in ScanResult.Errors and the walk continues.
//
// # Writability
//
// IsWritablePath is the default precondition for the manifest path: the path
// itself must be writable if it exists, otherwise its parent directory must
// exist and be writable.
package fileutil
