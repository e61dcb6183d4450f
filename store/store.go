// Package store provides client.CredentialStore implementations.
package store

import "strings"

// visible reports whether a value written under path can be read from scope,
// following cookie path matching.
func visible(path, scope string) bool {
	if path == "" || path == "/" {
		return true
	}
	if !strings.HasPrefix(scope, path) {
		return false
	}
	return len(scope) == len(path) || strings.HasSuffix(path, "/") || scope[len(path)] == '/'
}

func pathOrRoot(path string) string {
	if path == "" {
		return "/"
	}
	return path
}
