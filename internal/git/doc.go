// Package git resolves the commit a project tree is checked out at, so build
// runs can be stamped with the source revision they compiled.
package git
