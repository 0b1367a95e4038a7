// Package bootstrap wires a binary's lifecycle around a typed config:
// components start in order, configure callbacks build the business layer,
// and shutdown runs stop hooks then stops components in reverse.
package bootstrap
