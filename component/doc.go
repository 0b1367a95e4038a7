// Package component defines the lifecycle contract shared by long-lived
// infrastructure and a registry that starts and stops it in order.
package component
