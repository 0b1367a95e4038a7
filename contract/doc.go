// Package contract holds the JSON and multipart shapes shared by the HTTP
// API and its client.
package contract
