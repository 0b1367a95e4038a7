// Package security builds client TLS settings for calls to the dictation
// backend. A private CA can replace the system roots, and a client
// certificate pair enables mutual TLS.
//
//	tlsCfg, err := (&security.TLSConfig{CAFile: "/etc/voxboard/ca.pem"}).Build()
//
// A zero TLSConfig builds to nil, leaving the system roots in place.
package security
