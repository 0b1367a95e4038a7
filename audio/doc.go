// Package audio handles recorded speech: capturing PCM frames into canonical
// 16 kHz mono 16-bit WAV files, validating uploaded WAV headers, and the
// Artifact type that owns a recording until it is released.
package audio
