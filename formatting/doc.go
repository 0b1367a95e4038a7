// Package formatting turns raw dictation into polished text through a
// language model, optionally steered by a caller template containing
// {{transcript}}.
package formatting
