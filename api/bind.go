package api

import (
	"encoding/json"
	stderrors "errors"
	"io"

	"github.com/kbukum/voxboard/errors"
	"github.com/kbukum/voxboard/server/middleware"
)

// bindError turns a JSON decoding failure into a 400. Type mismatches name
// the offending field.
func bindError(err error) error {
	var typeErr *json.UnmarshalTypeError
	var syntaxErr *json.SyntaxError
	switch {
	case middleware.IsBodyTooLarge(err):
		return errors.Validation("request body too large")
	case stderrors.Is(err, io.EOF):
		return errors.Validation("request body is required")
	case stderrors.As(err, &typeErr):
		field := typeErr.Field
		if field == "" {
			field = "body"
		}
		return errors.InvalidInput(field, "must be a "+typeErr.Type.String())
	case stderrors.As(err, &syntaxErr), stderrors.Is(err, io.ErrUnexpectedEOF):
		return errors.Validation("malformed JSON body")
	default:
		return errors.Validation("unreadable request body").WithCause(err)
	}
}
