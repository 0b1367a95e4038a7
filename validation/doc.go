// Package validation checks request input and reports failures as
// INVALID_INPUT AppErrors with per-field details.
//
// Struct tags (go-playground/validator) cover fixed rules:
//
//	type FormatRequest struct {
//	    Transcript string `json:"transcript" validate:"notblank,max=8000"`
//	}
//	err := validation.ValidateStruct(req)
//
// The fluent Validator covers limits that come from configuration:
//
//	if appErr := validation.New().MaxRunes("promptTemplate", tpl, cfg.MaxTemplateLength).Validate(); appErr != nil {
//	    return appErr
//	}
package validation
