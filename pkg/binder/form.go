package binder

import (
	"errors"
	"net/http"
)

// Form binds an application/x-www-form-urlencoded body into v using `form`
// struct tags. Fields without a tag bind to their lowercased name, `form:"-"`
// skips the field.
//
//	type ConfirmRequest struct {
//		Code string `form:"code" json:"code"`
//	}
//
// Requests with another content type yield ErrBinderNotApplicable.
func Form() func(r *http.Request, v any) error {
	return func(r *http.Request, v any) error {
		if mediaType(r) != "application/x-www-form-urlencoded" {
			return ErrBinderNotApplicable
		}
		if err := r.ParseForm(); err != nil {
			return errors.Join(ErrFailedToParseForm, err)
		}
		if err := bindToStruct(v, "form", r.PostForm, ErrFailedToParseForm); err != nil {
			return err
		}
		sanitizeStrings(v)
		return nil
	}
}
