// Package binder turns HTTP request bodies into typed request structs for
// handler.Wrap.
//
// Binders are chained: each one either handles the request's content type or
// returns ErrBinderNotApplicable, which the wrapper skips. An endpoint that
// accepts both a JSON API client and a plain HTML form looks like:
//
//	handler.Wrap(confirm, handler.WithBinders[handler.Context, ConfirmRequest](
//		binder.JSON(),
//		binder.Form(),
//	))
//
// String fields are trimmed and stripped of control characters after binding.
package binder
