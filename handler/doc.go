// Package handler provides type-safe HTTP handlers.
//
// A HandlerFunc receives a Context and a request struct already bound by the
// configured binders, and returns a Response:
//
//	type VerifyRequest struct {
//		Code string `json:"code" form:"code"`
//	}
//
//	func verify(ctx handler.Context, req VerifyRequest) handler.Response {
//		res, err := svc.Verify(ctx, studioID, userID, req.Code)
//		if err != nil {
//			return handler.JSONError(err)
//		}
//		return handler.JSON(res)
//	}
//
//	r.Post("/verify", handler.Wrap(verify,
//		handler.WithBinders[handler.Context, VerifyRequest](binder.JSON(), binder.Form()),
//	))
//
// # Responses
//
// JSON and JSONError use a {data, meta, error} envelope. HTTPError and
// ValidationError pick the status code; other errors render as an opaque 500.
// Templ renders a templ component as HTML, or as a DataStar element patch when
// IsDataStar reports the request came from the DataStar client. Empty writes
// a bare status.
//
// # Errors
//
// Binding failures reach the ErrorHandler joined with ErrBadRequest. The
// handler built by NewErrorHandler logs at warn for 4xx and error for 5xx.
package handler
