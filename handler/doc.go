// Package handler turns typed handler functions into http.HandlerFunc.
//
// A HandlerFunc receives a Context and a request value filled by binders,
// and returns a Response:
//
//	func (s *Service) create(ctx handler.Context, in idea.Input) handler.Response {
//		created, err := s.ideas.Create(ctx, ownerID, in)
//		if err != nil {
//			return handler.Error(err)
//		}
//		return handler.JSON(created)
//	}
//
//	r.Post("/", handler.Wrap(s.create,
//		handler.WithBinder[idea.Input](binder.BindJSON(binder.WithAnyMediaType())),
//		handler.WithErrorHandler[idea.Input](errorHandler),
//	))
//
// Binding and rendering failures, and responses built with Error, go to
// the ErrorHandler. NewErrorHandler logs them and writes {"error": message}
// with the status carried by HTTPError, or 500.
package handler
