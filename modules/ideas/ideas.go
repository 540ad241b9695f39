// Package ideas serves the owner-scoped ideas API.
package ideas

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dmitrymomot/ideabox/handler"
	"github.com/dmitrymomot/ideabox/pkg/binder"
	"github.com/dmitrymomot/ideabox/svc/auth"
	"github.com/dmitrymomot/ideabox/svc/idea"
)

// Ideas is implemented by *idea.Service.
type Ideas interface {
	List(ctx context.Context, ownerID string) ([]idea.Idea, error)
	Create(ctx context.Context, ownerID string, in idea.Input) (*idea.Idea, error)
	Delete(ctx context.Context, ownerID, id string) error
}

type Service struct {
	ideas        Ideas
	errorHandler handler.ErrorHandler
}

func NewService(ideas Ideas, errorHandler handler.ErrorHandler) *Service {
	if errorHandler == nil {
		errorHandler = handler.DefaultErrorHandler
	}
	return &Service{ideas: ideas, errorHandler: errorHandler}
}

type deleteRequest struct {
	ID string `query:"id"`
}

// Handle mounts GET, POST and DELETE on the router root and the category
// list on /categories.
func (s *Service) Handle() http.Handler {
	r := chi.NewRouter()
	r.Use(s.requireUser)

	r.Get("/", handler.Wrap(s.list,
		handler.WithErrorHandler[struct{}](s.errorHandler),
	))
	r.Post("/", handler.Wrap(s.create,
		handler.WithBinder[idea.Input](binder.BindJSON(binder.WithAnyMediaType())),
		handler.WithErrorHandler[idea.Input](s.errorHandler),
	))
	r.Get("/categories", handler.Wrap(s.categories,
		handler.WithErrorHandler[struct{}](s.errorHandler),
	))
	r.Delete("/", handler.Wrap(s.delete,
		handler.WithBinder[deleteRequest](binder.BindQuery()),
		handler.WithErrorHandler[deleteRequest](s.errorHandler),
	))

	return r
}

// requireUser rejects anonymous requests before any body is read.
func (s *Service) requireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, err := auth.RequireUser(r.Context()); err != nil {
			s.errorHandler(handler.NewContext(w, r), mapError(err))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Service) list(ctx handler.Context, _ struct{}) handler.Response {
	user, err := auth.RequireUser(ctx)
	if err != nil {
		return handler.Error(mapError(err))
	}

	list, err := s.ideas.List(ctx, user.ID)
	if err != nil {
		return handler.Error(mapError(err))
	}
	return handler.JSON(list)
}

func (s *Service) create(ctx handler.Context, in idea.Input) handler.Response {
	user, err := auth.RequireUser(ctx)
	if err != nil {
		return handler.Error(mapError(err))
	}

	created, err := s.ideas.Create(ctx, user.ID, in)
	if err != nil {
		return handler.Error(mapError(err))
	}
	return handler.JSON(created)
}

func (s *Service) delete(ctx handler.Context, req deleteRequest) handler.Response {
	user, err := auth.RequireUser(ctx)
	if err != nil {
		return handler.Error(mapError(err))
	}

	if err := s.ideas.Delete(ctx, user.ID, req.ID); err != nil {
		return handler.Error(mapError(err))
	}
	return handler.JSON(map[string]bool{"success": true})
}

func mapError(err error) error {
	switch {
	case errors.Is(err, auth.ErrUnauthorized):
		return handler.NewHTTPError(http.StatusUnauthorized, "Unauthorized", err)
	case errors.Is(err, idea.ErrLimitReached):
		return handler.NewHTTPError(http.StatusForbidden, "Idea limit reached. Please upgrade your plan.", err)
	case errors.Is(err, idea.ErrMissingID):
		return handler.NewHTTPError(http.StatusBadRequest, "ID required", err)
	}
	return err
}

func (s *Service) categories(_ handler.Context, _ struct{}) handler.Response {
	return handler.JSON(idea.Categories)
}
