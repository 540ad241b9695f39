// Package account serves the sign-in, session and sign-out endpoints.
package account

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

type Mountable interface {
	Handle() http.Handler
}

// RouterOptions configures which services to mount in the account module.
// Each service is optional and will only be mounted if provided.
type RouterOptions struct {
	Supabase Mountable
}

// Router creates the account module router.
//
//	r.Mount("/", account.Router(account.RouterOptions{
//		Supabase: account.NewSupabaseService(authCfg, appURL, resolver, secure, errorHandler),
//	}))
func Router(opts RouterOptions) chi.Router {
	r := chi.NewRouter()

	if opts.Supabase != nil {
		r.Mount("/auth", opts.Supabase.Handle())
	}

	return r
}
