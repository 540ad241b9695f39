package handler

import (
	"encoding/json"
	"net/http"
)

type jsonResponse struct {
	status int
	body   any
}

func (j jsonResponse) Render(w http.ResponseWriter, r *http.Request) error {
	data, err := json.Marshal(j.body)
	if err != nil {
		return err
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(j.status)
	_, err = w.Write(append(data, '\n'))
	return err
}

// JSONOption configures JSON response
type JSONOption func(*jsonResponse)

// WithJSONStatus sets custom HTTP status code
func WithJSONStatus(status int) JSONOption {
	return func(r *jsonResponse) {
		r.status = status
	}
}

// JSON encodes v as the whole response body, 200 by default.
func JSON(v any, opts ...JSONOption) Response {
	r := &jsonResponse{status: http.StatusOK, body: v}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

type errorResponse struct {
	err error
}

func (e errorResponse) Render(http.ResponseWriter, *http.Request) error {
	return e.err
}

// Error defers to the ErrorHandler. Use HTTPError to choose the status
// and message; other errors become 500 with err.Error() as message.
func Error(err error) Response {
	if err == nil {
		err = ErrNilResponse
	}
	return errorResponse{err: err}
}

type redirectResponse struct {
	url    string
	status int
}

func (rr redirectResponse) Render(w http.ResponseWriter, r *http.Request) error {
	http.Redirect(w, r, rr.url, rr.status)
	return nil
}

// Redirect responds with 303 See Other.
func Redirect(url string) Response {
	return redirectResponse{url: url, status: http.StatusSeeOther}
}

type cookieResponse struct {
	next    Response
	cookies []*http.Cookie
}

func (c cookieResponse) Render(w http.ResponseWriter, r *http.Request) error {
	for _, cookie := range c.cookies {
		http.SetCookie(w, cookie)
	}
	return c.next.Render(w, r)
}

// WithCookies sets cookies before rendering resp.
func WithCookies(resp Response, cookies ...*http.Cookie) Response {
	return cookieResponse{next: resp, cookies: cookies}
}
