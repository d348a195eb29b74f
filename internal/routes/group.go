package routes

import "net/http"

// Group is a set of routes sharing a URL prefix. Children nest under the
// parent's prefix.
type Group struct {
	Prefix      string
	Description string
	Routes      []Route
	Children    []Group
}

type Route struct {
	Method  string
	Pattern string
	Handler http.HandlerFunc
}
