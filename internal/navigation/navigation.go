// Package navigation records route changes requested by the session and views.
package navigation

import (
	"strconv"
	"sync"
)

// Route is an application location
type Route string

const (
	RouteLogin        Route = "/login"
	RouteSignup       Route = "/signup"
	RouteHome         Route = "/home"
	RouteUsers        Route = "/users"
	RoutePostSighting Route = "/post-sighting"
	RouteAnimals      Route = "/animals"
)

// UserRoute is the profile page of a user
func UserRoute(id int) Route {
	return Route(string(RouteUsers) + "/" + strconv.Itoa(id))
}

// SightingRoute is the detail page of a sighting
func SightingRoute(id int) Route {
	return Route("/sightings/" + strconv.Itoa(id))
}

// AnimalRoute is the detail page of an animal
func AnimalRoute(id int) Route {
	return Route(string(RouteAnimals) + "/" + strconv.Itoa(id))
}

// Navigator changes the current route
type Navigator interface {
	Navigate(to Route)
}

// Listener is notified after every navigation
type Listener func(from, to Route)

// History is a goroutine-safe Navigator that keeps the visited routes.
type History struct {
	mu        sync.RWMutex
	stack     []Route
	listeners []Listener
}

// NewHistory creates a history starting at the given route
func NewHistory(start Route) *History {
	return &History{stack: []Route{start}}
}

// Navigate pushes a route and notifies listeners
func (h *History) Navigate(to Route) {
	h.mu.Lock()
	from := h.currentLocked()
	h.stack = append(h.stack, to)
	listeners := append([]Listener(nil), h.listeners...)
	h.mu.Unlock()

	for _, l := range listeners {
		l(from, to)
	}
}

// OnNavigate registers a listener
func (h *History) OnNavigate(l Listener) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.listeners = append(h.listeners, l)
}

// Current returns the active route
func (h *History) Current() Route {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.currentLocked()
}

func (h *History) currentLocked() Route {
	if len(h.stack) == 0 {
		return ""
	}
	return h.stack[len(h.stack)-1]
}

// Visited returns a copy of all routes in order
func (h *History) Visited() []Route {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return append([]Route(nil), h.stack...)
}
