package server

import (
	"context"
	"sync"
)

type navigationKey struct{}

// navigation tracks where the current request is and any navigation the
// session forced while the handler ran
type navigation struct {
	location string

	mu     sync.Mutex
	forced string
}

func withNavigation(ctx context.Context, location string) context.Context {
	return context.WithValue(ctx, navigationKey{}, &navigation{location: location})
}

func navigationFrom(ctx context.Context) *navigation {
	nav, _ := ctx.Value(navigationKey{}).(*navigation)
	return nav
}

// forcedNavigation returns the location the session sent the visitor to
func forcedNavigation(ctx context.Context) (string, bool) {
	nav := navigationFrom(ctx)
	if nav == nil {
		return "", false
	}
	nav.mu.Lock()
	defer nav.mu.Unlock()
	return nav.forced, nav.forced != ""
}

// requestNavigator answers the session's navigation questions from the
// request context. Navigations outside a request are dropped.
type requestNavigator struct{}

func (requestNavigator) Location(ctx context.Context) string {
	if nav := navigationFrom(ctx); nav != nil {
		return nav.location
	}
	return ""
}

func (requestNavigator) Navigate(ctx context.Context, path string) {
	nav := navigationFrom(ctx)
	if nav == nil {
		return
	}
	nav.mu.Lock()
	nav.forced = path
	nav.mu.Unlock()
}
