// Package view holds the view models of the client. A view loads its data
// through the query cache, dispatches mutations through the resource
// modules and renders itself as text. Each view owns a context that Close
// cancels, so requests outliving the view never write into it.
package view

import (
	"context"
	"sync"

	"github.com/tphakala/faunagram-go/internal/imagesearch"
	"github.com/tphakala/faunagram-go/internal/logger"
	"github.com/tphakala/faunagram-go/internal/model"
	"github.com/tphakala/faunagram-go/internal/navigation"
	"github.com/tphakala/faunagram-go/internal/query"
	"github.com/tphakala/faunagram-go/internal/resources"
	"github.com/tphakala/faunagram-go/internal/session"
)

// Deps are the collaborators shared by all views
type Deps struct {
	Session   *session.Store
	Cache     *query.Client
	API       *resources.Resources
	Navigator navigation.Navigator
	Images    *imagesearch.Searcher // optional
	Logger    logger.Logger
}

func (d Deps) log(name string) logger.Logger {
	if d.Logger != nil {
		return d.Logger.Module(name)
	}
	return logger.Global().Module("view").Module(name)
}

func (d Deps) navigate(to navigation.Route) {
	if d.Navigator != nil {
		d.Navigator.Navigate(to)
	}
}

func (d Deps) currentUser() *model.User {
	if d.Session == nil {
		return nil
	}
	return d.Session.User()
}

// lifecycle binds a view to a cancellable context and the watches it holds
type lifecycle struct {
	mu     sync.Mutex
	ctx    context.Context
	cancel context.CancelFunc
	subs   []*query.Subscription
}

func (l *lifecycle) start(parent context.Context) context.Context {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.cancel != nil {
		l.cancel()
	}
	l.ctx, l.cancel = context.WithCancel(parent)
	return l.ctx
}

// context returns the view context. Actions on a view that was never
// mounted run unbound.
func (l *lifecycle) context() context.Context {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.ctx == nil {
		return context.Background()
	}
	return l.ctx
}

func (l *lifecycle) track(sub *query.Subscription) {
	if sub == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.subs = append(l.subs, sub)
}

func (l *lifecycle) alive() bool {
	return l.context().Err() == nil
}

// Close cancels in-flight requests and ends every watch
func (l *lifecycle) Close() {
	l.mu.Lock()
	subs := l.subs
	l.subs = nil
	if l.cancel == nil {
		l.ctx, l.cancel = context.WithCancel(context.Background())
	}
	l.cancel()
	l.mu.Unlock()

	for _, sub := range subs {
		sub.Close()
	}
}
