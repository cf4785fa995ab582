// Package guard decides whether a navigation target may be rendered for the
// current session.
package guard

import (
	"slices"

	"github.com/dmitrijs2005/loandesk/internal/client/models"
	"github.com/dmitrijs2005/loandesk/internal/client/session"
)

// Verdict is the outcome of a guard check.
type Verdict int

const (
	Render Verdict = iota
	RedirectToLogin
	RedirectToHome
)

func (v Verdict) String() string {
	switch v {
	case Render:
		return "render"
	case RedirectToLogin:
		return "redirect-login"
	case RedirectToHome:
		return "redirect-home"
	}
	return "unknown"
}

// Decision carries the verdict and, for RedirectToLogin, the location to
// return to once the user has logged in.
type Decision struct {
	Verdict Verdict
	From    string
}

// Evaluate applies the rules in order, first match wins:
//  1. not authenticated: RedirectToLogin, remembering location;
//  2. allowed is non-empty and the role is not in it: RedirectToHome;
//  3. otherwise Render.
//
// An empty allowed list admits any authenticated role.
func Evaluate(s session.Session, allowed []models.Role, location string) Decision {
	if !s.IsAuthenticated {
		return Decision{Verdict: RedirectToLogin, From: location}
	}
	if len(allowed) > 0 {
		role, _ := s.Role()
		if !slices.Contains(allowed, role) {
			return Decision{Verdict: RedirectToHome}
		}
	}
	return Decision{Verdict: Render}
}

// SessionReader is the part of the session store the guard reads.
type SessionReader interface {
	Get() session.Session
}

// Guard evaluates routes of a Router against live session state.
type Guard struct {
	sessions SessionReader
	router   *Router
}

func New(sessions SessionReader, router *Router) *Guard {
	return &Guard{sessions: sessions, router: router}
}

// Check resolves location and evaluates it. Public routes always render.
// ok is false when no route matches.
func (g *Guard) Check(location string) (match Match, d Decision, ok bool) {
	match, ok = g.router.Resolve(location)
	if !ok {
		return Match{}, Decision{}, false
	}
	if match.Route.Public {
		return match, Decision{Verdict: Render}, true
	}
	return match, Evaluate(g.sessions.Get(), match.Route.AllowedRoles, location), true
}
