// Package access decides whether a request may proceed to a page, given the
// resolved session (or just the presence of a cookie at the edge).
package access

import (
	"errors"
	"slices"
	"strings"

	"github.com/aussiebroadwan/rodneyauth/internal/auth/domain"
)

var ErrNotAuthorized = errors.New("not authorized")

// Decision is either Allow or a redirect to Location.
type Decision struct {
	Allow    bool
	Location string
}

func allow() Decision                   { return Decision{Allow: true} }
func redirect(location string) Decision { return Decision{Location: location} }
func (d Decision) IsRedirect() bool     { return !d.Allow && d.Location != "" }

// Policy describes the site's routing rules.
type Policy struct {
	// EntryPoint is where signed-out visitors are sent.
	EntryPoint string

	// Landing is where signed-in visitors are sent.
	Landing string

	// GuestOnly paths (exact match) bounce signed-in visitors to Landing.
	// EntryPoint is always guest-only.
	GuestOnly []string

	// Protected path prefixes need a session.
	Protected []string

	// Roles maps a path prefix to the roles allowed under it. The longest
	// matching prefix wins.
	Roles map[string][]domain.Role
}

// DefaultPolicy is the site layout: sign-in at /, the dashboard for everyone
// signed in, /admin for administrators.
func DefaultPolicy() Policy {
	return Policy{
		EntryPoint: "/",
		Landing:    "/dashboard",
		GuestOnly:  []string{"/authenticator"},
		Protected:  []string{"/dashboard", "/admin"},
		Roles: map[string][]domain.Role{
			"/admin": {domain.RoleAdmin},
		},
	}
}

// Decide applies the full, role-aware policy.
func (p Policy) Decide(user *domain.SessionUser, path string) Decision {
	if user != nil && p.guestOnly(path) {
		return redirect(p.Landing)
	}
	if p.protected(path) && user == nil {
		return redirect(p.EntryPoint)
	}
	if roles, ok := p.rolesFor(path); ok {
		if user == nil {
			return redirect(p.EntryPoint)
		}
		if !slices.Contains(roles, user.Role) {
			return redirect(p.Landing)
		}
	}
	return allow()
}

// DecideEdge is the cheap check run before any store lookup. It only knows
// whether a session cookie is present, so it can't enforce roles; pages
// still run Decide.
func (p Policy) DecideEdge(hasCookie bool, path string) Decision {
	if hasCookie && path == p.EntryPoint {
		return redirect(p.Landing)
	}
	if !hasCookie && p.protected(path) {
		return redirect(p.EntryPoint)
	}
	return allow()
}

// Matches reports whether the edge check applies to path at all: the
// protected prefixes and exactly the entry point.
func (p Policy) Matches(path string) bool {
	return path == p.EntryPoint || p.protected(path)
}

func (p Policy) guestOnly(path string) bool {
	return path == p.EntryPoint || slices.Contains(p.GuestOnly, path)
}

func (p Policy) protected(path string) bool {
	for _, prefix := range p.Protected {
		if underPrefix(path, prefix) {
			return true
		}
	}
	return false
}

func (p Policy) rolesFor(path string) ([]domain.Role, bool) {
	best := ""
	for prefix := range p.Roles {
		if underPrefix(path, prefix) && len(prefix) > len(best) {
			best = prefix
		}
	}
	if best == "" {
		return nil, false
	}
	return p.Roles[best], true
}

// underPrefix matches "/admin" and "/admin/users" but not "/administrator".
func underPrefix(path, prefix string) bool {
	if prefix == "/" {
		return strings.HasPrefix(path, "/")
	}
	return path == prefix || strings.HasPrefix(path, prefix+"/")
}

// RequireRole fails with ErrNotAuthorized unless user holds one of roles.
func RequireRole(user *domain.SessionUser, roles ...domain.Role) error {
	if user == nil || !slices.Contains(roles, user.Role) {
		return ErrNotAuthorized
	}
	return nil
}
