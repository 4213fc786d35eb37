package policy

import "github.com/kotamart/storefront-backend/internal/session"

type VerdictKind int

const (
	// Loading: show the loading indicator, render nothing else.
	Loading VerdictKind = iota
	// Render: the requested route may be shown.
	Render
	// Redirect: navigate to Target before rendering anything. Gated
	// content must not be produced, not even transiently.
	Redirect
)

type Verdict struct {
	Kind   VerdictKind
	Target string
}

// Evaluate folds Decide and the loading state into the single verdict
// the route guard acts on.
func Evaluate(s session.Session, route string) Verdict {
	if s.Loading || (s.Authenticated() && s.User == nil) {
		return Verdict{Kind: Loading}
	}
	if target, redirect := Decide(s, route); redirect {
		return Verdict{Kind: Redirect, Target: target}
	}
	return Verdict{Kind: Render}
}

func (k VerdictKind) String() string {
	switch k {
	case Loading:
		return "loading"
	case Render:
		return "render"
	case Redirect:
		return "redirect"
	default:
		return "unknown"
	}
}
