package service

import (
	"github.com/totegamma/loandesk/internal/config"
	"github.com/totegamma/loandesk/internal/usecase"
)

// EnvironmentGate allows sync only on a deployment platform running in
// production, so a developer's local credentials are never written to.
type EnvironmentGate struct {
	env config.Environment
}

var _ usecase.Gate = EnvironmentGate{}

func NewEnvironmentGate(env config.Environment) EnvironmentGate {
	return EnvironmentGate{env: env}
}

func (g EnvironmentGate) Enabled() bool {
	return (g.env.Vercel || g.env.Render) && g.env.Production
}

// Environment describes the process as mode/platform, e.g. production/render.
func (g EnvironmentGate) Environment() string {
	mode := "development"
	if g.env.Production {
		mode = "production"
	}

	platform := "local"
	switch {
	case g.env.Vercel && g.env.Render:
		platform = "vercel+render"
	case g.env.Vercel:
		platform = "vercel"
	case g.env.Render:
		platform = "render"
	}
	return mode + "/" + platform
}
