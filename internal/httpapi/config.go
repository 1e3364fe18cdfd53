package httpapi

import (
	"github.com/raysh454/design-review/internal/checks"
	"github.com/raysh454/design-review/internal/interfaces"
	"github.com/raysh454/design-review/internal/review"
	"github.com/raysh454/design-review/internal/sessionindex"
	"github.com/raysh454/design-review/internal/session"
	"github.com/raysh454/design-review/internal/specloader"
)

// Config wires a Server's dependencies, mirroring the teacher's
// server.Config (ListenAddr + app-level config + optional Logger).
type Config struct {
	ListenAddr string

	Orchestrator *review.Orchestrator
	Loader       *specloader.Loader
	Registry     *checks.Registry
	Store        *session.Store
	Index        *sessionindex.Index

	Logger interfaces.Logger
}
