package app

import (
	"github.com/specificocean23/ABie-backend/internal/app/services/challenges"
	communitysvc "github.com/specificocean23/ABie-backend/internal/app/services/community"
	"github.com/specificocean23/ABie-backend/internal/app/services/cravings"
	progresssvc "github.com/specificocean23/ABie-backend/internal/app/services/progress"
	syncsvc "github.com/specificocean23/ABie-backend/internal/app/services/sync"
	"github.com/specificocean23/ABie-backend/internal/app/services/users"
	"github.com/specificocean23/ABie-backend/internal/app/storage"
	"github.com/specificocean23/ABie-backend/internal/app/storage/memory"
	"github.com/specificocean23/ABie-backend/pkg/logger"
)

// Stores encapsulates persistence dependencies. Nil stores default to the
// in-memory implementation.
type Stores struct {
	Users      storage.UserStore
	Progress   storage.ProgressStore
	Cravings   storage.CravingStore
	Challenges storage.ChallengeStore
	Community  storage.CommunityStore
}

// Application ties the resource services together.
type Application struct {
	log *logger.Logger

	Users      *users.Service
	Progress   *progresssvc.Service
	Cravings   *cravings.Service
	Challenges *challenges.Service
	Community  *communitysvc.Service
	Sync       *syncsvc.Service
}

// New builds a fully initialised application with the provided stores.
func New(stores Stores, log *logger.Logger) *Application {
	if log == nil {
		log = logger.NewDefault("app")
	}

	mem := memory.New()
	if stores.Users == nil {
		stores.Users = mem
	}
	if stores.Progress == nil {
		stores.Progress = mem
	}
	if stores.Cravings == nil {
		stores.Cravings = mem
	}
	if stores.Challenges == nil {
		stores.Challenges = mem
	}
	if stores.Community == nil {
		stores.Community = mem
	}

	userSvc := users.New(stores.Users, log)
	progressSvc := progresssvc.New(stores.Progress, log)
	cravingSvc := cravings.New(stores.Cravings, log)
	challengeSvc := challenges.New(stores.Challenges, log)
	communitySvc := communitysvc.New(stores.Community, log)
	syncSvc := syncsvc.New(progressSvc, cravingSvc, challengeSvc, log)

	return &Application{
		log:        log,
		Users:      userSvc,
		Progress:   progressSvc,
		Cravings:   cravingSvc,
		Challenges: challengeSvc,
		Community:  communitySvc,
		Sync:       syncSvc,
	}
}
