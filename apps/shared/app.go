// Package shared wires the domain services on top of the configured storage and notifiers.
package shared

import (
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/ecole/core"
	"github.com/trezcool/ecole/core/attendance"
	"github.com/trezcool/ecole/core/discipline"
	"github.com/trezcool/ecole/core/payment"
	"github.com/trezcool/ecole/core/risk"
	"github.com/trezcool/ecole/core/standing"
	"github.com/trezcool/ecole/core/student"
	appfs "github.com/trezcool/ecole/fs"
	emailsvc "github.com/trezcool/ecole/services/email"
	notifysvc "github.com/trezcool/ecole/services/notify"
	"github.com/trezcool/ecole/storage/cache/redis"
	"github.com/trezcool/ecole/storage/database"
	"github.com/trezcool/ecole/storage/database/inmem"
	"github.com/trezcool/ecole/storage/database/sqlx"
)

const (
	EngineMemory   = "memory"
	EnginePostgres = "postgres"
)

type (
	Repositories struct {
		Students   student.Repository
		Payments   payment.Repository
		Attendance attendance.Repository
		Discipline discipline.Repository
	}

	App struct {
		Conf   *core.Config
		Logger core.Logger
		DB     *sqlx.DB // nil with the memory engine
		Repos  Repositories

		Students   student.Service
		Ledger     payment.Ledger
		Attendance attendance.Service
		Discipline discipline.Service
		Engine     standing.Engine
		Risk       risk.Scorer

		cache *rediscache.Cache
	}
)

// OpenRepositories opens the storage selected by conf.Database.Engine.
// With postgres, the database is created and migrated up when migrate is set.
func OpenRepositories(conf *core.Config, migrate bool) (Repositories, *sqlx.DB, error) {
	switch conf.Database.Engine {
	case EngineMemory:
		db, err := inmemdb.Open()
		if err != nil {
			return Repositories{}, nil, errors.Wrap(err, "opening in-memory database")
		}
		return Repositories{
			Students:   inmemdb.NewStudentRepository(db),
			Payments:   inmemdb.NewPaymentRepository(db),
			Attendance: inmemdb.NewAttendanceRepository(db),
			Discipline: inmemdb.NewDisciplineRepository(db),
		}, nil, nil

	case EnginePostgres:
		if migrate {
			if err := database.CreateIfNotExist(conf); err != nil {
				return Repositories{}, nil, errors.Wrap(err, "creating database")
			}
		}
		db, err := database.Open(conf)
		if err != nil {
			return Repositories{}, nil, err
		}
		if migrate {
			if err = database.Migrate(db.DB, "up"); err != nil {
				_ = db.Close()
				return Repositories{}, nil, err
			}
		}
		return Repositories{
			Students:   sqlxrepos.NewStudentRepository(db),
			Payments:   sqlxrepos.NewPaymentRepository(db),
			Attendance: sqlxrepos.NewAttendanceRepository(db),
			Discipline: sqlxrepos.NewDisciplineRepository(db),
		}, db, nil

	default:
		return Repositories{}, nil, errors.Errorf("unknown database engine %q", conf.Database.Engine)
	}
}

// NewMailer returns the console mailer in debug mode, sendgrid otherwise.
func NewMailer(conf *core.Config, logger core.Logger) core.EmailService {
	if conf.Debug || conf.SendgridApiKey == "" {
		return emailsvc.NewConsoleService(conf, logger)
	}
	return emailsvc.NewSendgridService(conf, logger)
}

// NewApp opens the storage and builds every service on top of it.
func NewApp(conf *core.Config, logger core.Logger, migrate bool) (*App, error) {
	repos, db, err := OpenRepositories(conf, migrate)
	if err != nil {
		return nil, err
	}

	cache, err := rediscache.New(conf.Redis)
	if err != nil {
		// the risk reports are computed on the fly without a cache
		logger.Warn(fmt.Sprintf("risk report cache disabled: %v", err))
		cache = nil
	}

	core.ParseEmailTemplates(appfs.FS, "templates/email", conf.Debug, logger)
	notifier := notifysvc.NewMailNotifier(conf, NewMailer(conf, logger))

	app, err := Build(conf, logger, repos, notifier, cache)
	if err != nil {
		if db != nil {
			_ = db.Close()
		}
		return nil, err
	}
	app.DB = db
	return app, nil
}

// Build wires the services on the given repositories. cache may be nil.
func Build(conf *core.Config, logger core.Logger, repos Repositories, notifier core.Notifier, cache *rediscache.Cache) (*App, error) {
	app := &App{Conf: conf, Logger: logger, Repos: repos, cache: cache}

	standingPolicy := standing.PolicyFromConfig(conf.Standing)
	app.Students = student.NewService(repos.Students)
	app.Discipline = discipline.NewService(repos.Discipline, repos.Students)

	engine, err := standing.NewEngine(standing.Deps{
		Students:   repos.Students,
		Payments:   repos.Payments,
		Discipline: app.Discipline,
		Notifier:   notifier,
		Logger:     logger,
	}, standingPolicy)
	if err != nil {
		return nil, err
	}
	app.Engine = engine
	app.Ledger = payment.NewLedger(repos.Payments, repos.Students, engine, logger)
	app.Attendance = attendance.NewService(repos.Attendance, repos.Students, repos.Payments, attendance.PolicyFromConfig(conf.Standing))

	var reportCache risk.ReportCache
	if cache != nil {
		reportCache = cache
	}
	app.Risk = risk.NewScorer(
		repos.Students,
		repos.Payments,
		repos.Attendance,
		standingPolicy,
		risk.ThresholdsFromConfig(conf.Risk),
		reportCache,
		logger,
	)
	return app, nil
}

func (app *App) Close() error {
	if app.cache != nil {
		_ = app.cache.Close()
	}
	if app.DB != nil {
		return app.DB.Close()
	}
	return nil
}
