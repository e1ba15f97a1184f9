package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/gorilla/mux"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/linesmerrill/legal-case-api/api"
	"github.com/linesmerrill/legal-case-api/api/scheduler"
	"github.com/linesmerrill/legal-case-api/config"
	"github.com/linesmerrill/legal-case-api/databases"
	"github.com/linesmerrill/legal-case-api/databases/memdb"
	"github.com/linesmerrill/legal-case-api/identity"
	"github.com/linesmerrill/legal-case-api/jobs"
	"github.com/linesmerrill/legal-case-api/lifecycle"
	"github.com/linesmerrill/legal-case-api/notify"
)

const (
	requestTimeout = 30 * time.Second
	maxTraces      = 1000
)

// Stores are the collections the app runs on
type Stores struct {
	Cases         databases.CaseDatabase
	Assignments   databases.LawyerAssignmentDatabase
	Verifications databases.VerificationDatabase
	Scheduling    databases.SchedulingRequestDatabase
	Users         databases.UserDatabase
	Locks         databases.SchedulerLockDatabase
}

// MongoStores builds every store on one mongo database
func MongoStores(db databases.DatabaseHelper) Stores {
	return Stores{
		Cases:         databases.NewCaseDatabase(db),
		Assignments:   databases.NewLawyerAssignmentDatabase(db),
		Verifications: databases.NewVerificationDatabase(db),
		Scheduling:    databases.NewSchedulingRequestDatabase(db),
		Users:         databases.NewUserDatabase(db),
		Locks:         databases.NewSchedulerLockDatabase(db),
	}
}

// MemoryStores builds every store on an in-process memdb
func MemoryStores(store *memdb.Store) Stores {
	return Stores{
		Cases:         store.Cases(),
		Assignments:   store.Assignments(),
		Verifications: store.Verifications(),
		Scheduling:    store.SchedulingRequests(),
		Users:         store.Users(),
		Locks:         store.Locks(),
	}
}

// EnsureIndexes creates the unique indexes the lifecycle relies on
func (s Stores) EnsureIndexes(ctx context.Context) error {
	if err := s.Cases.EnsureIndexes(ctx); err != nil {
		return errors.Wrap(err, "case indexes")
	}
	if err := s.Assignments.EnsureIndexes(ctx); err != nil {
		return errors.Wrap(err, "assignment indexes")
	}
	if err := s.Scheduling.EnsureIndexes(ctx); err != nil {
		return errors.Wrap(err, "scheduling request indexes")
	}
	return nil
}

// App stores the router and its collaborators, so they can be reused
type App struct {
	Router    *mux.Router
	Config    config.Config
	Stores    Stores
	Lifecycle *lifecycle.Orchestrator
	Auth      *api.Authenticator
	Hub       *notify.Hub
	Metrics   *api.MetricsCollector
	Queue     jobs.Queue
	Scheduler *scheduler.Scheduler

	client databases.ClientHelper
	redis  *redis.Client
}

// New creates a new mux router and all the routes
func (a *App) New() *mux.Router {
	r := api.New()
	r.Use(api.MetricsMiddleware(a.Metrics))

	timeout := api.TimeoutMiddleware(requestTimeout)
	guard := func(h http.HandlerFunc) http.Handler {
		return timeout(a.Auth.Middleware(h))
	}

	c := Case{Lifecycle: a.Lifecycle}
	as := Assignment{Lifecycle: a.Lifecycle}
	ct := Court{Lifecycle: a.Lifecycle}
	rc := Reconciliation{Lifecycle: a.Lifecycle}
	m := MetricsHandler{Collector: a.Metrics, Hub: a.Hub}

	// the websocket connection outlives any request timeout
	r.Handle("/ws", a.Auth.Middleware(http.HandlerFunc(a.Hub.ServeWS))).Methods("GET")

	apiCreate := r.PathPrefix("/api/v1").Subrouter()

	apiCreate.Handle("/cases", guard(c.CreateCaseHandler)).Methods("POST")
	apiCreate.Handle("/cases", guard(c.CasesHandler)).Methods("GET")
	apiCreate.Handle("/cases/{case_id}", guard(c.CaseByIDHandler)).Methods("GET")
	apiCreate.Handle("/cases/{case_id}", guard(c.UpdateCaseHandler)).Methods("PUT")
	apiCreate.Handle("/cases/{case_id}", guard(c.DeleteCaseHandler)).Methods("DELETE")
	apiCreate.Handle("/cases/{case_id}/verify", guard(c.VerifyCaseHandler)).Methods("POST")
	apiCreate.Handle("/cases/{case_id}/verifications", guard(c.VerificationsHandler)).Methods("GET")
	apiCreate.Handle("/cases/{case_id}/status", guard(c.UpdateStatusHandler)).Methods("PUT")

	apiCreate.Handle("/cases/{case_id}/assignments", guard(as.CaseAssignmentsHandler)).Methods("GET")
	apiCreate.Handle("/cases/{case_id}/assignments", guard(as.CreateAssignmentHandler)).Methods("POST")
	apiCreate.Handle("/assignments", guard(as.LawyerAssignmentsHandler)).Methods("GET")
	apiCreate.Handle("/assignments/{assignment_id}/respond", guard(as.RespondHandler)).Methods("PUT")
	apiCreate.Handle("/assignments/{assignment_id}/withdraw", guard(as.WithdrawHandler)).Methods("POST")

	apiCreate.Handle("/cases/{case_id}/request-filing", guard(ct.RequestFilingHandler)).Methods("POST")
	apiCreate.Handle("/cases/{case_id}/file", guard(ct.FileCaseHandler)).Methods("POST")
	apiCreate.Handle("/cases/{case_id}/scheduling", guard(ct.RequestSchedulingHandler)).Methods("POST")
	apiCreate.Handle("/cases/{case_id}/hearing", guard(ct.ScheduleHearingHandler)).Methods("POST")
	apiCreate.Handle("/cases/{case_id}/reschedule", guard(ct.RescheduleHearingHandler)).Methods("POST")
	apiCreate.Handle("/cases/{case_id}/documents/request", guard(ct.RequestDocumentsHandler)).Methods("POST")
	apiCreate.Handle("/cases/{case_id}/documents", guard(ct.SubmitDocumentsHandler)).Methods("POST")
	apiCreate.Handle("/cases/{case_id}/adjourn", guard(ct.AdjournHearingHandler)).Methods("POST")
	apiCreate.Handle("/cases/{case_id}/close", guard(ct.CloseCaseHandler)).Methods("POST")

	apiCreate.Handle("/cases/{case_id}/reconcile", guard(rc.ReconcileCaseHandler)).Methods("POST")
	// bulk sweeps bound themselves with api.SweepTimeout
	apiCreate.Handle("/reconcile", a.Auth.Middleware(http.HandlerFunc(rc.ReconcileAllHandler))).Methods("POST")

	apiCreate.Handle("/metrics", guard(m.GetMetricsDashboard)).Methods("GET")
	apiCreate.Handle("/metrics/summary", guard(m.GetMetricsSummary)).Methods("GET")

	return r
}

// Initialize connects storage and the job queue, then builds the orchestrator and router
func (a *App) Initialize() error {
	if a.Config.JWTSecret == "" {
		return errors.New("jwt secret is not set")
	}

	if err := a.openStores(); err != nil {
		return err
	}
	if err := a.openQueue(); err != nil {
		return err
	}

	a.Hub = notify.NewHub()
	resolver := identity.NewRegistry(a.Stores.Users)
	email := notify.NewEmailNotifier(a.Config.SendgridAPIKey, a.Config.EmailFrom, resolver)

	a.Lifecycle = lifecycle.New(lifecycle.Deps{
		Cases:         a.Stores.Cases,
		Assignments:   a.Stores.Assignments,
		Verifications: a.Stores.Verifications,
		Scheduling:    a.Stores.Scheduling,
		Users:         a.Stores.Users,
		Resolver:      resolver,
		Queue:         a.Queue,
		Notifier:      notify.Multi{a.Hub, email},
	}, lifecycle.Options{
		AutoVerifyDelay: a.Config.AutoVerifyDelay,
		AutoAssignDelay: a.Config.AutoAssignDelay,
		ReconcileOnRead: a.Config.ReconcileOnRead,
	})

	a.Scheduler = scheduler.NewScheduler(a.Lifecycle.Reconciler(), a.Stores.Cases, a.Queue, a.Stores.Locks, a.Config.ReconcileCron)
	a.Auth = api.NewAuthenticator(a.Config.JWTSecret)
	a.Metrics = api.NewMetricsCollector(maxTraces)

	// initialize api router
	a.initializeRoutes()
	return nil
}

func (a *App) openStores() error {
	switch a.Config.DBDriver {
	case config.DriverMemory:
		zap.S().Warn("using the in-memory store, nothing will be persisted")
		a.Stores = MemoryStores(memdb.New())
		return nil
	case config.DriverMongo:
	default:
		return errors.Newf("unknown DB_DRIVER %q", a.Config.DBDriver)
	}

	client, err := databases.NewClient(&a.Config)
	if err != nil {
		// if we fail to create a new database client, then kill the pod
		zap.S().With(err).Error("failed to create new client")
		return err
	}
	if err = client.Connect(); err != nil {
		// if we fail to connect to the database, then kill the pod
		zap.S().With(err).Error("failed to connect to database")
		return err
	}
	a.client = client
	a.Stores = MongoStores(databases.NewDatabase(&a.Config, client))
	zap.S().Info("legal-case-api has connected to the database")

	ctx, cancel := api.WithQueryTimeout(context.Background())
	defer cancel()
	return a.Stores.EnsureIndexes(ctx)
}

func (a *App) openQueue() error {
	if a.Config.RedisURL == "" {
		a.Queue = jobs.NewTimerQueue()
		return nil
	}
	opts, err := redis.ParseURL(a.Config.RedisURL)
	if err != nil {
		return errors.Wrap(err, "invalid REDIS_URL")
	}
	a.redis = redis.NewClient(opts)
	ctx, cancel := api.WithQueryTimeout(context.Background())
	defer cancel()
	if err := a.redis.Ping(ctx).Err(); err != nil {
		return errors.Wrap(err, "failed to reach redis")
	}
	a.Queue = jobs.NewRedisQueue(a.redis, jobs.RedisQueueConfig{})
	zap.S().Info("delayed jobs are queued in redis")
	return nil
}

func (a *App) initializeRoutes() {
	a.Router = a.New()
}

// Start runs the job queue and the periodic sweeps until ctx is cancelled
func (a *App) Start(ctx context.Context) error {
	a.Queue.Start(ctx, a.Lifecycle.HandleJob)
	return a.Scheduler.Start()
}

// Shutdown stops background work and closes connections
func (a *App) Shutdown(ctx context.Context) {
	if a.Scheduler != nil {
		a.Scheduler.Stop()
	}
	if a.Queue != nil {
		if err := a.Queue.Close(); err != nil {
			zap.S().Warnw("failed to close job queue", "error", err)
		}
	}
	if a.Metrics != nil {
		a.Metrics.Close()
	}
	if a.redis != nil {
		_ = a.redis.Close()
	}
	if a.client != nil {
		if err := a.client.Disconnect(ctx); err != nil {
			zap.S().Warnw("failed to disconnect from database", "error", err)
		}
	}
}
