package router

import (
	"database/sql"
	"net/http"
	"os"
	"time"

	mem "therapy-practice-manager/internal/adapters/storage/memory"
	pg "therapy-practice-manager/internal/adapters/storage/postgres"
	"therapy-practice-manager/internal/domain/appointments"
	"therapy-practice-manager/internal/domain/calendar"
	"therapy-practice-manager/internal/domain/clients"
	"therapy-practice-manager/internal/domain/documents"
	"therapy-practice-manager/internal/domain/notes"
	"therapy-practice-manager/internal/domain/reconcile"
	"therapy-practice-manager/internal/domain/timeline"
	"therapy-practice-manager/internal/middleware"
	"therapy-practice-manager/internal/ports/auth"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	httpSwagger "github.com/swaggo/http-swagger"
)

type Options struct {
	AuthVerifier auth.AuthVerifier // puede ser nil (modo dev)

	Logger zerolog.Logger

	// Opcional: si viene, usa Postgres. Si no, in-memory.
	DB *sql.DB

	// Swagger monta la UI de documentación en /swagger/*.
	Swagger bool
}

func NewRouter(opts Options) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(requestLogger(opts.Logger))

	r.Use(middleware.AuthContext(opts.AuthVerifier))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	if opts.Swagger {
		r.Get("/swagger/*", httpSwagger.Handler())
	}

	var (
		clientRepo clients.Repository
		apptRepo   appointments.Repository
		noteRepo   notes.Repository
		docRepo    documents.Repository
		calRepo    calendar.Repository
	)

	// Si no te pasan DB explícita, intenta por env (para dev/handoff)
	db := opts.DB
	if db == nil {
		if dsn := os.Getenv("DB_DSN"); dsn != "" {
			opened, err := pg.Open(dsn)
			if err == nil {
				db = opened
			}
		}
	}

	if db != nil {
		clientRepo = pg.NewClientsRepo(db)
		apptRepo = pg.NewAppointmentsRepo(db)
		noteRepo = pg.NewNotesRepo(db)
		docRepo = pg.NewDocumentsRepo(db)
		calRepo = pg.NewCalendarRepo(db)
	} else {
		clientRepo = mem.NewClientRepo()
		apptRepo = mem.NewAppointmentRepo()
		noteRepo = mem.NewNoteRepo()
		docRepo = mem.NewDocumentRepo()
		calRepo = mem.NewCalendarRepo()
	}

	// Services por módulo
	clientsSvc := clients.NewService(clientRepo)
	apptsSvc := appointments.NewService(apptRepo)
	notesSvc := notes.NewService(noteRepo)
	docsSvc := documents.NewService(docRepo)
	calSvc := calendar.NewService(calRepo, apptRepo)
	reconcileSvc := reconcile.NewService(noteRepo, apptRepo)
	timelineSvc := timeline.NewService(clientRepo, apptRepo, noteRepo, docRepo, calRepo)

	// Rutas por módulo
	clients.RegisterRoutes(r, clientsSvc)
	appointments.RegisterRoutes(r, apptsSvc, clientsSvc)
	notes.RegisterRoutes(r, notesSvc, clientsSvc)
	documents.RegisterRoutes(r, docsSvc, notesSvc)
	calendar.RegisterRoutes(r, calSvc)
	reconcile.RegisterRoutes(r, reconcileSvc, clientsSvc, notesSvc)
	timeline.RegisterRoutes(r, timelineSvc, clientsSvc)

	return r
}

func requestLogger(logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			logger.Info().
				Str("request_id", chimw.GetReqID(r.Context())).
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", ww.Status()).
				Dur("latency", time.Since(start)).
				Str("remote_ip", r.RemoteAddr).
				Msg("request")
		})
	}
}
