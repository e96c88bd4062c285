//
// MYBLOG
// ======
// A small blogging backend: CRUD over articles stored in MongoDB, every
// response wrapped in a {code, message, data} envelope.
//
// Print the route table with `go run . -routes`.
//
// Boot the server:
// ----------------
// $ MYBLOG_CONFIG=config.yml go run .
//
// Client requests:
// ----------------
// $ curl -X POST -d '{"title":"A","author":"B","content":"C"}' http://localhost:3333/articles
// {"code":0,"message":"ok","data":"5f2b6b3c9d1e8a0001a1b2c3"}
//
// $ curl -X GET -d '{"id":"5f2b6b3c9d1e8a0001a1b2c3"}' http://localhost:3333/articles
// {"code":0,"message":"ok","data":[{"_id":"5f2b6b3c9d1e8a0001a1b2c3","title":"A","author":"B","content":"C"}]}
//
// $ curl 'http://localhost:3333/articles?keyword=a'
// {"code":0,"message":"ok","data":[{"_id":"5f2b6b3c9d1e8a0001a1b2c3","title":"A","author":"B","content":"C"}]}
//
// $ curl -X PUT -d '{"title":"A2"}' http://localhost:3333/articles/5f2b6b3c9d1e8a0001a1b2c3
// {"code":0,"message":"ok","data":1}
//
// $ curl -X DELETE http://localhost:3333/articles/oops
// {"code":10001,"message":"Validation error on field: id","data":null}
//
// $ curl -X DELETE http://localhost:3333/articles/5f2b6b3c9d1e8a0001a1b2c3
// {"code":0,"message":"ok","data":1}
//
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/docgen"
	"github.com/go-chi/render"
	"go.opentelemetry.io/otel/metric/global"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/SergeyParamoshkin/myblog/internal/article"
	"github.com/SergeyParamoshkin/myblog/internal/config"
	"github.com/SergeyParamoshkin/myblog/internal/crud"
	"github.com/SergeyParamoshkin/myblog/internal/logger"
	"github.com/SergeyParamoshkin/myblog/internal/memstore"
	"github.com/SergeyParamoshkin/myblog/internal/metrics"
	"github.com/SergeyParamoshkin/myblog/internal/model"
	"github.com/SergeyParamoshkin/myblog/internal/mongostore"
	"github.com/SergeyParamoshkin/myblog/internal/resp"
	"github.com/SergeyParamoshkin/myblog/internal/server"
)

const ServiceName = "myblog"

type App struct {
	logger  *zap.Logger
	config  config.Config
	metrics *metrics.Metrics
}

func main() {
	var (
		routes     = flag.Bool("routes", getEnvBool("MYBLOG_ROUTES", false), "Generate router documentation")
		configPath = flag.String("config", config.Path(), "path to the YAML config file")
		addr       = flag.String("addr", getEnv("MYBLOG_ADDR", ""), "application address, overrides http.host/port")
		diagAddr   = flag.String("diag_addr", getEnv("MYBLOG_DIAG_ADDR", ""), "diag address, overrides http.host/diag_port")
	)

	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log, err := logger.New(cfg.Logging)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = log.Sync() }()

	log.Info("load config", zap.Any("config", cfg.Redacted()))

	// Every bare error handed to render comes out as an envelope.
	render.Respond = resp.Responder

	m, err := metrics.New(ServiceName)
	if err != nil {
		log.Fatal("metrics", zap.Error(err))
	}
	global.SetMeterProvider(m.MeterProvider())

	a := &App{logger: log, config: cfg, metrics: m}

	// Passing -routes to the program prints the router definition as
	// Markdown. No storage is needed for that.
	if *routes {
		fmt.Println(docgen.MarkdownRoutesDoc(a.router(memstore.New()), docgen.MarkdownOpts{
			ProjectPath: "github.com/SergeyParamoshkin/myblog",
			Intro:       "myblog REST API generated docs.",
		}))

		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	coll, closeStore, err := a.openArticles(ctx)
	if err != nil {
		log.Fatal("storage", zap.Error(err))
	}
	defer closeStore()

	apiAddr := cfg.HTTP.Addr()
	if *addr != "" {
		apiAddr = *addr
	}
	diag := cfg.HTTP.DiagAddr()
	if *diagAddr != "" {
		diag = *diagAddr
	}

	if err := a.serve(ctx, apiAddr, diag, a.router(coll)); err != nil {
		log.Error("server", zap.Error(err))
		os.Exit(1)
	}

	log.Info("server exited properly")
}

func (a *App) router(coll crud.Collection) chi.Router {
	return server.NewRouter(server.Options{
		Logger:         a.logger,
		Metrics:        a.metrics,
		Articles:       article.NewAPI(article.NewStore(coll, a.logger)),
		RequestTimeout: a.config.HTTP.RequestTimeout(),
	})
}

// openArticles returns the article collection for the configured driver
// and a func releasing it.
func (a *App) openArticles(ctx context.Context) (crud.Collection, func(), error) {
	switch a.config.Storage.Driver {
	case config.DriverMemory:
		a.logger.Warn("using in-memory storage, data is lost on exit")

		return memstore.New(), func() {}, nil
	default:
		store, err := mongostore.Connect(ctx, a.config.MongoDB, a.logger)
		if err != nil {
			return nil, nil, err
		}

		closeStore := func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), a.config.HTTP.ShutdownTimeout())
			defer cancel()
			if err := store.Close(shutdownCtx); err != nil {
				a.logger.Error("close storage", zap.Error(err))
			}
		}

		return store.Collection(model.ArticleTable), closeStore, nil
	}
}

// serve runs the API and diagnostics listeners until ctx is done or one of
// them fails, then shuts both down.
func (a *App) serve(ctx context.Context, apiAddr, diagAddr string, handler http.Handler) error {
	servers := []*http.Server{
		{
			Addr:         apiAddr,
			Handler:      handler,
			ReadTimeout:  a.config.HTTP.ReadTimeout(),
			WriteTimeout: a.config.HTTP.WriteTimeout(),
		},
		{
			Addr:    diagAddr,
			Handler: server.NewDiagRouter(a.metrics),
		},
	}

	g, gCtx := errgroup.WithContext(ctx)

	for _, srv := range servers {
		srv := srv
		g.Go(func() error {
			a.logger.Info("starting http server", zap.String("addr", srv.Addr))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}

			return nil
		})
	}

	g.Go(func() error {
		<-gCtx.Done()
		a.logger.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.config.HTTP.ShutdownTimeout())
		defer cancel()

		var errs []error
		for _, srv := range servers {
			if err := srv.Shutdown(shutdownCtx); err != nil {
				errs = append(errs, err)
			}
		}

		return errors.Join(errs...)
	})

	return g.Wait()
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}

	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	v, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}

	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}

	return b
}
