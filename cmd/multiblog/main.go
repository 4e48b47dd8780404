package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/dropDatabas3/multiblog/internal/auth"
	"github.com/dropDatabas3/multiblog/internal/authz"
	"github.com/dropDatabas3/multiblog/internal/cache"
	memcache "github.com/dropDatabas3/multiblog/internal/cache/memory"
	redcache "github.com/dropDatabas3/multiblog/internal/cache/redis"
	"github.com/dropDatabas3/multiblog/internal/config"
	"github.com/dropDatabas3/multiblog/internal/directory"
	"github.com/dropDatabas3/multiblog/internal/directory/ldapdir"
	"github.com/dropDatabas3/multiblog/internal/directory/static"
	"github.com/dropDatabas3/multiblog/internal/email"
	"github.com/dropDatabas3/multiblog/internal/groupsync"
	mbhttp "github.com/dropDatabas3/multiblog/internal/http"
	"github.com/dropDatabas3/multiblog/internal/idp/cas"
	"github.com/dropDatabas3/multiblog/internal/metrics"
	"github.com/dropDatabas3/multiblog/internal/observability/logger"
	"github.com/dropDatabas3/multiblog/internal/rate"
	"github.com/dropDatabas3/multiblog/internal/rpc"
	core "github.com/dropDatabas3/multiblog/internal/store/core"
	"github.com/dropDatabas3/multiblog/internal/store/memory"
	"github.com/dropDatabas3/multiblog/internal/store/pg"
	"github.com/dropDatabas3/multiblog/internal/xmlrpc"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "multiblog:", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "configs/config.example.yaml", "ruta del YAML de configuración")
	flag.Parse()

	// .env primero: la config lee overrides del entorno
	_ = godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	logger.Init(logger.Config{Env: cfg.App.Env, ServiceName: "multiblog"})
	defer logger.Sync()
	log := logger.L()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ─── Store ───
	var st core.Store
	switch cfg.Storage.Driver {
	case "postgres":
		st, err = pg.New(ctx, cfg.Storage.DSN, pg.Tuning{
			MaxOpenConns:    cfg.Storage.Postgres.MaxOpenConns,
			MaxIdleConns:    cfg.Storage.Postgres.MaxIdleConns,
			ConnMaxLifetime: cfg.Storage.Postgres.ConnMaxLifetime,
		})
		if err != nil {
			return fmt.Errorf("postgres: %w", err)
		}
	default:
		st = memory.New()
		log.Warn("using in-memory store, nothing will be persisted")
	}
	defer st.Close()

	// ─── Cache y rate limit ───
	var (
		ch      cache.Cache
		limiter auth.FailureLimiter
	)
	switch cfg.Cache.Kind {
	case "redis":
		rc := redcache.New(cfg.Cache.Redis.Addr, cfg.Cache.Redis.DB, cfg.Cache.Redis.Prefix)
		ch = rc
		if cfg.Rate.Enabled {
			limiter = rate.NewRedisFailureLimiter(rc.Client(), "authfail:",
				cfg.Rate.MaxFailures, config.Dur(cfg.Rate.Window))
		}
	default:
		ch = memcache.New(config.Dur(cfg.Cache.Memory.DefaultTTL))
		if cfg.Rate.Enabled {
			limiter = rate.NewLocalFailureLimiter(cfg.Rate.MaxFailures, config.Dur(cfg.Rate.Window))
		}
	}

	// ─── Directorio ───
	var dir directory.Directory
	switch cfg.Directory.Kind {
	case "ldap":
		dir = ldapdir.New(ldapdir.Config{
			URL:          cfg.Directory.LDAP.URL,
			BindDN:       cfg.Directory.LDAP.BindDN,
			BindPassword: cfg.Directory.LDAP.BindPassword,
			UserBaseDN:   cfg.Directory.LDAP.UserBaseDN,
			UserFilter:   cfg.Directory.LDAP.UserFilter,
			LoginAttr:    cfg.Directory.LDAP.LoginAttr,
			EmailAttr:    cfg.Directory.LDAP.EmailAttr,
			DisplayAttr:  cfg.Directory.LDAP.DisplayAttr,
			MemberAttr:   cfg.Directory.LDAP.MemberAttr,
			Timeout:      config.Dur(cfg.Directory.LDAP.RequestTimeout),
		})
	default:
		dir, err = static.Load(cfg.Directory.Static.Path)
		if err != nil {
			return fmt.Errorf("static directory: %w", err)
		}
		log.Warn("using static directory", logger.Path(cfg.Directory.Static.Path))
	}

	// ─── Núcleo ───
	policy := &authz.Policy{Store: st, SignupPolicy: cfg.Signup.Policy}
	engine := &groupsync.Engine{Store: st, Dir: dir}
	sessions := &auth.Sessions{
		CookieName: cfg.Session.CookieName,
		Secret:     []byte(cfg.Session.Secret),
		TTL:        config.Dur(cfg.Session.TTL),
		Domain:     cfg.Session.Domain,
		Secure:     cfg.Session.Secure,
		SameSite:   auth.ParseSameSite(cfg.Session.SameSite),
	}

	var mailer email.Sender
	if cfg.SMTP.Host != "" {
		s := email.NewSMTPSender(cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.From, cfg.SMTP.Username, cfg.SMTP.Password)
		if cfg.SMTP.TLS != "" {
			s.TLSMode = cfg.SMTP.TLS
		}
		s.InsecureSkipVerify = cfg.SMTP.InsecureSkipVerify
		mailer = s
	}

	svc := &rpc.Service{
		Store:            st,
		Dir:              dir,
		IdP:              cas.New(cfg.CAS.ServerURL, cfg.CAS.ServiceURL, config.Dur(cfg.CAS.Timeout)),
		Policy:           policy,
		Engine:           engine,
		Sessions:         sessions,
		Limiter:          limiter,
		Cache:            ch,
		Mailer:           mailer,
		Domain:           cfg.Network.Domain,
		PathBase:         cfg.Network.PathBase,
		SubdomainInstall: cfg.Network.SubdomainInstall,
	}

	if err := metrics.Register(nil); err != nil {
		return fmt.Errorf("metrics: %w", err)
	}
	rpcSrv := xmlrpc.NewServer(mbhttp.RPCHooks(cfg.Logging.Calls, cfg.Logging.Faults))
	svc.RegisterAll(rpcSrv)

	// ─── Barrido programado de grupos ───
	if cfg.Sync.Schedule != "" {
		sched, err := groupsync.NewScheduler(cfg.Sync.Schedule, engine)
		if err != nil {
			return fmt.Errorf("sync schedule: %w", err)
		}
		sched.Start()
		defer sched.Stop()
		log.Info("group sync sweep scheduled", logger.Op(cfg.Sync.Schedule))
	}

	httpSrv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      mbhttp.NewRouter(rpcSrv, st),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("listening", logger.Op(cfg.Server.Addr))
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpSrv.Shutdown(shCtx)
	})

	if err := g.Wait(); err != nil {
		return err
	}
	log.Info("bye")
	return nil
}
