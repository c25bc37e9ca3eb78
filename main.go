package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/kelseyhightower/envconfig"
	"github.com/mpraski/secret-vault/audit"
	"github.com/mpraski/secret-vault/cache"
	"github.com/mpraski/secret-vault/identity"
	"github.com/mpraski/secret-vault/ratelimit"
	"github.com/mpraski/secret-vault/secret"
	"github.com/mpraski/secret-vault/server"
	"github.com/mpraski/secret-vault/service"
	"github.com/mpraski/secret-vault/store"
	"github.com/mpraski/secret-vault/token"
	"github.com/mpraski/secret-vault/vault"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

type input struct {
	Config string `required:"true"`
	Server struct {
		Address         string        `default:":8080"`
		ReadTimeout     time.Duration `split_words:"true" default:"5s"`
		WriteTimeout    time.Duration `split_words:"true" default:"10s"`
		IdleTimeout     time.Duration `split_words:"true" default:"15s"`
		ShutdownTimeout time.Duration `split_words:"true" default:"30s"`
	}
	Observability struct {
		Address string `default:":9090"`
	}
}

const app = "secret_vault"

var (
	// Metrics
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "secret_vault_requests_total",
		Help: "The total number of vault requests",
	}, []string{"method", "path", "code"})
	requestsDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "secret_vault_request_duration_seconds",
		Help:    "The histogram of vault request duration in seconds",
		Buckets: prometheus.DefBuckets,
	})
)

var (
	errUnknownSecretSource = errors.New("unknown secret source")
	errUnknownStoreBackend = errors.New("unknown store backend")
)

func init() {
	log.SetOutput(os.Stdout)
	log.SetLevel(log.InfoLevel)
}

func main() {
	var i input
	if err := envconfig.Process(app, &i); err != nil {
		log.Fatalf("failed to load input: %v\n", err)
	}

	cfg, err := parseConfig(strings.NewReader(i.Config))
	if err != nil {
		log.Fatalf("failed to parse config: %v\n", err)
	}

	ctx := context.Background()

	source, closer, err := makeSource(ctx, cfg.Vault.Keys)
	if err != nil {
		log.Fatalf("failed to create secret source: %v\n", err)
	}

	defer closer()

	verifyKey, password, err := loadSecrets(ctx, source, cfg)
	if err != nil {
		log.Fatalf("failed to load secrets: %v\n", err)
	}

	parser, err := token.NewJWTParser(bytes.NewReader(verifyKey))
	if err != nil {
		log.Fatalf("failed to create identity token parser: %v\n", err)
	}

	tokens, err := cache.NewInMemory(tokenCacheCounters, tokenCacheCost)
	if err != nil {
		log.Fatalf("failed to create token cache: %v\n", err)
	}

	var client *redis.Client
	if cfg.needsRedis() {
		client = redis.NewClient(&redis.Options{
			Addr:     fmt.Sprintf("%s:%d", cfg.Store.Host, cfg.Store.Port),
			Password: string(password),
		})
	}

	getter, setter, check, err := makeStore(cfg, client)
	if err != nil {
		log.Fatalf("failed to create store: %v\n", err)
	}

	// The deployer-provisioned owner is the creator: the vault binds it
	// here, once, for the lifetime of the process.
	v := vault.New(identity.Identity(cfg.Vault.Owner), getter, setter, makeEmitter(cfg, client))

	router := http.NewServeMux()
	router.Handle("/secret", http.HandlerFunc(service.NewSecretServer(v).HandleSecret))

	var h http.Handler = router

	if cfg.RateLimit != nil && client != nil {
		h = ratelimit.NewMiddleware(
			ratelimit.NewSortedSetCounterStrategy(client),
			ratelimit.IdentityKey,
			ratelimit.Config{
				Limit:    cfg.RateLimit.Limit,
				Duration: time.Duration(cfg.RateLimit.Duration),
			},
		)(h)
	}

	h = identity.Middleware(parser, tokens)(h)
	h = service.WithMetrics(requestsTotal, requestsDuration)(h)
	h = service.WithLogging()(h)

	serverConfig := server.Config{
		Address:         i.Server.Address,
		ReadTimeout:     i.Server.ReadTimeout,
		WriteTimeout:    i.Server.WriteTimeout,
		IdleTimeout:     i.Server.IdleTimeout,
		ShutdownTimeout: i.Server.ShutdownTimeout,
	}

	observabilityConfig := serverConfig
	observabilityConfig.Address = i.Observability.Address

	observability, err := server.NewObservability(observabilityConfig, check)
	if err != nil {
		log.Fatalf("failed to create observability server: %v\n", err)
	}

	api := server.NewAPI(serverConfig, h)

	var (
		done = make(chan bool)
		quit = make(chan os.Signal, 1)
	)

	go func() {
		log.Println("starting observability server at", i.Observability.Address)

		if errs := observability.ListenAndServe(); errs != nil && errs != http.ErrServerClosed {
			log.Fatalf("failed to start observability server on %s: %v\n", i.Observability.Address, errs)
		}
	}()

	signal.Notify(quit, os.Interrupt)

	go func() {
		<-quit
		log.Println("server is shutting down...")

		ctx, cancel := context.WithTimeout(context.Background(), i.Server.ShutdownTimeout)
		defer cancel()

		api.SetKeepAlivesEnabled(false)
		observability.SetKeepAlivesEnabled(false)

		if err := api.Shutdown(ctx); err != nil {
			log.Fatalf("failed to gracefully shutdown the server: %v\n", err)
		}

		if err := observability.Shutdown(ctx); err != nil {
			log.Fatalf("failed to gracefully shutdown observability server: %v\n", err)
		}

		close(done)
	}()

	log.Println("server is ready to handle requests at", i.Server.Address)

	if err := api.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("failed to listen on %s: %v\n", i.Server.Address, err)
	}

	<-done
	log.Println("server stopped")
}

const (
	backoffTries       = 3
	backoffInterval    = time.Second
	tokenCacheCounters = 10000
	tokenCacheCost     = 100000000
)

func makeSource(ctx context.Context, keys keysConfig) (secret.Source, func(), error) {
	switch keys.Source {
	case "gsm":
		gsm, err := secret.NewGoogleSecretManager(ctx, keys.Project)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create google secret manager client: %w", err)
		}

		return secret.NewBackoffSource(backoffTries, backoffInterval, gsm), gsm.Close, nil

	case "env":
		return secret.NewEnvSource(), func() {}, nil

	case "file":
		return secret.NewFileSource(), func() {}, nil
	}

	return nil, nil, errUnknownSecretSource
}

func loadSecrets(ctx context.Context, source secret.Source, cfg *config) (verifyKey, password secret.Secret, err error) {
	group, ctx := errgroup.WithContext(ctx)

	load := func(name string, out *secret.Secret) func() error {
		return func() error {
			r, err := source.Get(ctx, name)
			if err != nil {
				return fmt.Errorf("failed to load secret %q: %w", name, err)
			}

			*out = r

			return nil
		}
	}

	group.Go(load(cfg.Vault.Keys.Verify, &verifyKey))

	if cfg.Store.Password != "" {
		group.Go(load(cfg.Store.Password, &password))
	}

	if err = group.Wait(); err != nil {
		return nil, nil, err
	}

	return verifyKey, password, nil
}

func makeStore(cfg *config, client *redis.Client) (store.Getter, store.Setter, func(context.Context) error, error) {
	switch cfg.Store.Backend {
	case "memory":
		m := store.NewMemoryStore()
		return m, m, m.Check, nil

	case "redis":
		r := store.NewRedisStore(client)
		return r, r, r.Check, nil
	}

	return nil, nil, nil, errUnknownStoreBackend
}

func makeEmitter(cfg *config, client *redis.Client) audit.Emitter {
	var emitters []audit.Emitter

	if cfg.Audit.Log {
		emitters = append(emitters, audit.NewLogger(log.StandardLogger()))
	}

	if cfg.Audit.Channel != "" && client != nil {
		emitters = append(emitters, audit.NewPublisher(client, cfg.Audit.Channel))
	}

	return audit.NewMulti(emitters...)
}
