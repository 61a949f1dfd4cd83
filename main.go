package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/meilisearch/meilisearch-go"

	"inkwell/auth"
	"inkwell/config"
	"inkwell/domain"
	"inkwell/driver/mail"
	"inkwell/driver/meili"
	"inkwell/driver/postgres"
	"inkwell/driver/taskqueue"
	"inkwell/gateway"
	"inkwell/job"
	"inkwell/logger"
	"inkwell/port"
	"inkwell/rest"
	"inkwell/storage"
	"inkwell/usecase"
	"inkwell/worker"
)

func main() {
	_ = godotenv.Load()
	logger.Init()

	if err := run(); err != nil {
		logger.Logger.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	pool, err := postgres.Init(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer pool.Close()

	if err := postgres.EnsureSchema(ctx, pool); err != nil {
		return err
	}

	searchEngine, err := buildSearchEngine(cfg)
	if err != nil {
		return err
	}

	postRepo := postgres.NewPostRepository(pool)
	userRepo := postgres.NewUserRepository(pool)
	txRunner := postgres.NewTxRunner(pool)

	tokens := auth.NewTokenManager(cfg.Auth)
	mailer := mail.NewSMTPMailer(cfg.SMTP, logger.Logger)

	pictures, err := storage.NewPictureStore(cfg.Uploads.Dir)
	if err != nil {
		return err
	}

	registry := taskqueue.NewRegistry()
	worker.NewHandlers(postRepo, searchEngine, mailer, cfg.HTTP.PublicBaseURL, logger.Logger).Register(registry)

	scheduler := job.NewScheduler(logger.Logger)

	var queue port.TaskQueue
	if cfg.Queue.Inline() {
		logger.Logger.Info("task queue running inline")
		queue = taskqueue.NewInlineQueue(registry, logger.Logger)
	} else {
		redisClient, err := taskqueue.NewRedisClient(cfg.Queue.RedisURL)
		if err != nil {
			return fmt.Errorf("redis init: %w", err)
		}
		defer redisClient.Close()

		queue = taskqueue.NewRedisQueue(redisClient, cfg.Queue, logger.Logger)

		consumer := taskqueue.NewConsumer(redisClient, cfg.Queue, registry, logger.Logger)
		if err := consumer.Start(ctx); err != nil {
			return fmt.Errorf("consumer start: %w", err)
		}
		defer consumer.Stop()

		scheduler.Add(job.NewReclaimJob(consumer, cfg.Queue.ReclaimInterval))
	}

	policy := usecase.NewIndexSyncPolicy(queue, logger.Logger)
	reindexPosts := usecase.NewReindexPostsUsecase(searchEngine, postRepo, logger.Logger)
	scheduler.Add(job.NewNightlyReindexJob(reindexPosts))
	scheduler.Start(ctx)
	defer scheduler.Shutdown()

	handler := rest.NewHandler(rest.HandlerDeps{
		CreatePost:    usecase.NewCreatePostUsecase(txRunner, postRepo, policy, logger.Logger),
		UpdatePost:    usecase.NewUpdatePostUsecase(txRunner, postRepo, policy, logger.Logger),
		DeletePost:    usecase.NewDeletePostUsecase(txRunner, postRepo, policy, logger.Logger),
		GetPost:       usecase.NewGetPostUsecase(postRepo),
		ListPosts:     usecase.NewListPostsUsecase(postRepo),
		SearchPosts:   usecase.NewSearchPostsUsecase(searchEngine, postRepo, logger.Logger),
		ReindexPosts:  reindexPosts,
		RegisterUser:  usecase.NewRegisterUserUsecase(userRepo),
		LoginUser:     usecase.NewLoginUserUsecase(userRepo, tokens),
		RequestReset:  usecase.NewRequestPasswordResetUsecase(userRepo, tokens, queue, logger.Logger),
		ConfirmReset:  usecase.NewConfirmPasswordResetUsecase(userRepo, tokens),
		UpdatePicture: usecase.NewUpdateProfilePictureUsecase(userRepo, pictures, logger.Logger),
		UserRepo:      userRepo,
		Logger:        logger.Logger,
	})

	router := rest.NewRouter(handler, tokens, cfg)

	srv := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           router,
		ReadHeaderTimeout: cfg.HTTP.ReadHeaderTimeout,
	}

	go func() {
		logger.Logger.Info("http listen", "addr", cfg.HTTP.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Logger.Error("http server", "error", err)
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// buildSearchEngine connects to Meilisearch when one is configured and
// degrades to the disabled gateway when not. Waits through engine
// startup since the container may come up after us.
func buildSearchEngine(cfg *config.Config) (port.SearchEngine, error) {
	fields := map[string][]string{
		domain.PostNamespace: {"title", "content"},
	}

	if !cfg.Meilisearch.Enabled() {
		logger.Logger.Info("search engine not configured, search disabled")
		return gateway.NewSearchEngineGateway(nil, fields, logger.Logger), nil
	}

	const maxRetries = 5
	const retryDelay = 5 * time.Second

	var client meilisearch.ServiceManager
	for i := 0; i < maxRetries; i++ {
		client = meili.NewClient(cfg.Meilisearch.Host, cfg.Meilisearch.APIKey)
		if _, err := client.Health(); err != nil {
			logger.Logger.Warn("meilisearch not ready, retrying",
				"attempt", i+1,
				"max", maxRetries,
				"error", err,
			)
			if i < maxRetries-1 {
				time.Sleep(retryDelay)
				continue
			}
			return nil, fmt.Errorf("meilisearch unreachable after %d attempts: %w", maxRetries, err)
		}
		break
	}

	logger.Logger.Info("connected to meilisearch", "host", cfg.Meilisearch.Host)
	driver := meili.NewDriver(client, cfg.Meilisearch.Timeout)
	return gateway.NewSearchEngineGateway(driver, fields, logger.Logger), nil
}
