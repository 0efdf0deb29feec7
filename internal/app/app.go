package app

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	kafka_impl "restage-service/internal/broker/kafka"
	"restage-service/internal/config"
	"restage-service/internal/domain"
	"restage-service/internal/http-server/handler/stage"
	"restage-service/internal/http-server/router"
	"restage-service/internal/imaging"
	"restage-service/internal/poller"
	"restage-service/internal/provider"
	"restage-service/internal/provider/gemini"
	"restage-service/internal/provider/kie"
	"restage-service/internal/publisher"
	restage_uc "restage-service/internal/usecase/restage"

	"github.com/wb-go/wbf/zlog"
)

type App struct {
	cfg      *config.Config
	server   *http.Server
	logger   *zlog.Zerolog
	producer *kafka_impl.ProducerClient
}

func NewApp(cfg *config.Config, logger *zlog.Zerolog) (*App, error) {
	retries := cfg.DefaultRetryStrategy()

	var kieClient *kie.Client
	if cfg.RequireKieKey() == nil {
		c, err := kie.NewClient(kie.Options{
			APIKey:         cfg.Providers.KieAPIKey,
			BaseURL:        cfg.Providers.KieBaseURL,
			Model:          cfg.Providers.KieModel,
			Logger:         logger,
			Retries:        retries,
			RequestTimeout: cfg.Providers.RequestTimeout,
		})
		if err != nil {
			return nil, err
		}
		kieClient = c
	} else {
		logger.Warn().Msg("KIE_API_KEY not set, async provider disabled")
	}

	var fallback provider.Adapter
	if kieClient != nil {
		fallback = kieClient
	}
	registry := provider.NewRegistry(fallback)

	if cfg.RequireGeminiKey() == nil {
		geminiClient, err := gemini.NewClient(gemini.Options{
			APIKey:         cfg.Providers.GeminiAPIKey,
			Model:          cfg.Providers.GeminiModel,
			Logger:         logger,
			Retries:        retries,
			RequestTimeout: cfg.Providers.RequestTimeout,
		})
		if err != nil {
			return nil, err
		}
		if len(cfg.Providers.GeminiModes) == 0 && kieClient == nil {
			registry = provider.NewRegistry(geminiClient)
		}
		for _, mode := range cfg.Providers.GeminiModes {
			mode = strings.ToLower(strings.TrimSpace(mode))
			if mode == "" {
				continue
			}
			registry.Route(domain.TransformationMode(mode), geminiClient)
		}
	}

	pub := buildPublisher(cfg, logger)

	pol := poller.New(poller.Options{
		Interval:    cfg.Poller.Interval,
		FirstDelay:  cfg.Poller.FirstDelay,
		MaxAttempts: cfg.Poller.MaxAttempts,
		Logger:      logger,
	})

	ucOpts := restage_uc.Options{
		Selector:  registry,
		Publisher: pub,
		Poller:    pol,
		Logger:    logger,
	}
	if cfg.Stamp.Enabled {
		stamper, err := imaging.NewStamper(cfg.Stamp.Text)
		if err != nil {
			return nil, err
		}
		ucOpts.Stamper = stamper
	}
	usecase := restage_uc.NewUsecase(ucOpts)

	var producer *kafka_impl.ProducerClient
	if cfg.KafkaEnabled() {
		producer = kafka_impl.NewProducerClient(cfg)
	}

	stageHandler := stage.NewStageHandler(cfg, usecase, kieClient, pub, producer, logger)

	h := &router.Handler{
		StageHandler: stageHandler,
	}

	mux := router.SetupRouter(h)

	server := &http.Server{
		Addr:         ":" + cfg.Server.Addr,
		Handler:      mux,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	return &App{
		cfg:      cfg,
		server:   server,
		logger:   logger,
		producer: producer,
	}, nil
}

// buildPublisher assembles the image-host chain: imgbb first, the
// S3-compatible bucket as fallback. With neither configured every publish
// fails fast with a configuration-shaped error.
func buildPublisher(cfg *config.Config, logger *zlog.Zerolog) publisher.Publisher {
	var pubs []publisher.Publisher

	if cfg.Publisher.ImgBBAPIKey != "" {
		pubs = append(pubs, publisher.NewImgBB(publisher.ImgBBOptions{
			APIKey: cfg.Publisher.ImgBBAPIKey,
			Expiry: cfg.Publisher.ImgBBExpiry,
			Logger: logger,
		}))
	}

	if cfg.Publisher.MinioEndpoint != "" {
		minioPub, err := publisher.NewMinio(publisher.MinioOptions{
			Endpoint:  cfg.Publisher.MinioEndpoint,
			AccessKey: cfg.Publisher.MinioAccessKey,
			SecretKey: cfg.Publisher.MinioSecretKey,
			Bucket:    cfg.Publisher.MinioBucket,
			UseSSL:    cfg.Publisher.MinioUseSSL,
			URLExpiry: cfg.Publisher.MinioURLExpiry,
			Logger:    logger,
		})
		if err != nil {
			logger.Warn().Err(err).Msg("Minio publisher unavailable")
		} else {
			pubs = append(pubs, minioPub)
		}
	}

	if len(pubs) == 0 {
		logger.Warn().Msg("No image publisher configured, url-only providers will reject inline images")
		return publisher.Disabled()
	}
	return publisher.NewChain(logger, pubs...)
}

func (a *App) Run() error {
	a.logger.Info().Str("addr", a.cfg.Server.Addr).Msg("Starting server")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go a.handleSignals(cancel)

	serverErr := make(chan error, 1)
	go func() {
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case err := <-serverErr:
		a.logger.Error().Err(err).Msg("Server error")
		return err
	case <-ctx.Done():
		a.logger.Info().Msg("Shutting down server")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
		defer shutdownCancel()

		if err := a.server.Shutdown(shutdownCtx); err != nil {
			a.logger.Error().Err(err).Msg("Server shutdown failed")
		}

		if a.producer != nil {
			a.producer.Close()
		}

		a.logger.Info().Msg("Server stopped gracefully")
		return nil
	}
}

func (a *App) handleSignals(cancel context.CancelFunc) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigChan
	a.logger.Info().Str("signal", sig.String()).Msg("Received signal")
	cancel()
}
