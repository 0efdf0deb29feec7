package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"restage-service/internal/broker"
	kafka_impl "restage-service/internal/broker/kafka"
	"restage-service/internal/config"
	"restage-service/internal/domain"
	"restage-service/internal/imaging"
	"restage-service/internal/poller"
	"restage-service/internal/provider"
	"restage-service/internal/provider/gemini"
	"restage-service/internal/provider/kie"
	"restage-service/internal/publisher"
	restage_uc "restage-service/internal/usecase/restage"

	"github.com/wb-go/wbf/zlog"
)

// Worker consumes restage tasks from the task topic, runs each through the
// restage pipeline, optionally archives result URLs to the bucket, and emits a
// result record. Messages are committed only after the result is emitted.
type Worker struct {
	cfg         *config.Config
	logger      *zlog.Zerolog
	consumer    broker.Consumer
	producer    broker.Producer
	usecase     *restage_uc.Usecase
	archiver    *publisher.Minio
	httpClient  *http.Client
	concurrency int
	wg          sync.WaitGroup
}

func NewWorker(cfg *config.Config, logger *zlog.Zerolog) (*Worker, error) {
	if !cfg.KafkaEnabled() {
		return nil, fmt.Errorf("worker requires KAFKA_BROKERS to be set")
	}
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

	var pubs []publisher.Publisher
	if cfg.Publisher.ImgBBAPIKey != "" {
		pubs = append(pubs, publisher.NewImgBB(publisher.ImgBBOptions{
			APIKey: cfg.Publisher.ImgBBAPIKey,
			Expiry: cfg.Publisher.ImgBBExpiry,
			Logger: logger,
		}))
	}

	var archiver *publisher.Minio
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
			logger.Warn().Err(err).Msg("Minio unavailable, result archiving disabled")
		} else {
			pubs = append(pubs, minioPub)
			archiver = minioPub
		}
	}

	var pub publisher.Publisher = publisher.Disabled()
	if len(pubs) > 0 {
		pub = publisher.NewChain(logger, pubs...)
	}

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

	concurrency := cfg.Worker.Concurrency
	if concurrency <= 0 {
		concurrency = 1
	}

	logger.Info().
		Strs("brokers", cfg.Kafka.Brokers).
		Str("topic", cfg.Kafka.RestageTopic).
		Str("group", cfg.Kafka.GroupID).
		Int("concurrency", concurrency).
		Msg("Worker configuration")

	return &Worker{
		cfg:         cfg,
		logger:      logger,
		consumer:    kafka_impl.NewConsumerClient(cfg),
		producer:    kafka_impl.NewProducerClient(cfg),
		usecase:     restage_uc.NewUsecase(ucOpts),
		archiver:    archiver,
		httpClient:  &http.Client{Timeout: 60 * time.Second},
		concurrency: concurrency,
	}, nil
}

func (w *Worker) Run() error {
	w.logger.Info().Int("concurrency", w.concurrency).Msg("Starting worker")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		w.logger.Info().Str("signal", sig.String()).Msg("Received shutdown signal, stopping worker...")
		cancel()
	}()

	messages := make(chan *broker.Message, w.concurrency*2)
	w.consumer.Start(ctx, messages, w.cfg.DefaultRetryStrategy())

	for i := 0; i < w.concurrency; i++ {
		w.wg.Add(1)
		go func(id int) {
			defer w.wg.Done()
			w.processWorker(ctx, id, messages)
		}(i)
	}

	w.logger.Info().Msg("Worker started successfully")
	<-ctx.Done()

	w.logger.Info().Msg("Shutting down worker gracefully...")
	w.wg.Wait()
	if w.consumer != nil {
		w.consumer.Close()
	}
	if w.producer != nil {
		w.producer.Close()
	}
	w.logger.Info().Msg("Worker stopped gracefully")
	return nil
}

func (w *Worker) processWorker(ctx context.Context, id int, messages <-chan *broker.Message) {
	w.logger.Info().Int("worker_id", id).Msg("Worker started")
	for {
		select {
		case <-ctx.Done():
			w.logger.Debug().Int("worker_id", id).Msg("Worker stopping")
			return
		case msg, ok := <-messages:
			if !ok {
				return
			}
			startTime := time.Now()
			if err := w.safeProcessMessage(ctx, id, msg); err != nil {
				w.logger.Error().
					Err(err).
					Int("worker_id", id).
					Int64("offset", msg.Offset).
					Msg("Failed to process message")
				continue
			}
			if err := w.consumer.Commit(ctx, msg); err != nil {
				w.logger.Error().
					Err(err).
					Int64("offset", msg.Offset).
					Int("worker_id", id).
					Msg("Failed to commit message after successful processing")
				continue
			}
			w.logger.Debug().
				Int("worker_id", id).
				Int64("offset", msg.Offset).
				Dur("duration", time.Since(startTime)).
				Msg("Message processed and committed successfully")
		}
	}
}

func (w *Worker) safeProcessMessage(ctx context.Context, workerID int, msg *broker.Message) (err error) {
	defer func() {
		if r := recover(); r != nil {
			w.logger.Error().
				Int("worker_id", workerID).
				Interface("panic", r).
				Int64("offset", msg.Offset).
				Msg("Panic recovered while processing message")
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return w.processMessage(ctx, msg)
}

func (w *Worker) processMessage(ctx context.Context, msg *broker.Message) error {
	var task domain.RestageTask
	if err := json.Unmarshal(msg.Value, &task); err != nil {
		w.logger.Error().Err(err).Int64("offset", msg.Offset).Msg("Failed to unmarshal task")
		return fmt.Errorf("failed to unmarshal task: %w", err)
	}

	w.logger.Info().
		Str("task_id", task.ID).
		Str("room", task.RoomType).
		Str("mode", string(task.Options.TransformationMode)).
		Int64("offset", msg.Offset).
		Msg("Processing restage task")

	req := toDomainRequest(&task, w.logger)
	res, err := w.usecase.Restage(ctx, req)

	result := domain.RestageResult{
		ID:          task.ID,
		CompletedAt: time.Now().UTC(),
	}
	if err != nil {
		result.Status = domain.ItemError
		result.Error = restage_uc.UserMessage(err)
		w.logger.Error().Err(err).Str("task_id", task.ID).Msg("Restage failed")
	} else {
		result.Status = domain.ItemDone
		result.Images = w.archiveImages(ctx, task.ID, res.Images)
	}

	payload, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to encode result: %w", err)
	}
	if err := w.producer.SendResult(ctx, w.cfg.DefaultRetryStrategy(), []byte(task.ID), payload); err != nil {
		return fmt.Errorf("failed to emit result: %w", err)
	}

	w.logger.Info().
		Str("task_id", task.ID).
		Str("status", string(result.Status)).
		Int("images", len(result.Images)).
		Msg("Restage task finished")
	return nil
}

// archiveImages copies provider-hosted result URLs into the bucket so they
// outlive the provider's retention window. Data URIs and fetch failures pass
// through unchanged.
func (w *Worker) archiveImages(ctx context.Context, taskID string, images []string) []string {
	if w.archiver == nil {
		return images
	}
	out := make([]string, len(images))
	for i, img := range images {
		out[i] = img
		if imaging.IsDataURI(img) || !strings.HasPrefix(img, "http") {
			continue
		}
		data, mimeType, err := w.fetch(ctx, img)
		if err != nil {
			w.logger.Warn().Err(err).Str("task_id", taskID).Msg("Could not fetch result for archiving")
			continue
		}
		archived, err := w.archiver.Publish(ctx, data, mimeType)
		if err != nil {
			w.logger.Warn().Err(err).Str("task_id", taskID).Msg("Could not archive result")
			continue
		}
		out[i] = archived
	}
	return out
}

func (w *Worker) fetch(ctx context.Context, url string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, "", err
	}
	resp, err := w.httpClient.Do(req)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return nil, "", fmt.Errorf("fetch returned status %d", resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, domain.DefaultMaxUploadSize))
	if err != nil {
		return nil, "", err
	}
	return data, imaging.DetectMime(data, resp.Header.Get("Content-Type")), nil
}

func toDomainRequest(task *domain.RestageTask, logger *zlog.Zerolog) *domain.RestageRequest {
	req := &domain.RestageRequest{
		RoomType:        domain.RoomType(task.RoomType),
		CustomRoomLabel: task.CustomRoomLabel,
		DesignStyle:     domain.DesignStyle(task.DesignStyle),
		Options:         task.Options,
	}
	if imaging.IsDataURI(task.Image) {
		data, mimeType, err := imaging.ParseDataURI(task.Image)
		if err != nil {
			logger.Warn().Err(err).Str("task_id", task.ID).Msg("Malformed image data uri")
			return req
		}
		req.SourceImage = data
		req.MimeType = mimeType
	} else {
		req.SourceURL = strings.TrimSpace(task.Image)
	}
	return req
}
