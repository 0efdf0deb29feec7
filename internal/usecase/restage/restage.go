package restage

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/wb-go/wbf/zlog"

	"restage-service/internal/domain"
	"restage-service/internal/imaging"
	"restage-service/internal/poller"
	"restage-service/internal/prompt"
	"restage-service/internal/provider"
)

// Usecase runs the per-image restage pipeline: validate, build the prompt,
// pick an adapter, publish the image when the adapter needs a public URL,
// submit, poll when asynchronous, and normalize the outcome. Each invocation
// is a fresh, independent pipeline run; nothing is shared between runs.
type Usecase struct {
	selector  adapterSelector
	publisher imagePublisher
	poller    taskPoller
	stamper   resultStamper
	logger    *zlog.Zerolog
}

type Options struct {
	Selector  adapterSelector
	Publisher imagePublisher
	Poller    taskPoller
	Stamper   resultStamper
	Logger    *zlog.Zerolog
}

func NewUsecase(opts Options) *Usecase {
	logger := opts.Logger
	if logger == nil {
		logger = &zlog.Logger
	}
	return &Usecase{
		selector:  opts.Selector,
		publisher: opts.Publisher,
		poller:    opts.Poller,
		stamper:   opts.Stamper,
		logger:    logger,
	}
}

// Restage executes one pipeline run to completion. Failed runs are retried by
// the caller as brand-new runs; a previous task is never resumed.
func (u *Usecase) Restage(ctx context.Context, req *domain.RestageRequest) (*domain.Restaged, error) {
	start := time.Now()
	requestID := uuid.New().String()

	if err := req.Validate(); err != nil {
		return nil, err
	}

	promptText, err := prompt.Build(req.RoomLabel(), req.DesignStyle, req.Options)
	if err != nil {
		return nil, err
	}

	adapter, err := u.selector.Select(req.Options.TransformationMode)
	if err != nil {
		return nil, err
	}

	in := provider.SubmitInput{
		Prompt:          promptText,
		Data:            req.SourceImage,
		MimeType:        req.MimeType,
		ImageURL:        req.SourceURL,
		UpdateFlooring:  req.Options.UpdateFlooring,
		BlockDecorative: req.Options.BlockDecorative,
		RequestID:       requestID,
	}

	if adapter.RequiresPublicURL() && in.ImageURL == "" {
		url, err := u.publisher.Publish(ctx, req.SourceImage, req.MimeType)
		if err != nil {
			u.logger.Error().Err(err).Str("request_id", requestID).Msg("Image publishing failed")
			return nil, err
		}
		in.ImageURL = url
	}

	u.logger.Info().
		Str("request_id", requestID).
		Str("provider", adapter.Name()).
		Str("mode", string(req.Options.TransformationMode)).
		Str("room", req.RoomLabel()).
		Msg("Submitting restage job")

	sub, err := adapter.Submit(ctx, in)
	if err != nil {
		u.logger.Error().Err(err).Str("request_id", requestID).Str("provider", adapter.Name()).Msg("Submit failed")
		return nil, err
	}

	images := sub.Images
	if len(images) == 0 {
		if sub.TaskID == "" {
			return nil, &provider.ProviderError{Message: "submit returned neither images nor a task id"}
		}
		images, err = u.poller.Poll(ctx, sub.TaskID, func(ctx context.Context) (*domain.TaskStatus, error) {
			return adapter.CheckStatus(ctx, sub.TaskID)
		})
		if err != nil {
			u.logger.Error().Err(err).Str("request_id", requestID).Str("task_id", sub.TaskID).Msg("Polling ended in failure")
			return nil, err
		}
	}

	images = u.stampAll(images, requestID)

	u.logger.Info().
		Str("request_id", requestID).
		Str("provider", adapter.Name()).
		Int("images", len(images)).
		Dur("elapsed", time.Since(start)).
		Msg("Restage completed")

	return &domain.Restaged{
		RequestID: requestID,
		TaskID:    sub.TaskID,
		Images:    images,
		Provider:  adapter.Name(),
		Elapsed:   time.Since(start),
	}, nil
}

// ItemResult is the outcome of one item in a batch run.
type ItemResult struct {
	Index   int
	Status  domain.ItemStatus
	TaskID  string
	Images  []string
	Message string
}

// RestageBatch processes items sequentially and independently: one item's
// failure never aborts the rest, and cancellation stops issuing new pipeline
// runs while leaving unprocessed items idle.
func (u *Usecase) RestageBatch(ctx context.Context, reqs []*domain.RestageRequest) []ItemResult {
	results := make([]ItemResult, len(reqs))
	for i, req := range reqs {
		if ctx.Err() != nil {
			results[i] = ItemResult{Index: i, Status: domain.ItemIdle, Message: "cancelled before processing"}
			continue
		}
		res, err := u.Restage(ctx, req)
		if err != nil {
			results[i] = ItemResult{Index: i, Status: domain.ItemError, Message: UserMessage(err)}
			continue
		}
		results[i] = ItemResult{Index: i, Status: domain.ItemDone, TaskID: res.TaskID, Images: res.Images}
	}
	return results
}

// stampAll applies the disclosure stamp to inline results. URL results are
// left alone: the bytes live at the provider and stamping would require a
// download this path does not do (the batch worker handles that case).
func (u *Usecase) stampAll(images []string, requestID string) []string {
	if u.stamper == nil {
		return images
	}
	out := make([]string, len(images))
	for i, img := range images {
		out[i] = img
		if !imaging.IsDataURI(img) {
			continue
		}
		data, _, err := imaging.ParseDataURI(img)
		if err != nil {
			u.logger.Warn().Err(err).Str("request_id", requestID).Msg("Skipping stamp: bad data uri")
			continue
		}
		stamped, err := u.stamper.Stamp(data)
		if err != nil {
			u.logger.Warn().Err(err).Str("request_id", requestID).Msg("Skipping stamp: draw failed")
			continue
		}
		out[i] = imaging.ToDataURI(stamped, "image/jpeg")
	}
	return out
}

var _ taskPoller = (*poller.Poller)(nil)
