package stage

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/wb-go/wbf/zlog"

	"restage-service/internal/config"
	"restage-service/internal/domain"
	"restage-service/internal/http-server/handler/stage/dto"
	"restage-service/internal/imaging"
	"restage-service/internal/prompt"
	"restage-service/internal/provider"
	restage_uc "restage-service/internal/usecase/restage"
)

// StageHandler serves the two provider-proxy endpoints and the orchestrated
// restage endpoints. The proxy endpoints talk to the async adapter directly
// and never poll; the restage endpoints run the full pipeline.
type StageHandler struct {
	cfg       *config.Config
	usecase   restageUsecase
	adapter   provider.Adapter
	publisher imagePublisher
	producer  taskProducer
	validate  *validator.Validate
	logger    *zlog.Zerolog
}

func NewStageHandler(
	cfg *config.Config,
	usecase restageUsecase,
	adapter provider.Adapter,
	publisher imagePublisher,
	producer taskProducer,
	logger *zlog.Zerolog,
) *StageHandler {
	return &StageHandler{
		cfg:       cfg,
		usecase:   usecase,
		adapter:   adapter,
		publisher: publisher,
		producer:  producer,
		validate:  validator.New(),
		logger:    logger,
	}
}

// CreateTask proxies one submit call to the async provider and returns the
// opaque task identifier without waiting for the result.
func (h *StageHandler) CreateTask(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req dto.StageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if strings.TrimSpace(req.Image) == "" {
		h.respondError(w, http.StatusBadRequest, ErrMissingImage.Error())
		return
	}

	if err := h.cfg.RequireKieKey(); err != nil {
		h.logger.Error().Err(err).Msg("Provider credential missing")
		h.respondError(w, http.StatusInternalServerError, restage_uc.UserMessage(err))
		return
	}

	label := req.RoomType
	if label == "" {
		label = req.SpaceType
	}
	mode := req.TransformationType
	if mode == "" {
		mode = string(domain.ModeFurnish)
	}
	opts := domain.RestageOptions{
		TransformationMode: domain.TransformationMode(mode),
		ChangeFlooring:     req.UpdateFlooring,
		UpdateFlooring:     req.UpdateFlooring,
		BlockDecorative:    req.BlockDecorative,
	}

	promptText, err := prompt.Build(label, domain.DesignStyle(req.DesignStyle), opts)
	if err != nil {
		h.respondError(w, http.StatusBadRequest, restage_uc.UserMessage(err))
		return
	}

	in := provider.SubmitInput{
		Prompt:          promptText,
		UpdateFlooring:  req.UpdateFlooring,
		BlockDecorative: req.BlockDecorative,
	}
	if imaging.IsDataURI(req.Image) {
		data, mimeType, err := imaging.ParseDataURI(req.Image)
		if err != nil {
			h.respondError(w, http.StatusBadRequest, "Image data uri is malformed")
			return
		}
		url, err := h.publisher.Publish(ctx, data, mimeType)
		if err != nil {
			h.logger.Error().Err(err).Msg("Image publishing failed")
			h.respondError(w, restage_uc.HTTPStatus(err), restage_uc.UserMessage(err))
			return
		}
		in.ImageURL = url
	} else {
		in.ImageURL = req.Image
	}

	sub, err := h.adapter.Submit(ctx, in)
	if err != nil {
		h.logger.Error().Err(err).Str("provider", h.adapter.Name()).Msg("Submit failed")
		h.respondError(w, restage_uc.HTTPStatus(err), restage_uc.UserMessage(err))
		return
	}

	h.logger.Info().
		Str("task_id", sub.TaskID).
		Str("provider", h.adapter.Name()).
		Str("mode", mode).
		Msg("Restage task created")

	h.respondJSON(w, http.StatusOK, dto.StageResponse{
		Success: true,
		Status:  string(domain.TaskProcessing),
		TaskID:  sub.TaskID,
		Message: "Restage task created",
	})
}

// TaskStatus proxies one status check and reshapes the normalized answer.
func (h *StageHandler) TaskStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	taskID := strings.TrimSpace(r.URL.Query().Get("taskId"))
	if taskID == "" {
		h.respondError(w, http.StatusBadRequest, ErrMissingTaskID.Error())
		return
	}

	if err := h.cfg.RequireKieKey(); err != nil {
		h.logger.Error().Err(err).Msg("Provider credential missing")
		h.respondError(w, http.StatusInternalServerError, restage_uc.UserMessage(err))
		return
	}

	status, err := h.adapter.CheckStatus(ctx, taskID)
	if err != nil {
		h.handleStatusError(w, err, taskID)
		return
	}

	switch status.State {
	case domain.TaskCompleted:
		h.respondJSON(w, http.StatusOK, dto.StatusResponse{
			Success: true,
			Status:  string(domain.TaskCompleted),
			Images:  status.Images,
		})
	case domain.TaskFailed:
		reason := status.FailureReason
		if reason == "" {
			reason = "The AI provider could not restage this photo."
		}
		h.respondJSON(w, http.StatusOK, dto.StatusResponse{
			Success: false,
			Status:  string(domain.TaskFailed),
			Error:   reason,
		})
	default:
		h.respondJSON(w, http.StatusOK, dto.StatusResponse{
			Success: true,
			Status:  string(domain.TaskProcessing),
		})
	}
}

// Restage runs one photo through the full pipeline and waits for the result.
func (h *StageHandler) Restage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req dto.RestageItem
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.respondError(w, http.StatusBadRequest, ErrMissingImage.Error())
		return
	}

	domainReq := h.toDomainRequest(req)
	res, err := h.usecase.Restage(ctx, domainReq)
	if err != nil {
		h.respondError(w, restage_uc.HTTPStatus(err), restage_uc.UserMessage(err))
		return
	}

	h.respondJSON(w, http.StatusOK, dto.RestageResponse{
		Success:   true,
		RequestID: res.RequestID,
		TaskID:    res.TaskID,
		Provider:  res.Provider,
		Images:    res.Images,
		ElapsedMS: res.Elapsed.Milliseconds(),
	})
}

// RestageBatch accepts a set of photos. With Kafka configured the items are
// dispatched to the worker topic and the call returns immediately; otherwise
// they are processed inline, sequentially and independently.
func (h *StageHandler) RestageBatch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req dto.BatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if len(req.Items) == 0 {
		h.respondError(w, http.StatusBadRequest, "At least one item is required")
		return
	}

	if h.producer != nil && h.cfg.KafkaEnabled() {
		h.enqueueBatch(w, r, req.Items)
		return
	}

	reqs := make([]*domain.RestageRequest, len(req.Items))
	for i, item := range req.Items {
		reqs[i] = h.toDomainRequest(item)
	}

	results := h.usecase.RestageBatch(ctx, reqs)

	items := make([]dto.BatchItemResponse, len(results))
	for i, res := range results {
		items[i] = dto.BatchItemResponse{
			Index:  res.Index,
			Status: string(res.Status),
			TaskID: res.TaskID,
			Images: res.Images,
			Error:  res.Message,
		}
	}

	h.respondJSON(w, http.StatusOK, dto.BatchResponse{
		Success: true,
		Queued:  false,
		Items:   items,
	})
}

func (h *StageHandler) enqueueBatch(w http.ResponseWriter, r *http.Request, items []dto.RestageItem) {
	ctx := r.Context()
	strategy := h.cfg.DefaultRetryStrategy()

	responses := make([]dto.BatchItemResponse, len(items))
	for i, item := range items {
		task := domain.RestageTask{
			ID:              uuid.New().String(),
			Image:           item.Image,
			RoomType:        item.RoomType,
			CustomRoomLabel: item.CustomRoomLabel,
			DesignStyle:     item.DesignStyle,
			Options:         toDomainOptions(item.Options),
			SubmittedAt:     time.Now().UTC(),
		}

		payload, err := json.Marshal(task)
		if err != nil {
			responses[i] = dto.BatchItemResponse{Index: i, Status: string(domain.ItemError), Error: "Could not encode task"}
			continue
		}
		if err := h.producer.SendTask(ctx, strategy, []byte(task.ID), payload); err != nil {
			h.logger.Error().Err(err).Str("task_id", task.ID).Msg("Failed to dispatch task")
			responses[i] = dto.BatchItemResponse{Index: i, Status: string(domain.ItemError), Error: "Could not queue this photo. Please retry."}
			continue
		}
		responses[i] = dto.BatchItemResponse{Index: i, Status: string(domain.ItemProcessing), TaskID: task.ID}
	}

	h.logger.Info().Int("items", len(items)).Msg("Batch dispatched to worker topic")

	h.respondJSON(w, http.StatusAccepted, dto.BatchResponse{
		Success: true,
		Queued:  true,
		Items:   responses,
	})
}

func (h *StageHandler) toDomainRequest(item dto.RestageItem) *domain.RestageRequest {
	req := &domain.RestageRequest{
		RoomType:        domain.RoomType(item.RoomType),
		CustomRoomLabel: item.CustomRoomLabel,
		DesignStyle:     domain.DesignStyle(item.DesignStyle),
		Options:         toDomainOptions(item.Options),
	}

	if imaging.IsDataURI(item.Image) {
		data, mimeType, err := imaging.ParseDataURI(item.Image)
		if err != nil {
			h.logger.Warn().Err(err).Msg("Malformed image data uri")
			return req
		}
		req.SourceImage = data
		req.MimeType = mimeType
	} else {
		req.SourceURL = strings.TrimSpace(item.Image)
	}
	return req
}

func toDomainOptions(opts dto.RestageOptions) domain.RestageOptions {
	mode := opts.TransformationMode
	if mode == "" {
		mode = string(domain.ModeFurnish)
	}
	return domain.RestageOptions{
		Repaint:                opts.Repaint,
		PaintColor:             opts.PaintColor,
		ChangeFlooring:         opts.ChangeFlooring,
		FlooringMaterial:       domain.FlooringMaterial(opts.FlooringMaterial),
		AdditionalInstructions: opts.AdditionalInstructions,
		TransformationMode:     domain.TransformationMode(mode),
		UpdateFlooring:         opts.UpdateFlooring,
		BlockDecorative:        opts.BlockDecorative,
	}
}

func (h *StageHandler) handleStatusError(w http.ResponseWriter, err error, taskID string) {
	if errors.Is(err, provider.ErrCompletedWithoutImages) {
		h.respondJSON(w, http.StatusOK, dto.StatusResponse{
			Success: false,
			Status:  string(domain.TaskFailed),
			Error:   restage_uc.UserMessage(err),
		})
		return
	}
	h.logger.Error().Err(err).Str("task_id", taskID).Msg("Status check failed")
	h.respondError(w, restage_uc.HTTPStatus(err), restage_uc.UserMessage(err))
}

func (h *StageHandler) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error().Err(err).Interface("data", data).Msg("Failed to encode response")
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

func (h *StageHandler) respondError(w http.ResponseWriter, status int, message string) {
	h.respondJSON(w, status, dto.ErrorResponse{
		Success: false,
		Error:   message,
	})
}
