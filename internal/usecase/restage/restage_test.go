package restage

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wb-go/wbf/zlog"

	"restage-service/internal/domain"
	"restage-service/internal/poller"
	"restage-service/internal/provider"
)

func TestMain(m *testing.M) {
	zlog.Init()
	os.Exit(m.Run())
}

type fakeAdapter struct {
	name        string
	requiresURL bool
	submission  *provider.Submission
	submitErr   error
	statuses    []*domain.TaskStatus
	statusErr   error

	submitCalls []provider.SubmitInput
	statusCalls int
}

func (f *fakeAdapter) Name() string { return f.name }

func (f *fakeAdapter) RequiresPublicURL() bool { return f.requiresURL }

func (f *fakeAdapter) Submit(_ context.Context, in provider.SubmitInput) (*provider.Submission, error) {
	f.submitCalls = append(f.submitCalls, in)
	if f.submitErr != nil {
		return nil, f.submitErr
	}
	return f.submission, nil
}

func (f *fakeAdapter) CheckStatus(context.Context, string) (*domain.TaskStatus, error) {
	if f.statusErr != nil {
		return nil, f.statusErr
	}
	idx := f.statusCalls
	if idx >= len(f.statuses) {
		idx = len(f.statuses) - 1
	}
	f.statusCalls++
	return f.statuses[idx], nil
}

type fakeSelector struct {
	adapter provider.Adapter
	err     error
}

func (f *fakeSelector) Select(domain.TransformationMode) (provider.Adapter, error) {
	return f.adapter, f.err
}

type fakePublisher struct {
	url   string
	err   error
	calls int
}

func (f *fakePublisher) Publish(context.Context, []byte, string) (string, error) {
	f.calls++
	return f.url, f.err
}

func newTestUsecase(adapter provider.Adapter, pub *fakePublisher) *Usecase {
	return NewUsecase(Options{
		Selector:  &fakeSelector{adapter: adapter},
		Publisher: pub,
		Poller:    poller.New(poller.Options{Interval: 0, MaxAttempts: 5}),
	})
}

func validRequest() *domain.RestageRequest {
	return &domain.RestageRequest{
		SourceImage: []byte("jpeg-bytes"),
		MimeType:    "image/jpeg",
		RoomType:    domain.RoomLivingRoom,
		DesignStyle: domain.StyleModern,
		Options:     domain.RestageOptions{TransformationMode: domain.ModeFurnish},
	}
}

func TestRestageAsyncRoundTrip(t *testing.T) {
	payload := map[string]any{
		"code": float64(200),
		"data": map[string]any{
			"state":      "success",
			"resultJson": `{"resultUrls":["http://x/1.png"]}`,
		},
	}
	status, err := provider.NormalizeStatus(payload)
	require.NoError(t, err)

	adapter := &fakeAdapter{
		name:        "kie",
		requiresURL: true,
		submission:  &provider.Submission{TaskID: "task-1"},
		statuses: []*domain.TaskStatus{
			{State: domain.TaskProcessing},
			status,
		},
	}
	pub := &fakePublisher{url: "http://pub/room.jpg"}

	uc := newTestUsecase(adapter, pub)
	res, err := uc.Restage(context.Background(), validRequest())
	require.NoError(t, err)

	assert.Equal(t, []string{"http://x/1.png"}, res.Images)
	assert.Equal(t, "task-1", res.TaskID)
	assert.Equal(t, "kie", res.Provider)
	assert.Equal(t, 1, pub.calls)
	require.Len(t, adapter.submitCalls, 1)
	assert.Equal(t, "http://pub/room.jpg", adapter.submitCalls[0].ImageURL)
}

func TestRestageSyncSkipsPollingAndPublishing(t *testing.T) {
	adapter := &fakeAdapter{
		name:       "gemini",
		submission: &provider.Submission{Images: []string{"data:image/png;base64,QUJD"}},
	}
	pub := &fakePublisher{url: "http://pub/room.jpg"}

	uc := newTestUsecase(adapter, pub)
	res, err := uc.Restage(context.Background(), validRequest())
	require.NoError(t, err)

	assert.Equal(t, []string{"data:image/png;base64,QUJD"}, res.Images)
	assert.Empty(t, res.TaskID)
	assert.Zero(t, pub.calls)
	assert.Zero(t, adapter.statusCalls)
}

func TestRestageSourceURLSkipsPublishing(t *testing.T) {
	adapter := &fakeAdapter{
		name:        "kie",
		requiresURL: true,
		submission:  &provider.Submission{TaskID: "task-1"},
		statuses:    []*domain.TaskStatus{{State: domain.TaskCompleted, Images: []string{"http://x/1.png"}}},
	}
	pub := &fakePublisher{url: "http://pub/room.jpg"}

	req := validRequest()
	req.SourceImage = nil
	req.SourceURL = "http://public/room.jpg"

	uc := newTestUsecase(adapter, pub)
	res, err := uc.Restage(context.Background(), req)
	require.NoError(t, err)

	assert.Zero(t, pub.calls)
	assert.Equal(t, "http://public/room.jpg", adapter.submitCalls[0].ImageURL)
	assert.Equal(t, []string{"http://x/1.png"}, res.Images)
}

func TestRestageValidation(t *testing.T) {
	uc := newTestUsecase(&fakeAdapter{}, &fakePublisher{})

	req := validRequest()
	req.SourceImage = nil
	_, err := uc.Restage(context.Background(), req)
	require.ErrorIs(t, err, domain.ErrMissingImage)

	req = validRequest()
	req.RoomType = domain.RoomOther
	req.CustomRoomLabel = "   "
	_, err = uc.Restage(context.Background(), req)
	require.ErrorIs(t, err, domain.ErrUnlabeledRoom)
}

func TestRestageTaskFailed(t *testing.T) {
	adapter := &fakeAdapter{
		name:       "kie",
		submission: &provider.Submission{TaskID: "task-1"},
		statuses:   []*domain.TaskStatus{{State: domain.TaskFailed, FailureReason: "flagged"}},
	}

	uc := newTestUsecase(adapter, &fakePublisher{})
	_, err := uc.Restage(context.Background(), validRequest())

	var failedErr *poller.TaskFailedError
	require.ErrorAs(t, err, &failedErr)
	assert.Equal(t, "flagged", failedErr.Reason)
}

func TestRestageBatchIndependence(t *testing.T) {
	adapter := &fakeAdapter{
		name:       "gemini",
		submission: &provider.Submission{Images: []string{"data:image/png;base64,QUJD"}},
	}
	uc := newTestUsecase(adapter, &fakePublisher{})

	reqs := []*domain.RestageRequest{
		validRequest(),
		{RoomType: domain.RoomBedroom, Options: domain.RestageOptions{TransformationMode: domain.ModeFurnish}}, // no image
		validRequest(),
	}

	results := uc.RestageBatch(context.Background(), reqs)
	require.Len(t, results, 3)

	assert.Equal(t, domain.ItemDone, results[0].Status)
	assert.Equal(t, domain.ItemError, results[1].Status)
	assert.NotEmpty(t, results[1].Message)
	assert.Equal(t, domain.ItemDone, results[2].Status)
}

func TestRestageBatchUnlabeledOtherRoomGate(t *testing.T) {
	adapter := &fakeAdapter{
		name:       "gemini",
		submission: &provider.Submission{Images: []string{"data:image/png;base64,QUJD"}},
	}
	uc := newTestUsecase(adapter, &fakePublisher{})

	blocked := validRequest()
	blocked.RoomType = domain.RoomOther
	blocked.CustomRoomLabel = ""

	labeled := validRequest()
	labeled.RoomType = domain.RoomOther
	labeled.CustomRoomLabel = "wine cellar"

	results := uc.RestageBatch(context.Background(), []*domain.RestageRequest{blocked, labeled})
	require.Len(t, results, 2)

	assert.Equal(t, domain.ItemError, results[0].Status)
	assert.Equal(t, domain.ItemDone, results[1].Status)
}

func TestRestageBatchStopsOnCancelledContext(t *testing.T) {
	adapter := &fakeAdapter{
		name:       "gemini",
		submission: &provider.Submission{Images: []string{"data:image/png;base64,QUJD"}},
	}
	uc := newTestUsecase(adapter, &fakePublisher{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results := uc.RestageBatch(ctx, []*domain.RestageRequest{validRequest(), validRequest()})
	require.Len(t, results, 2)
	assert.Equal(t, domain.ItemIdle, results[0].Status)
	assert.Equal(t, domain.ItemIdle, results[1].Status)
	assert.Empty(t, adapter.submitCalls)
}
