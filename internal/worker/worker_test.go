package worker

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"

	"catalogsync/internal/events"
	"catalogsync/internal/importer"
	"catalogsync/internal/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRunner struct {
	calls []importer.Stage
	trig  []string
	err   error
}

func (r *fakeRunner) RunStage(ctx context.Context, trigger string, stage importer.Stage) (*importer.RunResult, error) {
	r.calls = append(r.calls, stage)
	r.trig = append(r.trig, trigger)
	if r.err != nil {
		return &importer.RunResult{Stage: stage, Err: r.err}, r.err
	}
	return &importer.RunResult{RunID: "run-1", Stage: stage}, nil
}

func newTestWorker(runner Runner) *Worker {
	return &Worker{logger: logger.NewWithWriter("error", io.Discard), runner: runner}
}

func encode(t *testing.T, e events.Event) []byte {
	t.Helper()
	data, err := json.Marshal(e)
	require.NoError(t, err)
	return data
}

func TestHandleMessage_RunsRequestedStage(t *testing.T) {
	runner := &fakeRunner{}
	w := newTestWorker(runner)

	err := w.HandleMessage(context.Background(), nil, encode(t, events.NewSyncRequested("cron", importer.StageProducts)))

	require.NoError(t, err)
	assert.Equal(t, []importer.Stage{importer.StageProducts}, runner.calls)
	assert.Equal(t, []string{"kafka:cron"}, runner.trig)
}

func TestHandleMessage_EmptyStageMeansAll(t *testing.T) {
	runner := &fakeRunner{}
	w := newTestWorker(runner)

	err := w.HandleMessage(context.Background(), nil, []byte(`{"id":"e1","type":"sync.requested"}`))

	require.NoError(t, err)
	assert.Equal(t, []importer.Stage{importer.StageAll}, runner.calls)
	assert.Equal(t, []string{"kafka"}, runner.trig)
}

func TestHandleMessage_IgnoresOtherEvents(t *testing.T) {
	runner := &fakeRunner{}
	w := newTestWorker(runner)

	err := w.HandleMessage(context.Background(), nil, []byte(`{"id":"e1","type":"sync.completed"}`))

	require.NoError(t, err)
	assert.Empty(t, runner.calls)
}

func TestHandleMessage_Errors(t *testing.T) {
	w := newTestWorker(&fakeRunner{})
	assert.Error(t, w.HandleMessage(context.Background(), nil, []byte("{not json")))
	assert.Error(t, w.HandleMessage(context.Background(), nil, []byte(`{"type":"sync.requested","stage":"orders"}`)))

	failing := newTestWorker(&fakeRunner{err: &importer.StageError{Stage: importer.StageBrands, Err: errors.New("down")}})
	assert.Error(t, failing.HandleMessage(context.Background(), nil, []byte(`{"type":"sync.requested"}`)))
}

func TestHandleMessage_RunInProgressIsDropped(t *testing.T) {
	w := newTestWorker(&fakeRunner{err: importer.ErrRunInProgress})

	err := w.HandleMessage(context.Background(), nil, []byte(`{"type":"sync.requested"}`))

	assert.NoError(t, err)
}
