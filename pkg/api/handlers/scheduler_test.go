package handlers

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fiddyhq/autopublisher/pkg/scheduler"
)

func TestSchedulerTrigger_NoScheduler(t *testing.T) {
	h := NewSchedulerHandler(nil)

	c, rec := newAuthedRequest(http.MethodPost, "/api/v1/admin/scheduler/trigger", nil, int64(1))
	require.NoError(t, h.Trigger(c))
	requireStatus(t, rec, http.StatusConflict)
}

func TestSchedulerTrigger_NothingDue(t *testing.T) {
	st := newTestStore(t)
	sched := scheduler.New(st, scheduler.Deps{}, scheduler.Config{}, nil)
	h := NewSchedulerHandler(sched)

	c, rec := newAuthedRequest(http.MethodPost, "/api/v1/admin/scheduler/trigger", nil, int64(1))
	require.NoError(t, h.Trigger(c))
	requireStatus(t, rec, http.StatusOK)

	var result scheduler.TriggerResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, 0, result.Processed)
	assert.Equal(t, 0, result.Published)
	assert.Equal(t, 0, result.Failed)
}

func TestSchedulerStatus_NotRunning(t *testing.T) {
	st := newTestStore(t)
	sched := scheduler.New(st, scheduler.Deps{}, scheduler.Config{}, nil)
	h := NewSchedulerHandler(sched)

	c, rec := newAuthedRequest(http.MethodGet, "/api/v1/admin/scheduler/status", nil, int64(1))
	require.NoError(t, h.Status(c))
	requireStatus(t, rec, http.StatusOK)

	var status scheduler.Status
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.False(t, status.Running)
}

func TestSchedulerStatus_NoScheduler(t *testing.T) {
	h := NewSchedulerHandler(nil)

	c, rec := newAuthedRequest(http.MethodGet, "/api/v1/admin/scheduler/status", nil, int64(1))
	require.NoError(t, h.Status(c))
	requireStatus(t, rec, http.StatusOK)

	var status scheduler.Status
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.False(t, status.Running)
}
