package server

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cwbudde/bitsearch/internal/store"
)

func newTestServer(t *testing.T) (*Server, *httptest.Server) {
	t.Helper()

	dataDir := t.TempDir()
	fs, err := store.NewFSStore(dataDir)
	require.NoError(t, err)

	s := NewServer(":0", fs, dataDir)
	s.jobManager.progressInterval = 10 * time.Millisecond

	ts := httptest.NewServer(s.Handler())
	t.Cleanup(func() {
		ts.Close()
		s.cancelJobs()
	})
	return s, ts
}

// waitForDone polls until the job reaches a final state
func waitForDone(t *testing.T, s *Server, jobID string) *Job {
	t.Helper()

	deadline := time.Now().Add(10 * time.Second)
	for time.Now().Before(deadline) {
		job, ok := s.jobManager.GetJob(jobID)
		require.True(t, ok)
		if job.State.Done() {
			return job
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("job %s did not finish", jobID)
	return nil
}

func postJob(t *testing.T, ts *httptest.Server, body string) (*http.Response, Job) {
	t.Helper()

	resp, err := http.Post(ts.URL+"/api/v1/jobs", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()

	var job Job
	if resp.StatusCode == http.StatusCreated {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&job))
	}
	return resp, job
}

func TestServer_CreateJob(t *testing.T) {
	s, ts := newTestServer(t)

	resp, job := postJob(t, ts, `{"problem":"onemax","length":10,"trials":2,"populationSize":20,"generations":10}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	assert.NotEmpty(t, job.ID)
	assert.Contains(t, []JobState{StatePending, StateRunning}, job.State)
	assert.Equal(t, 10, job.Config.Length)
	assert.Equal(t, 0.8, job.Config.CrossoverRate, "omitted fields keep their defaults")

	done := waitForDone(t, s, job.ID)
	assert.Equal(t, StateCompleted, done.State)
}

func TestServer_CreateJob_Validation(t *testing.T) {
	_, ts := newTestServer(t)

	tests := []struct {
		name string
		body string
	}{
		{"malformed json", `{"problem":`},
		{"unknown problem", `{"problem":"tsp"}`},
		{"unknown algorithm", `{"algorithms":["ga","anneal"]}`},
		{"tournament above population", `{"populationSize":4,"tournamentSize":5}`},
		{"crossover rate", `{"crossoverRate":2}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, _ := postJob(t, ts, tt.body)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		})
	}
}

func TestServer_ListJobs(t *testing.T) {
	s, ts := newTestServer(t)

	s.jobManager.CreateJob(testJobConfig())
	s.jobManager.CreateJob(testJobConfig())

	resp, err := http.Get(ts.URL + "/api/v1/jobs")
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	var jobs []Job
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&jobs))
	assert.Len(t, jobs, 2)
}

func TestServer_MethodNotAllowed(t *testing.T) {
	_, ts := newTestServer(t)

	req, _ := http.NewRequest(http.MethodDelete, ts.URL+"/api/v1/jobs", nil)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestServer_GetJobStatus(t *testing.T) {
	s, ts := newTestServer(t)
	job := s.jobManager.CreateJob(testJobConfig())

	for _, path := range []string{"/api/v1/jobs/" + job.ID, "/api/v1/jobs/" + job.ID + "/status"} {
		resp, err := http.Get(ts.URL + path)
		require.NoError(t, err)

		var status map[string]interface{}
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&status))
		resp.Body.Close()

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, job.ID, status["id"])
		assert.Equal(t, string(StatePending), status["state"])
	}
}

func TestServer_GetJobStatus_NotFound(t *testing.T) {
	_, ts := newTestServer(t)

	for _, path := range []string{"/api/v1/jobs/nonexistent", "/api/v1/jobs/nonexistent/stream", "/api/v1/jobs/nonexistent/cancel", "/api/v1/jobs/x/unknown"} {
		var resp *http.Response
		var err error
		if strings.HasSuffix(path, "/cancel") {
			resp, err = http.Post(ts.URL+path, "application/json", nil)
		} else {
			resp, err = http.Get(ts.URL + path)
		}
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusNotFound, resp.StatusCode, path)
	}

	resp, err := http.Get(ts.URL + "/api/v1/jobs/")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestServer_Report(t *testing.T) {
	s, ts := newTestServer(t)

	pending := s.jobManager.CreateJob(testJobConfig())
	resp, err := http.Get(ts.URL + "/api/v1/jobs/" + pending.ID + "/report")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	job := s.StartJob(testJobConfig())
	waitForDone(t, s, job.ID)

	resp, err = http.Get(ts.URL + "/api/v1/jobs/" + job.ID + "/report")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "=== onemax (length 10) ===")
	assert.Contains(t, string(body), "Observation:")
}

func TestServer_ReportFromStore(t *testing.T) {
	s, ts := newTestServer(t)

	rec := store.NewRunRecord("stored-run", testJobConfig(), nil, []store.AlgorithmSummary{
		{Algorithm: "ga", Trials: 2}, {Algorithm: "beam", Trials: 2},
	}, "stored report")
	require.NoError(t, s.runStore.SaveRun(rec))

	resp, err := http.Get(ts.URL + "/api/v1/jobs/stored-run/report")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "stored report", string(body))
}

func TestServer_CancelJob(t *testing.T) {
	s, ts := newTestServer(t)

	cfg := testJobConfig()
	cfg.Trials = 1000
	cfg.Generations = 200
	job := s.StartJob(cfg)

	resp, err := http.Post(ts.URL+"/api/v1/jobs/"+job.ID+"/cancel", "application/json", nil)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)

	done := waitForDone(t, s, job.ID)
	assert.Equal(t, StateCancelled, done.State)

	resp, err = http.Post(ts.URL+"/api/v1/jobs/"+job.ID+"/cancel", "application/json", nil)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestServer_ShutdownWaitsForJobs(t *testing.T) {
	s, _ := newTestServer(t)

	cfg := testJobConfig()
	cfg.Trials = 1000
	cfg.Generations = 200
	job := s.StartJob(cfg)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	require.NoError(t, s.Shutdown(ctx))

	done, ok := s.jobManager.GetJob(job.ID)
	require.True(t, ok)
	assert.Equal(t, StateCancelled, done.State)
}

func TestServer_JobStream_SSE(t *testing.T) {
	s, ts := newTestServer(t)

	job := s.StartJob(testJobConfig())

	resp, err := http.Get(ts.URL + "/api/v1/jobs/" + job.ID + "/stream")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	// the stream closes after the final event
	var events []ProgressEvent
	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() {
		line := scanner.Bytes()
		if !bytes.HasPrefix(line, []byte("data: ")) {
			continue
		}
		var ev ProgressEvent
		require.NoError(t, json.Unmarshal(bytes.TrimPrefix(line, []byte("data: ")), &ev))
		events = append(events, ev)
	}

	require.NotEmpty(t, events)
	last := events[len(events)-1]
	assert.Equal(t, StateCompleted, last.State)
	assert.Equal(t, job.ID, last.JobID)
}

func TestServer_Metrics(t *testing.T) {
	s, ts := newTestServer(t)

	job := s.StartJob(testJobConfig())
	waitForDone(t, s, job.ID)

	resp, err := http.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "bitsearch_jobs_total")
	assert.Contains(t, string(body), "bitsearch_evaluations_total")
}

func TestServer_CORSPreflight(t *testing.T) {
	_, ts := newTestServer(t)

	req, _ := http.NewRequest(http.MethodOptions, ts.URL+"/api/v1/jobs", nil)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestEventBroadcaster(t *testing.T) {
	eb := NewEventBroadcaster()

	ch := eb.Subscribe("job1")
	defer eb.Unsubscribe("job1", ch)

	eb.Broadcast(ProgressEvent{
		JobID:      "job1",
		State:      StateRunning,
		Algorithm:  "ga",
		Generation: 10,
		Best:       17,
		Timestamp:  time.Now(),
	})

	select {
	case received := <-ch:
		assert.Equal(t, uint64(1), received.Seq)
		assert.Equal(t, "job1", received.JobID)
		assert.Equal(t, 10, received.Generation)
		assert.Equal(t, 17.0, received.Best)
	case <-time.After(time.Second):
		t.Fatal("Timeout waiting for event")
	}

	// late subscribers get the last event
	late := eb.Subscribe("job1")
	defer eb.Unsubscribe("job1", late)
	select {
	case received := <-late:
		assert.Equal(t, 10, received.Generation)
	case <-time.After(time.Second):
		t.Fatal("Late subscriber did not get the last event")
	}
}

func TestEventBroadcaster_LaggingClientKeepsFinalEvent(t *testing.T) {
	eb := NewEventBroadcaster()
	ch := eb.Subscribe("job1")
	defer eb.Unsubscribe("job1", ch)

	for g := 1; g <= subscriberBuffer+5; g++ {
		eb.Broadcast(ProgressEvent{JobID: "job1", State: StateRunning, Generation: g})
	}
	eb.Broadcast(ProgressEvent{JobID: "job1", State: StateCompleted})

	var got []ProgressEvent
	for len(ch) > 0 {
		got = append(got, <-ch)
	}
	require.Len(t, got, subscriberBuffer)
	assert.Equal(t, StateCompleted, got[len(got)-1].State)
	assert.Equal(t, uint64(subscriberBuffer+6), got[len(got)-1].Seq)
	for i := 1; i < len(got); i++ {
		assert.Greater(t, got[i].Seq, got[i-1].Seq)
	}
}

func TestEventBroadcaster_FinalEventReleasesJob(t *testing.T) {
	eb := NewEventBroadcaster()

	eb.Broadcast(ProgressEvent{JobID: "job1", State: StateRunning, Generation: 3})
	eb.Broadcast(ProgressEvent{JobID: "job1", State: StateFailed})

	ch := eb.Subscribe("job1")
	assert.Zero(t, len(ch), "no replay after the final event")

	eb.Unsubscribe("job1", ch)
	eb.Unsubscribe("job1", ch)
	_, open := <-ch
	assert.False(t, open)
}

func TestWriteSSEEvent(t *testing.T) {
	rec := httptest.NewRecorder()
	require.NoError(t, writeSSEEvent(rec, ProgressEvent{Seq: 7, JobID: "j", State: StateCompleted}))

	body := rec.Body.String()
	assert.True(t, strings.HasPrefix(body, "id: 7\nevent: done\ndata: {"), body)
	assert.True(t, strings.HasSuffix(body, "}\n\n"))

	rec = httptest.NewRecorder()
	require.NoError(t, writeSSEEvent(rec, ProgressEvent{JobID: "j", State: StateRunning}))
	assert.True(t, strings.HasPrefix(rec.Body.String(), "event: progress\n"))
}
