package monitor

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/jbousquie/whisperx-api/accelerator"
	"github.com/jbousquie/whisperx-api/api"
)

type fakeHost struct {
	sys     SystemInfo
	sysErr  error
	procs   []ProcessInfo
	lastArg string
}

func (f *fakeHost) System(ctx context.Context) (SystemInfo, error) { return f.sys, f.sysErr }

func (f *fakeHost) Processes(ctx context.Context, match string) ([]ProcessInfo, error) {
	f.lastArg = match
	return f.procs, nil
}

type fakeProber struct {
	gpus []accelerator.GPU
	err  error
}

func (f fakeProber) GPUs(ctx context.Context) ([]accelerator.GPU, error) { return f.gpus, f.err }

func apiServer(t *testing.T, healthCode int) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(healthCode)
		status := "healthy"
		if healthCode != http.StatusOK {
			status = "unhealthy"
		}
		_, _ = w.Write([]byte(`{"status":"` + status + `","device":"cuda","models":{"transcription":true},"gate":{"acquired":3}}`))
	})
	mux.HandleFunc("/models/info", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"transcription_model":"large-v3","supported_formats":["wav"],"max_file_size_mb":500,"version":"1.2.0"}`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestConfigDefaults(t *testing.T) {
	var cfg Config
	cfg.ApplyDefaults()
	if cfg.BaseURL != "http://localhost:8000" {
		t.Errorf("unexpected base URL %q", cfg.BaseURL)
	}
	if cfg.Interval != 5*time.Second || cfg.RequestTimeout != 5*time.Second {
		t.Errorf("unexpected durations %v %v", cfg.Interval, cfg.RequestTimeout)
	}
	if cfg.ProcessMatch != "whisperx-api" {
		t.Errorf("unexpected match %q", cfg.ProcessMatch)
	}

	cfg = Config{Port: 9001}
	cfg.ApplyDefaults()
	if cfg.BaseURL != "http://localhost:9001" {
		t.Errorf("port not applied: %q", cfg.BaseURL)
	}
}

func TestCollect(t *testing.T) {
	srv := apiServer(t, http.StatusOK)
	host := &fakeHost{
		sys:   SystemInfo{Hostname: "gpu-01", CPUCores: 8, MemoryTotalGB: 64},
		procs: []ProcessInfo{{PID: 42, User: "svc", UptimeSeconds: 3725}},
	}
	gpus := fakeProber{gpus: []accelerator.GPU{{Name: "Tesla T4", MemoryTotalMB: 15360, MemoryUsedMB: 1536}}}
	m := New(Config{BaseURL: srv.URL}, host, gpus)

	snap := m.Collect(context.Background())
	if snap.System.Hostname != "gpu-01" || len(snap.GPUs) != 1 || len(snap.Processes) != 1 {
		t.Fatalf("unexpected snapshot %+v", snap)
	}
	if host.lastArg != "whisperx-api" {
		t.Errorf("expected default process match, got %q", host.lastArg)
	}
	if snap.Health.State != APIOK || snap.Health.StatusCode != http.StatusOK {
		t.Errorf("unexpected health result %+v", snap.Health)
	}
	h, ok := snap.Health.Body.(*api.HealthResponse)
	if !ok || h.Device != "cuda" || !h.Models.TranscriptionReady || h.Gate.Acquired != 3 {
		t.Errorf("unexpected health body %#v", snap.Health.Body)
	}
	info, ok := snap.Models.Body.(*api.ModelsInfoResponse)
	if !ok || info.TranscriptionModel == nil || *info.TranscriptionModel != "large-v3" {
		t.Errorf("unexpected models body %#v", snap.Models.Body)
	}
	if len(snap.Errors) != 0 {
		t.Errorf("expected no errors, got %v", snap.Errors)
	}
}

func TestCollectRecordsFailures(t *testing.T) {
	srv := apiServer(t, http.StatusServiceUnavailable)
	host := &fakeHost{sysErr: errors.New("no /proc")}
	m := New(Config{BaseURL: srv.URL}, host, fakeProber{err: errors.New("nvidia-smi: not found")})

	snap := m.Collect(context.Background())
	if len(snap.Errors) != 1 || !strings.HasPrefix(snap.Errors[0], "system:") {
		t.Errorf("expected system error, got %v", snap.Errors)
	}
	if snap.GPUError == "" {
		t.Error("expected GPU error")
	}
	if snap.Health.State != APIError || snap.Health.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("unexpected health result %+v", snap.Health)
	}
	if h, ok := snap.Health.Body.(*api.HealthResponse); !ok || h.Status != "unhealthy" {
		t.Errorf("expected decoded 503 body, got %#v", snap.Health.Body)
	}
}

func TestClientUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	res := NewClient(url, time.Second).Health(context.Background())
	if res.State != APIUnreachable || res.Error == "" || res.Body != nil {
		t.Errorf("unexpected result %+v", res)
	}
}

func TestClientNonJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad gateway", http.StatusBadGateway)
	}))
	defer srv.Close()

	res := NewClient(srv.URL+"/", time.Second).ModelsInfo(context.Background())
	if res.State != APIError || res.StatusCode != http.StatusBadGateway || res.Body != nil {
		t.Errorf("unexpected result %+v", res)
	}
}

func TestRunOnce(t *testing.T) {
	srv := apiServer(t, http.StatusOK)
	m := New(Config{BaseURL: srv.URL}, &fakeHost{}, fakeProber{})

	calls := 0
	err := m.Run(context.Background(), false, func(iteration int, snap *Snapshot) error {
		calls++
		return nil
	})
	if err != nil || calls != 1 {
		t.Errorf("expected one emit, got %d (%v)", calls, err)
	}
}

func TestRunContinuousStopsOnCancel(t *testing.T) {
	srv := apiServer(t, http.StatusOK)
	m := New(Config{BaseURL: srv.URL, Interval: 5 * time.Millisecond}, &fakeHost{}, fakeProber{})

	ctx, cancel := context.WithCancel(context.Background())
	var iterations []int
	err := m.Run(ctx, true, func(iteration int, snap *Snapshot) error {
		iterations = append(iterations, iteration)
		if iteration == 3 {
			cancel()
		}
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(iterations) != 3 || iterations[2] != 3 {
		t.Errorf("unexpected iterations %v", iterations)
	}
}

func TestRunPropagatesEmitError(t *testing.T) {
	srv := apiServer(t, http.StatusOK)
	m := New(Config{BaseURL: srv.URL}, &fakeHost{}, fakeProber{})
	boom := errors.New("write failed")
	if err := m.Run(context.Background(), true, func(int, *Snapshot) error { return boom }); !errors.Is(err, boom) {
		t.Errorf("expected emit error, got %v", err)
	}
}

func TestFormatUptime(t *testing.T) {
	tests := []struct {
		seconds int64
		want    string
	}{
		{0, "0s"},
		{-5, "0s"},
		{59, "59s"},
		{61, "1m 1s"},
		{3725, "1h 2m 5s"},
		{90061, "1d 1h 1m 1s"},
	}
	for _, tt := range tests {
		if got := FormatUptime(tt.seconds); got != tt.want {
			t.Errorf("FormatUptime(%d) = %q, want %q", tt.seconds, got, tt.want)
		}
	}
}

func TestDashboardRender(t *testing.T) {
	srv := apiServer(t, http.StatusOK)
	host := &fakeHost{
		sys:   SystemInfo{Hostname: "gpu-01", OS: "linux"},
		procs: []ProcessInfo{{PID: 42, User: "svc", UptimeSeconds: 3725}},
	}
	m := New(Config{BaseURL: srv.URL}, host, fakeProber{gpus: []accelerator.GPU{{Name: "Tesla T4", MemoryTotalMB: 100, MemoryUsedMB: 25}}})
	snap := m.Collect(context.Background())

	var buf bytes.Buffer
	if err := (Dashboard{Clear: true, Interval: time.Second}).Render(&buf, 2, snap); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{clearScreen, "(#2)", "gpu-01", "Tesla T4", "25.0%", "healthy (HTTP 200) on cuda", "model=large-v3", "pid 42", "1h 2m 5s", "Ctrl+C"} {
		if !strings.Contains(out, want) {
			t.Errorf("dashboard missing %q:\n%s", want, out)
		}
	}
}

func TestDashboardUnreachable(t *testing.T) {
	snap := &Snapshot{
		Timestamp: time.Now(),
		Health:    APIResult{State: APIUnreachable, Error: "connection refused"},
		Models:    APIResult{State: APIUnreachable, Error: "connection refused"},
	}
	var buf bytes.Buffer
	if err := (Dashboard{}).Render(&buf, 1, snap); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	if !strings.Contains(out, "unreachable (connection refused)") || !strings.Contains(out, "no server process found") {
		t.Errorf("unexpected dashboard:\n%s", out)
	}
	if strings.Contains(out, clearScreen) {
		t.Error("did not expect clear-screen sequence")
	}
}

func TestWriteJSON(t *testing.T) {
	snap := &Snapshot{
		System:    SystemInfo{Hostname: "gpu-01"},
		Health:    APIResult{State: APIOK, StatusCode: 200},
		Processes: []ProcessInfo{{PID: 7}},
	}
	var buf bytes.Buffer
	if err := WriteJSON(&buf, snap); err != nil {
		t.Fatal(err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	for _, key := range []string{"system", "api_health", "processes", "gpus"} {
		if _, ok := decoded[key]; !ok {
			t.Errorf("missing key %q", key)
		}
	}
}
