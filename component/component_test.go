package component

import (
	"context"
	"errors"
	"slices"
	"strings"
	"testing"
)

// journal records lifecycle calls across fakes.
type journal []string

type fake struct {
	name   string
	failOn string // "start" or "stop"
	health Health
	calls  *journal
}

func (f *fake) Name() string { return f.name }

func (f *fake) Start(context.Context) error { return f.call("start") }

func (f *fake) Stop(context.Context) error { return f.call("stop") }

func (f *fake) Health(context.Context) Health { return f.health }

func (f *fake) call(op string) error {
	if f.calls != nil {
		*f.calls = append(*f.calls, op+" "+f.name)
	}
	if f.failOn == op {
		return errors.New(f.name + " " + op + " broke")
	}
	return nil
}

func registryOf(t *testing.T, calls *journal, fakes ...*fake) *Registry {
	t.Helper()
	r := NewRegistry()
	for _, f := range fakes {
		f.calls = calls
		if err := r.Register(f); err != nil {
			t.Fatalf("register %s: %v", f.name, err)
		}
	}
	return r
}

func TestRegistryRejectsDuplicateNames(t *testing.T) {
	r := registryOf(t, nil, &fake{name: "models"})
	if err := r.Register(&fake{name: "models"}); err == nil {
		t.Fatal("duplicate name accepted")
	}
	if got := r.Get("models"); got == nil || got.Name() != "models" {
		t.Errorf("Get(models) = %v", got)
	}
	if r.Get("gate") != nil {
		t.Error("Get of an unknown name should be nil")
	}
}

func TestRegistryLifecycleOrder(t *testing.T) {
	var calls journal
	r := registryOf(t, &calls, &fake{name: "telemetry"}, &fake{name: "models"}, &fake{name: "http-server"})
	ctx := context.Background()

	if err := r.StartAll(ctx); err != nil {
		t.Fatal(err)
	}
	if err := r.StopAll(ctx); err != nil {
		t.Fatal(err)
	}
	want := journal{
		"start telemetry", "start models", "start http-server",
		"stop http-server", "stop models", "stop telemetry",
	}
	if !slices.Equal(calls, want) {
		t.Errorf("calls = %v\nwant %v", calls, want)
	}

	calls = nil
	if err := r.StopAll(ctx); err != nil || len(calls) != 0 {
		t.Errorf("second StopAll: err=%v calls=%v", err, calls)
	}
}

func TestRegistryStartFailure(t *testing.T) {
	var calls journal
	models := &fake{name: "models", failOn: "start"}
	r := registryOf(t, &calls, &fake{name: "telemetry"}, models, &fake{name: "http-server"})
	ctx := context.Background()

	err := r.StartAll(ctx)
	if err == nil || !strings.Contains(err.Error(), "failed to start models") {
		t.Fatalf("StartAll error = %v", err)
	}
	if err := r.StopAll(ctx); err != nil {
		t.Fatal(err)
	}
	want := journal{"start telemetry", "start models", "stop telemetry"}
	if !slices.Equal(calls, want) {
		t.Errorf("calls = %v, want %v", calls, want)
	}
}

func TestRegistryStartResumes(t *testing.T) {
	var calls journal
	models := &fake{name: "models", failOn: "start"}
	r := registryOf(t, &calls, &fake{name: "telemetry"}, models)
	ctx := context.Background()

	_ = r.StartAll(ctx)
	models.failOn = ""
	calls = nil
	if err := r.StartAll(ctx); err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(calls, journal{"start models"}) {
		t.Errorf("retry restarted too much: %v", calls)
	}
}

func TestRegistryStopJoinsErrors(t *testing.T) {
	r := registryOf(t, nil,
		&fake{name: "models", failOn: "stop"},
		&fake{name: "http-server", failOn: "stop"},
	)
	ctx := context.Background()
	_ = r.StartAll(ctx)

	err := r.StopAll(ctx)
	if err == nil {
		t.Fatal("expected stop errors")
	}
	for _, want := range []string{"models stop broke", "http-server stop broke"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q lacks %q", err, want)
		}
	}
}

func TestHealthAllKeepsRegistrationOrder(t *testing.T) {
	r := registryOf(t, nil,
		&fake{name: "models", health: Health{Name: "models", Status: StatusDegraded, Message: "alignment unavailable"}},
		&fake{name: "http-server", health: Health{Name: "http-server", Status: StatusHealthy}},
	)
	got := r.HealthAll(context.Background())
	if len(got) != 2 || got[0].Name != "models" || got[1].Status != StatusHealthy {
		t.Errorf("HealthAll = %+v", got)
	}
	if Overall(got) != StatusDegraded {
		t.Errorf("Overall = %s", Overall(got))
	}
}

func TestOverall(t *testing.T) {
	tests := map[string]struct {
		in   []HealthStatus
		want HealthStatus
	}{
		"empty":          {nil, StatusHealthy},
		"all healthy":    {[]HealthStatus{StatusHealthy, StatusHealthy}, StatusHealthy},
		"one degraded":   {[]HealthStatus{StatusHealthy, StatusDegraded}, StatusDegraded},
		"unhealthy wins": {[]HealthStatus{StatusDegraded, StatusUnhealthy, StatusHealthy}, StatusUnhealthy},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			healths := make([]Health, len(tc.in))
			for i, s := range tc.in {
				healths[i] = Health{Status: s}
			}
			if got := Overall(healths); got != tc.want {
				t.Errorf("Overall = %s, want %s", got, tc.want)
			}
		})
	}
}
