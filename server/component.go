package server

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"
	"sync/atomic"

	"github.com/gin-gonic/gin"

	"github.com/jbousquie/whisperx-api/component"
	"github.com/jbousquie/whisperx-api/util"
)

const componentName = "http-server"

var (
	_ component.Component     = (*Component)(nil)
	_ component.Describable   = (*Component)(nil)
	_ component.RouteProvider = (*Component)(nil)
)

// Component registers a Server with the component registry. It is
// healthy while the listener is up.
type Component struct {
	server  *Server
	running atomic.Bool
}

func NewComponent(s *Server) *Component {
	return &Component{server: s}
}

func (sc *Component) Name() string { return componentName }

func (sc *Component) Start(ctx context.Context) error {
	err := sc.server.Start(ctx)
	sc.running.Store(err == nil)
	return err
}

func (sc *Component) Stop(ctx context.Context) error {
	sc.running.Store(false)
	return sc.server.Stop(ctx)
}

func (sc *Component) Health(context.Context) component.Health {
	h := component.Health{Name: componentName, Status: component.StatusHealthy}
	if !sc.running.Load() {
		h.Status, h.Message = component.StatusUnhealthy, "HTTP server not running"
	}
	return h
}

func (sc *Component) Describe() component.Description {
	cfg := sc.server.config
	return component.Description{
		Name:    "HTTP Server",
		Type:    "server",
		Details: fmt.Sprintf("%s:%d max_body=%s", cfg.Host, cfg.Port, util.FormatSize(cfg.MaxBodyBytes())),
		Port:    cfg.Port,
	}
}

// Routes lists the API routes by path, then the probe endpoints.
func (sc *Component) Routes() []component.Route {
	infos := slices.Clone(sc.server.engine.Routes())
	slices.SortStableFunc(infos, func(a, b gin.RouteInfo) int {
		return cmp.Or(
			cmp.Compare(probeRank(a.Path), probeRank(b.Path)),
			strings.Compare(a.Path, b.Path),
			cmp.Compare(methodRank(a.Method), methodRank(b.Method)),
		)
	})

	routes := make([]component.Route, len(infos))
	for i, r := range infos {
		routes[i] = component.Route{Method: r.Method, Path: r.Path, Handler: formatHandlerName(r.Handler)}
	}
	return routes
}

func probeRank(path string) int {
	switch path {
	case "/alive", "/ready", "/version":
		return 1
	}
	return 0
}

func methodRank(method string) int {
	return cmp.Or(slices.Index([]string{"GET", "POST"}, method)+1, 3)
}

// formatHandlerName shortens gin's handler names for the summary:
//
//	.../api.(*Handler).Transcribe-fm  -> Handler.Transcribe
//	.../endpoint.Readiness.func1      -> readiness
func formatHandlerName(full string) string {
	name := full[strings.LastIndex(full, "/")+1:]
	name = strings.TrimSuffix(name, "-fm")
	name = strings.NewReplacer("(*", "", ")", "").Replace(name)

	parts := strings.Split(name, ".")
	if len(parts) > 1 {
		parts = parts[1:]
	}
	if !slices.ContainsFunc(parts, isClosure) {
		return strings.Join(parts, ".")
	}
	for _, p := range slices.Backward(parts) {
		if !isClosure(p) {
			return strings.ToLower(p)
		}
	}
	return name
}

func isClosure(part string) bool { return strings.HasPrefix(part, "func") }
