package server

import (
	"bufio"
	"context"
	"errors"
	"time"

	"github.com/goccy/go-json"
	"github.com/gotidy/ptr"
	geojson "github.com/paulmach/go.geojson"
	"github.com/rs/zerolog"
	"github.com/valyala/fasthttp"

	"github.com/tgergo1/superblocker/network"
	"github.com/tgergo1/superblocker/pipeline"
	"github.com/tgergo1/superblocker/plan"
	"github.com/tgergo1/superblocker/route"
)

// Version reported by the info endpoint.
const Version = "0.1.0"

// DefaultFetchTimeout bounds one upstream street-network fetch.
const DefaultFetchTimeout = 180 * time.Second

// Config tunes the HTTP surface.
type Config struct {
	FetchTimeout time.Duration
}

// Server routes planner requests. Construct with New; the zero value is
// not usable.
type Server struct {
	source  NetworkSource
	cache   *pipeline.Cache
	log     zerolog.Logger
	timeout time.Duration
}

// New wires the handler stack around a network source.
func New(source NetworkSource, logger zerolog.Logger, cfg Config) *Server {
	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = DefaultFetchTimeout
	}

	return &Server{
		source:  source,
		cache:   pipeline.NewCache(),
		log:     logger,
		timeout: cfg.FetchTimeout,
	}
}

// Handler is the fasthttp entry point.
func (s *Server) Handler(ctx *fasthttp.RequestCtx) {
	ctx.Response.Header.Set("Access-Control-Allow-Origin", "*")
	ctx.Response.Header.Set("Access-Control-Allow-Headers", "Content-Type")
	ctx.Response.Header.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
	if string(ctx.Method()) == fasthttp.MethodOptions {
		ctx.SetStatusCode(fasthttp.StatusNoContent)

		return
	}

	switch string(ctx.Path()) {
	case "/":
		s.writeJSON(ctx, fasthttp.StatusOK, map[string]string{
			"name":    "superblocker",
			"version": Version,
		})
	case "/health":
		s.writeJSON(ctx, fasthttp.StatusOK, map[string]string{"status": "healthy"})
	case "/partition":
		s.handlePartition(ctx)
	case "/partition/stream":
		s.handlePartitionStream(ctx)
	case "/route":
		s.handleRoute(ctx)
	default:
		s.writeError(ctx, fasthttp.StatusNotFound, "not found")
	}
}

// partitionResponse is the 200 body of POST /partition.
type partitionResponse struct {
	Partition             *plan.Partition            `json:"partition"`
	StreetNetwork         *geojson.FeatureCollection `json:"street_network"`
	ProcessingTimeSeconds float64                    `json:"processing_time_seconds"`
}

func (s *Server) handlePartition(ctx *fasthttp.RequestCtx) {
	req, err := s.parsePartitionRequest(ctx)
	if err != nil {
		s.writeError(ctx, fasthttp.StatusBadRequest, err.Error())

		return
	}

	started := time.Now()
	result, g, err := s.runPartition(req, nil)
	if err != nil {
		s.writeMappedError(ctx, err)

		return
	}

	s.writeJSON(ctx, fasthttp.StatusOK, partitionResponse{
		Partition:             result,
		StreetNetwork:         plan.NetworkFeatureCollection(g),
		ProcessingTimeSeconds: time.Since(started).Seconds(),
	})
}

// handlePartitionStream emits `data: <json>\n\n` progress records and a
// terminal complete or error record.
func (s *Server) handlePartitionStream(ctx *fasthttp.RequestCtx) {
	req, err := s.parsePartitionRequest(ctx)
	if err != nil {
		s.writeError(ctx, fasthttp.StatusBadRequest, err.Error())

		return
	}

	ctx.SetContentType("text/event-stream")
	ctx.Response.Header.Set("Cache-Control", "no-cache")
	ctx.SetBodyStreamWriter(func(w *bufio.Writer) {
		queue := pipeline.NewProgressQueue(pipeline.DefaultQueueCapacity, pipeline.DefaultHeartbeatInterval)

		type outcome struct {
			partition *plan.Partition
			graph     *network.Graph
			err       error
		}
		started := time.Now()
		done := make(chan outcome, 1)
		go func() {
			p, g, runErr := s.runPartition(req, queue.Put)
			done <- outcome{partition: p, graph: g, err: runErr}
			queue.Close()
		}()

		for p := range queue.Events() {
			writeSSE(w, p)
		}
		out := <-done
		if out.err != nil {
			writeSSE(w, plan.Progress{Type: plan.ProgressTypeError, Message: out.err.Error()})

			return
		}
		writeSSE(w, streamComplete{
			Type:                  plan.ProgressTypeComplete,
			Partition:             out.partition,
			StreetNetwork:         plan.NetworkFeatureCollection(out.graph),
			ProcessingTimeSeconds: time.Since(started).Seconds(),
		})
	})
}

// streamComplete is the terminal record of the progress stream.
type streamComplete struct {
	Type                  string                     `json:"type"`
	Partition             *plan.Partition            `json:"partition"`
	StreetNetwork         *geojson.FeatureCollection `json:"street_network"`
	ProcessingTimeSeconds float64                    `json:"processing_time_seconds"`
}

func (s *Server) handleRoute(ctx *fasthttp.RequestCtx) {
	var req plan.RouteRequest
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil {
		s.writeError(ctx, fasthttp.StatusBadRequest, "malformed route request: "+err.Error())

		return
	}

	entry, ok := s.cache.Latest()
	if !ok || entry.Router == nil {
		s.writeJSON(ctx, fasthttp.StatusOK, plan.RouteResult{
			Success:       false,
			BlockedReason: ptr.String("no partition available; run /partition first"),
		})

		return
	}

	s.writeJSON(ctx, fasthttp.StatusOK, entry.Router.Route(req))
}

// parsePartitionRequest decodes and validates the request body.
func (s *Server) parsePartitionRequest(ctx *fasthttp.RequestCtx) (plan.PartitionRequest, error) {
	var req plan.PartitionRequest
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil {
		return req, errors.New("malformed partition request: " + err.Error())
	}
	if err := req.BBox.Validate(); err != nil {
		return req, err
	}
	if req.NumSectors != 0 &&
		(req.NumSectors < 3 || req.NumSectors > 8) {
		return req, errors.New("num_sectors must be in [3, 8]")
	}

	return req, nil
}

// runPartition fetches the network and drives the pipeline, caching the
// result for the router.
func (s *Server) runPartition(req plan.PartitionRequest, progress func(plan.Progress)) (*plan.Partition, *network.Graph, error) {
	fetchCtx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	g, err := s.source.StreetNetwork(fetchCtx, req.BBox)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			err = plan.ErrTimeout
		}

		return nil, nil, err
	}

	opts := pipeline.DefaultOptions()
	opts.Logger = s.log
	opts.Progress = progress
	opts.EnforceConstraints = req.EnforceConstraints
	if req.TargetSizeHectares > 0 {
		opts.TargetHectares = req.TargetSizeHectares
	}
	if req.MinAreaHectares > 0 {
		opts.MinHectares = req.MinAreaHectares
	}
	if req.MaxAreaHectares > 0 {
		opts.MaxHectares = req.MaxAreaHectares
	}
	if req.NumSectors != 0 {
		opts.NumSectors = req.NumSectors
	}

	partition, err := pipeline.Run(g, req.BBox, opts)
	if err != nil {
		return nil, nil, err
	}

	s.cache.Put(req.BBox.CanonicalKey(), &pipeline.CacheEntry{
		Partition: partition,
		Graph:     g,
		Router:    route.NewRouter(g, partition),
	})

	return partition, g, nil
}

// writeMappedError converts plan error kinds into HTTP statuses.
func (s *Server) writeMappedError(ctx *fasthttp.RequestCtx, err error) {
	status := fasthttp.StatusInternalServerError
	switch {
	case errors.Is(err, plan.ErrInvalidBoundingBox):
		status = fasthttp.StatusBadRequest
	case errors.Is(err, plan.ErrUpstreamUnavailable):
		status = fasthttp.StatusBadGateway
	case errors.Is(err, plan.ErrTimeout):
		status = fasthttp.StatusGatewayTimeout
	}
	s.log.Error().Err(err).Int("status", status).Msg("request failed")
	s.writeError(ctx, status, err.Error())
}

func (s *Server) writeJSON(ctx *fasthttp.RequestCtx, status int, body interface{}) {
	raw, err := json.Marshal(body)
	if err != nil {
		s.writeError(ctx, fasthttp.StatusInternalServerError, "encoding failure: "+err.Error())

		return
	}
	ctx.SetStatusCode(status)
	ctx.SetContentType("application/json")
	ctx.SetBody(raw)
}

func (s *Server) writeError(ctx *fasthttp.RequestCtx, status int, msg string) {
	ctx.SetStatusCode(status)
	ctx.SetContentType("application/json")
	raw, _ := json.Marshal(map[string]string{"detail": msg})
	ctx.SetBody(raw)
}

func writeSSE(w *bufio.Writer, record interface{}) {
	raw, err := json.Marshal(record)
	if err != nil {
		return
	}
	_, _ = w.WriteString("data: ")
	_, _ = w.Write(raw)
	_, _ = w.WriteString("\n\n")
	_ = w.Flush()
}
