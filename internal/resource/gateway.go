package resource

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

// Gateway translates commands into requests against one remote collection.
type Gateway[T Entity, D any] interface {
	Create(ctx context.Context, draft D) (T, error)
	Update(ctx context.Context, id int, draft D) (T, error)
	Delete(ctx context.Context, id int) (int, error)
	List(ctx context.Context) ([]T, error)
}

// maxErrorBody caps how much of a failed response is kept.
const maxErrorBody = 4 << 10

// HTTPGateway is a JSON REST Gateway. Commands go to baseURL and
// baseURL/{id}; List reads the list URL, which defaults to baseURL.
type HTTPGateway[T Entity, D any] struct {
	name    string
	baseURL string
	listURL string
	client  *http.Client
	headers http.Header
	tracer  trace.Tracer
	logger  *slog.Logger
}

// NewHTTPGateway creates a gateway for the collection at baseURL.
func NewHTTPGateway[T Entity, D any](name, baseURL string, opts ...GatewayOption) *HTTPGateway[T, D] {
	o := buildGatewayOptions(opts)
	base := strings.TrimRight(baseURL, "/")
	list := strings.TrimRight(o.listURL, "/")
	if list == "" {
		list = base
	}
	return &HTTPGateway[T, D]{
		name:    name,
		baseURL: base,
		listURL: list,
		client:  o.client,
		headers: o.headers,
		tracer:  o.tracer,
		logger:  o.logger,
	}
}

func (g *HTTPGateway[T, D]) itemURL(id int) string {
	return g.baseURL + "/" + strconv.Itoa(id)
}

// Create posts draft and returns the entity the server echoes back.
func (g *HTTPGateway[T, D]) Create(ctx context.Context, draft D) (T, error) {
	var out T
	err := g.do(ctx, "create", http.MethodPost, g.baseURL, draft, &out)
	return out, err
}

// Update replaces entity id with draft.
func (g *HTTPGateway[T, D]) Update(ctx context.Context, id int, draft D) (T, error) {
	var out T
	err := g.do(ctx, "update", http.MethodPut, g.itemURL(id), draft, &out)
	return out, err
}

// Delete removes entity id. The response body is ignored; the requested id
// is returned on success.
func (g *HTTPGateway[T, D]) Delete(ctx context.Context, id int) (int, error) {
	if err := g.do(ctx, "delete", http.MethodDelete, g.itemURL(id), nil, nil); err != nil {
		return 0, err
	}
	return id, nil
}

// List fetches the whole collection.
func (g *HTTPGateway[T, D]) List(ctx context.Context) ([]T, error) {
	var out []T
	if err := g.do(ctx, "list", http.MethodGet, g.listURL, nil, &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = []T{}
	}
	return out, nil
}

func (g *HTTPGateway[T, D]) do(ctx context.Context, op, method, url string, body, out any) (err error) {
	ctx, span := g.tracer.Start(ctx, g.name+"."+op,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("resource.name", g.name),
			attribute.String("http.request.method", method),
			attribute.String("url.full", url),
		))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode %s %s body: %w", g.name, op, err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return fmt.Errorf("build %s %s request: %w", g.name, op, err)
	}
	for k, vs := range g.headers {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	req.Header.Set("Accept", "application/json")
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))
	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	g.logger.Debug("gateway request", "resource", g.name, "op", op, "method", method, "url", url)

	resp, err := g.client.Do(req)
	if err != nil {
		return &TransportError{Op: method, URL: url, Err: err}
	}
	defer resp.Body.Close()

	span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))
	g.logger.Debug("gateway response", "resource", g.name, "op", op, "status", resp.StatusCode)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &HTTPError{Op: method, URL: url, Status: resp.StatusCode, Body: string(data)}
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &TransportError{Op: method, URL: url, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}
