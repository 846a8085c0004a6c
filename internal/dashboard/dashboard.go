// Package dashboard holds the application state: one synchronizer per
// resource type, built once from config and shared by the API and CLI.
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"golang.org/x/sync/errgroup"

	"github.com/revittco/storeadmin/internal/catalog"
	"github.com/revittco/storeadmin/internal/config"
	"github.com/revittco/storeadmin/internal/resource"
)

// Resource names.
const (
	Products = "products"
	Carts    = "carts"
	Users    = "users"
)

// Names lists the resource types in display order.
var Names = []string{Products, Carts, Users}

// ErrUnknownResource is returned for a name not in Names.
var ErrUnknownResource = errors.New("unknown resource")

type (
	ProductDispatcher = resource.Dispatcher[catalog.Product, catalog.ProductDraft]
	CartDispatcher    = resource.Dispatcher[catalog.Cart, catalog.CartDraft]
	UserDispatcher    = resource.Dispatcher[catalog.User, catalog.UserDraft]
)

// Dashboard is the explicit state container for the three resource types.
type Dashboard struct {
	Products *ProductDispatcher
	Carts    *CartDispatcher
	Users    *UserDispatcher

	// Bus carries store events of all three resources.
	Bus *resource.Bus

	logger *slog.Logger
}

// Option customizes New.
type Option func(*buildOptions)

type buildOptions struct {
	logger   *slog.Logger
	recorder resource.Recorder
	client   *http.Client
}

// WithLogger sets the logger handed to stores, gateways and dispatchers.
func WithLogger(l *slog.Logger) Option {
	return func(o *buildOptions) { o.logger = l }
}

// WithRecorder attaches a command audit recorder to every dispatcher.
func WithRecorder(r resource.Recorder) Option {
	return func(o *buildOptions) { o.recorder = r }
}

// WithHTTPClient overrides the HTTP client of every gateway. Gateways use a
// copy carrying the configured request timeout.
func WithHTTPClient(c *http.Client) Option {
	return func(o *buildOptions) { o.client = c }
}

// New builds the three synchronizers from cfg.
func New(cfg *config.FileConfig, opts ...Option) (*Dashboard, error) {
	bo := buildOptions{logger: slog.Default()}
	for _, o := range opts {
		o(&bo)
	}

	mode, ok := resource.ParseMode(cfg.Dispatch.Mode)
	if !ok {
		return nil, fmt.Errorf("invalid dispatch mode %q", cfg.Dispatch.Mode)
	}

	bus := resource.NewBus()
	storeOpts := []resource.Option{
		resource.WithLogger(bo.logger),
		resource.WithBus(bus),
		resource.WithStrictIDs(cfg.Dispatch.RejectDuplicateIDs),
		resource.WithMode(mode),
	}
	if bo.recorder != nil {
		storeOpts = append(storeOpts, resource.WithRecorder(bo.recorder))
	}

	gwOpts := func(rc config.ResourceConfig) []resource.GatewayOption {
		g := []resource.GatewayOption{
			resource.WithTimeout(cfg.Dispatch.RequestTimeout()),
			resource.WithGatewayLogger(bo.logger),
		}
		if bo.client != nil {
			g = append(g, resource.WithHTTPClient(bo.client))
		}
		if rc.ListURL != "" {
			g = append(g, resource.WithListURL(rc.ListURL))
		}
		return g
	}

	res := cfg.Resources
	return &Dashboard{
		Products: resource.NewDispatcher[catalog.Product, catalog.ProductDraft](
			resource.NewStore[catalog.Product](Products, storeOpts...),
			resource.NewHTTPGateway[catalog.Product, catalog.ProductDraft](Products, res.Products.BaseURL, gwOpts(res.Products)...),
			storeOpts...),
		Carts: resource.NewDispatcher[catalog.Cart, catalog.CartDraft](
			resource.NewStore[catalog.Cart](Carts, storeOpts...),
			resource.NewHTTPGateway[catalog.Cart, catalog.CartDraft](Carts, res.Carts.BaseURL, gwOpts(res.Carts)...),
			storeOpts...),
		Users: resource.NewDispatcher[catalog.User, catalog.UserDraft](
			resource.NewStore[catalog.User](Users, storeOpts...),
			resource.NewHTTPGateway[catalog.User, catalog.UserDraft](Users, res.Users.BaseURL, gwOpts(res.Users)...),
			storeOpts...),
		Bus:    bus,
		logger: bo.logger,
	}, nil
}

// Refresh reloads one collection by name.
func (d *Dashboard) Refresh(ctx context.Context, name string) (resource.Phase, error) {
	switch name {
	case Products:
		out := d.Products.Refresh(ctx)
		return out.Phase, out.Err
	case Carts:
		out := d.Carts.Refresh(ctx)
		return out.Phase, out.Err
	case Users:
		out := d.Users.Refresh(ctx)
		return out.Phase, out.Err
	default:
		return resource.PhaseIdle, fmt.Errorf("%w %q", ErrUnknownResource, name)
	}
}

// Load refreshes all collections concurrently. A failing collection does
// not stop the others; its error lands in its own store and in the joined
// result.
func (d *Dashboard) Load(ctx context.Context) error {
	errs := make([]error, len(Names))
	var g errgroup.Group
	for i, name := range Names {
		g.Go(func() error {
			if _, err := d.Refresh(ctx, name); err != nil {
				errs[i] = fmt.Errorf("load %s: %w", name, err)
			}
			return nil
		})
	}
	_ = g.Wait()

	err := errors.Join(errs...)
	if err != nil {
		d.logger.Warn("initial load incomplete", "error", err)
	}
	return err
}

// Summary is the state of one resource at a glance.
type Summary struct {
	Resource  string `json:"resource"`
	Count     int    `json:"count"`
	IsLoading bool   `json:"is_loading"`
	Error     string `json:"error,omitempty"`
}

// Summaries reports every resource in Names order.
func (d *Dashboard) Summaries() []Summary {
	return []Summary{
		summarize(d.Products.Store()),
		summarize(d.Carts.Store()),
		summarize(d.Users.Store()),
	}
}

func summarize[T resource.Entity](s *resource.Store[T]) Summary {
	st := s.Snapshot()
	return Summary{Resource: s.Name(), Count: len(st.Items), IsLoading: st.IsLoading, Error: st.Error}
}
