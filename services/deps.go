package services

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/url"

	"auto-uc2-dashboard/api"
)

// Deps are shared by every resource service.
type Deps struct {
	API    *api.Client
	Cache  Cache
	Audit  Auditor
	Logger *slog.Logger
}

func (d Deps) withDefaults() Deps {
	if d.Cache == nil {
		d.Cache = NopCache{}
	}
	if d.Audit == nil {
		d.Audit = NopAuditor{}
	}
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	return d
}

// list fetches endpoint and normalizes the collection under key. When cacheKey
// is set the result is served from and stored into the cache.
func list[W, M any](ctx context.Context, d Deps, cacheKey, endpoint, key string, norm func(W) M) ([]M, error) {
	if cacheKey != "" {
		var cached []M
		if err := d.Cache.Get(ctx, cacheKey, &cached); err == nil {
			return cached, nil
		}
	}
	var body json.RawMessage
	if err := d.API.Get(ctx, endpoint, &body); err != nil {
		return nil, err
	}
	ws, err := api.Collection[W](body, key)
	if err != nil {
		return nil, err
	}
	out := normalizeAll(ws, norm)
	if cacheKey != "" {
		if err := d.Cache.Set(ctx, cacheKey, out); err != nil {
			d.Logger.Warn("cache set failed", slog.String("key", cacheKey), slog.Any("error", err))
		}
	}
	return out, nil
}

// item sends a request and normalizes the single document under key.
func item[W, M any](ctx context.Context, d Deps, method, endpoint string, body any, key string, norm func(W) M) (M, error) {
	var raw json.RawMessage
	if err := d.API.Do(ctx, method, endpoint, body, &raw); err != nil {
		var zero M
		return zero, err
	}
	w, err := api.Item[W](raw, key)
	if err != nil {
		var zero M
		return zero, err
	}
	return norm(w), nil
}

func (d Deps) invalidate(ctx context.Context, prefix string) {
	if err := d.Cache.Invalidate(ctx, prefix); err != nil {
		d.Logger.Warn("cache invalidate failed", slog.String("prefix", prefix), slog.Any("error", err))
	}
}

// remove issues a confirmed DELETE, drops cached lists and records the action.
func (d Deps) remove(ctx context.Context, resource, endpoint, id string, confirmed bool, cachePrefix string) error {
	if err := RequireConfirmation(confirmed, "delete "+resource+" "+id); err != nil {
		return err
	}
	if err := d.API.Delete(ctx, endpoint, nil); err != nil {
		return err
	}
	if cachePrefix != "" {
		d.invalidate(ctx, cachePrefix)
	}
	d.Audit.Record(ctx, AuditEvent{Action: "deleted", Resource: resource, TargetID: id, ActorID: actorFrom(ctx)})
	return nil
}

func path(parts ...string) string {
	out := ""
	for _, p := range parts {
		out += "/" + url.PathEscape(p)
	}
	return out
}

type actorKey struct{}

// WithActor tags ctx with the id of the operator issuing the request.
func WithActor(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, actorKey{}, userID)
}

func actorFrom(ctx context.Context) string {
	id, _ := ctx.Value(actorKey{}).(string)
	return id
}
