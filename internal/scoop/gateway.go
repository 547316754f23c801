package scoop

import (
	"context"
	"log/slog"
)

// Gateway is the typed call surface of the package-manager engine.
//
// Read operations swallow failures: they log and return an empty default, so
// callers never see an error. Mutating operations log and return the failure.
type Gateway struct {
	invoker Invoker
	log     *slog.Logger
}

// NewGateway wraps invoker. A nil logger uses slog.Default.
func NewGateway(invoker Invoker, logger *slog.Logger) *Gateway {
	if logger == nil {
		logger = slog.Default()
	}
	return &Gateway{invoker: invoker, log: logger.With("component", "gateway")}
}

// FetchInstalledApps is the authoritative variant of ListInstalledApps: it
// reports failures instead of degrading to an empty list.
func (g *Gateway) FetchInstalledApps(ctx context.Context) ([]InstalledApp, error) {
	var apps []InstalledApp
	if err := g.call(ctx, OpListInstalledApps, nil, &apps); err != nil {
		return nil, err
	}
	return nonNil(apps), nil
}

// FetchBuckets is the authoritative variant of ListBuckets.
func (g *Gateway) FetchBuckets(ctx context.Context) ([]Bucket, error) {
	var buckets []Bucket
	if err := g.call(ctx, OpListBuckets, nil, &buckets); err != nil {
		return nil, err
	}
	return nonNil(buckets), nil
}

// ListInstalledApps returns the installed apps, or an empty list on failure.
func (g *Gateway) ListInstalledApps(ctx context.Context) []InstalledApp {
	apps, err := g.FetchInstalledApps(ctx)
	if err != nil {
		return []InstalledApp{}
	}
	return apps
}

// ListBuckets returns the configured buckets, or an empty list on failure.
func (g *Gateway) ListBuckets(ctx context.Context) []Bucket {
	buckets, err := g.FetchBuckets(ctx)
	if err != nil {
		return []Bucket{}
	}
	return buckets
}

// SearchRemote searches all known buckets through the engine's search command.
func (g *Gateway) SearchRemote(ctx context.Context, query string) []SearchHit {
	var hits []SearchHit
	if err := g.call(ctx, OpSearchRemote, queryArgs{Query: query}, &hits); err != nil {
		return []SearchHit{}
	}
	return nonNil(hits)
}

// SearchLocal searches the locally cloned bucket manifests.
func (g *Gateway) SearchLocal(ctx context.Context, query string) []SearchHit {
	var hits []SearchHit
	if err := g.call(ctx, OpSearchLocal, queryArgs{Query: query}, &hits); err != nil {
		return []SearchHit{}
	}
	return nonNil(hits)
}

// InstallSizes maps each app name to its install size in bytes.
func (g *Gateway) InstallSizes(ctx context.Context, appNames []string) map[string]uint64 {
	var sizes map[string]uint64
	if err := g.call(ctx, OpInstallSizes, appNamesArgs{AppNames: appNames}, &sizes); err != nil || sizes == nil {
		return map[string]uint64{}
	}
	return sizes
}

// Dependencies lists the dependencies declared by an app's manifest. An
// empty bucket means "resolve the bucket from the installed app".
func (g *Gateway) Dependencies(ctx context.Context, appName, bucket string) []string {
	var deps []string
	args := dependencyArgs{AppName: appName, Bucket: optional(bucket)}
	if err := g.call(ctx, OpDependencies, args, &deps); err != nil {
		return []string{}
	}
	return nonNil(deps)
}

// IsInstalled reports whether appName is installed; false on failure.
func (g *Gateway) IsInstalled(ctx context.Context, appName string) bool {
	var installed bool
	if err := g.call(ctx, OpIsInstalled, appArgs{AppName: appName}, &installed); err != nil {
		return false
	}
	return installed
}

// InstallApp installs appName.
func (g *Gateway) InstallApp(ctx context.Context, appName string) (string, error) {
	return g.message(ctx, OpInstallApp, appArgs{AppName: appName})
}

// UninstallApp removes appName.
func (g *Gateway) UninstallApp(ctx context.Context, appName string) (string, error) {
	return g.message(ctx, OpUninstallApp, appArgs{AppName: appName})
}

// UpdateApp updates a single app.
func (g *Gateway) UpdateApp(ctx context.Context, appName string) (string, error) {
	return g.message(ctx, OpUpdateApp, appArgs{AppName: appName})
}

// UpdateAllApps updates every installed app.
func (g *Gateway) UpdateAllApps(ctx context.Context) (string, error) {
	return g.message(ctx, OpUpdateAllApps, nil)
}

// UpdateManager updates scoop itself and its buckets.
func (g *Gateway) UpdateManager(ctx context.Context) (string, error) {
	return g.message(ctx, OpUpdateManager, nil)
}

// AddBucket adds a bucket. An empty url lets the engine use a known bucket's source.
func (g *Gateway) AddBucket(ctx context.Context, name, url string) (string, error) {
	return g.message(ctx, OpAddBucket, bucketArgs{Name: name, URL: optional(url)})
}

// RemoveBucket removes a bucket.
func (g *Gateway) RemoveBucket(ctx context.Context, name string) (string, error) {
	return g.message(ctx, OpRemoveBucket, bucketArgs{Name: name})
}

// CheckUpdatesAsync asks the engine to start its slow update-availability
// check. The engine answers as soon as the check is scheduled.
func (g *Gateway) CheckUpdatesAsync(ctx context.Context) (string, error) {
	return g.message(ctx, OpCheckUpdatesAsync, nil)
}

func (g *Gateway) message(ctx context.Context, op Operation, args any) (string, error) {
	var msg string
	if err := g.call(ctx, op, args, &msg); err != nil {
		return "", err
	}
	return msg, nil
}

func (g *Gateway) call(ctx context.Context, op Operation, args any, result any) error {
	if g == nil || g.invoker == nil {
		return ErrNilInvoker
	}
	if err := g.invoker.Invoke(ctx, op, args, result); err != nil {
		g.log.Error("backend call failed", "op", string(op), "error", err)
		return err
	}
	return nil
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
