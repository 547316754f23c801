package scoop

import "time"

// InstalledApp mirrors an entry of get_installed_apps.
type InstalledApp struct {
	Name        string `json:"name"`
	Version     string `json:"version"`
	Bucket      string `json:"bucket"`
	Description string `json:"description"`
	UpdatedAtMs int64  `json:"updated"`
	HasUpdate   bool   `json:"has_update"`
	InstallSize uint64 `json:"install_size"`
}

// UpdatedAt returns the last update time, or the zero time when unknown.
func (a InstalledApp) UpdatedAt() time.Time {
	return fromMillis(a.UpdatedAtMs)
}

// SearchHit is a transient search result. It is never cached.
type SearchHit struct {
	Name        string `json:"name"`
	Version     string `json:"version"`
	Bucket      string `json:"bucket"`
	Description string `json:"description"`
}

// Bucket describes a configured repository. Unlike apps, its update time is
// reported in seconds.
type Bucket struct {
	Name         string `json:"name"`
	Source       string `json:"source"`
	UpdatedAtSec int64  `json:"updated"`
}

// UpdatedAt returns the last update time, or the zero time when unknown.
func (b Bucket) UpdatedAt() time.Time {
	if b.UpdatedAtSec <= 0 {
		return time.Time{}
	}
	return time.Unix(b.UpdatedAtSec, 0)
}

func fromMillis(ms int64) time.Time {
	if ms <= 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms)
}

// Operation names a backend command.
type Operation string

const (
	OpListInstalledApps Operation = "get_installed_apps"
	OpSearchRemote      Operation = "search_apps"
	OpSearchLocal       Operation = "search_local_packets"
	OpUpdateApp         Operation = "update_app"
	OpUpdateAllApps     Operation = "update_all_apps"
	OpUpdateManager     Operation = "update_scoop"
	OpInstallSizes      Operation = "get_app_sizes"
	OpListBuckets       Operation = "get_buckets"
	OpAddBucket         Operation = "add_bucket"
	OpRemoveBucket      Operation = "remove_bucket"
	OpInstallApp        Operation = "install_app"
	OpUninstallApp      Operation = "uninstall_app"
	OpDependencies      Operation = "check_dependencies"
	OpIsInstalled       Operation = "is_app_installed"
	OpCheckUpdatesAsync Operation = "check_updates_async"
)

type queryArgs struct {
	Query string `json:"query"`
}

type appArgs struct {
	AppName string `json:"appName"`
}

type appNamesArgs struct {
	AppNames []string `json:"appNames"`
}

type bucketArgs struct {
	Name string  `json:"name"`
	URL  *string `json:"url,omitempty"`
}

type dependencyArgs struct {
	AppName string  `json:"appName"`
	Bucket  *string `json:"bucket,omitempty"`
}
