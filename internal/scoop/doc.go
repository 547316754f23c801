// Package scoop provides the typed call surface of the Scoop package-manager engine.
//
// # Overview
//
// The engine is a privileged process that owns every scoop command. This package
// never runs scoop itself; it names an operation, sends its arguments and decodes
// the typed response. Three pieces live here:
//
//   - types.go: wire types (InstalledApp, SearchHit, Bucket) and operation names
//   - invoker.go: the Invoker transport and its HTTP implementation
//   - gateway.go: Gateway, one method per engine operation
//
// # Failure Contracts
//
// Each Gateway method belongs to one of two contracts:
//
// Swallowing (read/query operations): ListInstalledApps, ListBuckets, SearchRemote,
// SearchLocal, InstallSizes, Dependencies, IsInstalled. A failure is logged and the
// caller gets an empty list, an empty map or false.
//
// Propagating (mutating operations): InstallApp, UninstallApp, UpdateApp,
// UpdateAllApps, UpdateManager, AddBucket, RemoveBucket, CheckUpdatesAsync. A
// failure is logged and returned. Engine-reported failures are *BackendError values
// whose Error() is the engine's message, unchanged.
//
// FetchInstalledApps and FetchBuckets are the strict variants used by the
// synchronizer, which must tell "the engine failed" apart from "nothing installed".
//
// # Transport
//
// HTTPInvoker posts JSON to <backend>/api/invoke/<operation>:
//
//	POST /api/invoke/install_app
//	{"appName": "git"}
//
//	200 "git was installed successfully"
//	500 {"error": "Couldn't find manifest for 'git'"}
//
// Arguments are not validated here; the engine owns validation. The transport does
// not retry. Its timeout is the only timeout on a call.
//
// # Usage Example
//
//	inv, err := scoop.NewHTTPInvoker("127.0.0.1:7488", 30*time.Second)
//	if err != nil {
//		return err
//	}
//	gw := scoop.NewGateway(inv, slog.Default())
//
//	apps := gw.ListInstalledApps(ctx) // never fails
//	if _, err := gw.InstallApp(ctx, "git"); err != nil {
//		fmt.Println("install failed:", err)
//	}
package scoop
