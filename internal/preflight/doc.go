// Package preflight provides readiness checks for the external tools and
// filesystem paths that standin depends on.
//
// These checks run in two contexts:
//   - The doctor command calls RunAll to report directory and encoder
//     health in one pass.
//   - The status command uses CheckSystemDeps to show which external
//     tools are resolvable.
//
// Each check is gated by its config toggle; disabled features are skipped.
package preflight
