// Package workspace manages the scratch directory of one orchestrator run.
//
// Each run gets its own directory (<base>/<timestamp>-<uuid>) and every
// version built during the run gets a uniquely named slot inside it where the
// generator's fresh output is parked before it is merged. Ephemeral workspaces
// are removed on Cleanup; kept workspaces stay on disk for inspection.
package workspace
