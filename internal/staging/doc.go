// Package staging accumulates the output of several generator runs into one tree.
//
// The generator recreates its output directory on every invocation, so after
// each build the fresh output is parked in a run slot (Isolate), merged into the
// staging tree (Merge) and, once every version is built, the staging tree
// replaces the output directory (Promote).
package staging
