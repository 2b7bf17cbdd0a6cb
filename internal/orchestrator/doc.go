// Package orchestrator builds a documentation site once per version and
// reassembles the per-version outputs into a single output tree.
//
// Versions are processed sequentially in lexicographic order so the latest
// token is built last. For every version the redirect file is rewritten under a
// RedirectGuard, the buildVersion declaration is replaced, the toolchain build
// runs, and the fresh output is parked in a workspace slot before it is merged
// into the staging tree. The staging tree replaces the output directory once
// all versions succeeded.
package orchestrator
