// Package sitefiles patches the two site files that select which documentation
// version the external generator builds.
//
// The redirect mapping file is treated as a borrowed resource: RedirectGuard
// snapshots it, rewrites "/latest/" to the version being built and writes the
// snapshot back on Release, whatever happened in between. The build
// configuration file gets its buildVersion declaration replaced in place and
// is left that way.
package sitefiles
