// Package watch reruns a build whenever files below a set of site paths
// change. Events are debounced, and changes made while a build runs are
// coalesced into a single follow-up build.
package watch
