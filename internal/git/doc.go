// Package git reads version-control metadata of the site project so build
// manifests can name the sources they were produced from.
package git
