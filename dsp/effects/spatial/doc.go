// Package spatial provides stereo-image processors.
package spatial
