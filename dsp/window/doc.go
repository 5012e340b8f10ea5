// Package window generates cosine-sum window functions for spectral
// analysis frames.
package window
