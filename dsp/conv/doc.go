// Package conv provides convolution primitives for impulse-response based
// effects: a direct reference implementation and a uniformly partitioned
// FFT convolver for long impulse responses processed block by block.
package conv
