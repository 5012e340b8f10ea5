// Package biquad runs second-order IIR sections in Direct Form II
// Transposed.
//
// [Section] is a single filter with its delay line. [Cascade] is the form
// effects use: a series of sections replicated per channel, whose
// coefficients can be swapped between blocks without losing state.
// Coefficient design lives in dsp/filter/design.
package biquad
