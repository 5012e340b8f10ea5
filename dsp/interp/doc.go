// Package interp provides fractional-position interpolation used when clip
// audio is read at a rate other than its own.
//
//   - [Linear2]:  2-point linear interpolation
//   - [Hermite4]: 4-point cubic Hermite (good default)
//   - [At]:       Hermite4 over a buffer with edge extrapolation
package interp
