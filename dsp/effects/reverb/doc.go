// Package reverb synthesizes procedural room impulse responses and runs
// stereo convolution against them.
//
// [Synthesize] shapes uncorrelated stereo noise with a (1-n)^4 decay and
// sprinkles size-scaled early reflections over the first samples.
// [ImpulseCache] memoizes the last impulse per (decay, size) key.
// [ConvolutionReverb] produces the wet path of the track reverb.
package reverb
