// Package loudness implements EBU R128 / ITU-R BS.1770 loudness metering
// for rendered mixes.
package loudness
