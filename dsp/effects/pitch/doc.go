// Package pitch implements real-time pitch correction for monophonic
// material.
//
// A [Corrector] collects input into analysis blocks, estimates the
// fundamental with an autocorrelation [Detector], snaps the detected note
// to the nearest note of a [Scale], and resynthesizes the signal through a
// dual-grain time-domain [GrainShifter] whose ratio glides toward the
// correction target. Detection results are published to a [TunerState]
// for display.
package pitch
