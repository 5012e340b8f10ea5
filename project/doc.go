// Package project holds the workstation data model: tracks, clips and the
// sample buffers clips play from, plus the JSON arrangement file the
// command-line renderer reads.
package project
