// Package codec converts between planar float audio and file formats.
//
// EncodeWAV writes canonical 16-bit PCM RIFF/WAVE with a 44-byte header.
// DecodeWAV, DecodeMP3 and Decode load source audio for clips. Every
// decode failure wraps ErrDecode.
package codec
