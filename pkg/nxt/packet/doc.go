// Package packet provides the NXT telegram model.
package packet

// An NXT telegram starts with a two byte header. Byte 0 carries the
// category (direct, system or reply) in its low bits and the
// "no response" flag in bit 7, byte 1 is the command code. Replies
// additionally carry a status byte at offset 2.
//
// All multi-byte numeric fields are little-endian, names are fixed-width
// ASCII padded with zeros.
