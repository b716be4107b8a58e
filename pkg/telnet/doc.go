// Package telnet implements the streaming decoder for the didlink wire
// protocol: a `c#`-prefixed command protocol layered on top of classic
// telnet option negotiation (RFC 854/855).
//
// # Wire Format
//
// The stream has no explicit framing. The escape byte 0xFF (IAC) introduces
// a control sequence; every other byte accumulates into the current line,
// which is terminated by 0x0A. Control bytes 0-31 other than the newline are
// silently dropped. The sequence 0xFF 0xFF is a literal 0xFF data byte.
//
// Two-byte IAC sequences (command codes 240-250, 255):
//
//	240 SE    subnegotiation end      246 AYT   are you there
//	241 NOP   no operation            247 EC    erase character
//	242 DM    data mark               248 EL    erase line
//	243 BRK   break                   249 GA    go ahead
//	244 IP    interrupt process       250 SB    subnegotiation begin
//	245 AO    abort output            255       literal 0xFF
//
// Three-byte sequences carry one option byte: WILL (251), WONT (252),
// DO (253), DONT (254).
//
// # Commands
//
// Completed lines are classified against an ordered table of ASCII
// prefixes; the remainder of the line is the command payload. Lines that
// match no prefix are plain chat lines.
//
//	c#cdid          create a new identity document
//	c#wai           who am i
//	c#svp           show presentation (QR render)
//	c#sdid<did>     show the document stored under <did>
//	c#ar<role>      assign a role (holder, issuer, verifier)
//	c#vdid<did>     verify the document stored under <did>
//
// # Usage
//
// Decoder is resumable across partial buffers: it never consumes bytes it
// cannot fully decode, and it carries the in-progress line between calls.
//
//	dec := telnet.NewDecoder()
//	for {
//	    item, n, err := dec.Decode(buf)
//	    buf = buf[n:]
//	    if err != nil { ... }       // malformed IAC sequence, terminal
//	    if item == nil { break }    // need more bytes
//	    handle(item)
//	}
//
// Reader wraps an io.Reader with a Decoder for loop-free consumption.
package telnet
