package telnet

// Reply encoding for the write side of a connection. Negotiation replies
// are raw 3-byte IAC sequences; the are-you-there acknowledgement is plain
// text per the original protocol.

// AreYouThereAck is written in response to an AYT signal.
var AreYouThereAck = []byte("Yes.\r\n")

// CRLF terminates every application line written to a client.
var CRLF = []byte{'\r', '\n'}

// EncodeWill returns the IAC WILL <opt> sequence.
func EncodeWill(opt byte) []byte { return []byte{IAC, cmdWill, opt} }

// EncodeWont returns the IAC WONT <opt> sequence.
func EncodeWont(opt byte) []byte { return []byte{IAC, cmdWont, opt} }

// EncodeDo returns the IAC DO <opt> sequence.
func EncodeDo(opt byte) []byte { return []byte{IAC, cmdDo, opt} }

// EncodeDont returns the IAC DONT <opt> sequence.
func EncodeDont(opt byte) []byte { return []byte{IAC, cmdDont, opt} }
