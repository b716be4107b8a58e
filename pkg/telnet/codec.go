package telnet

import (
	"errors"
	"fmt"
	"io"
)

// IAC is the escape byte introducing a telnet control sequence.
const IAC = 0xFF

// Telnet command codes (second byte of an IAC sequence).
const (
	cmdSE   = 240 // subnegotiation end
	cmdNOP  = 241 // no operation
	cmdDM   = 242 // data mark
	cmdBRK  = 243 // break
	cmdIP   = 244 // interrupt process
	cmdAO   = 245 // abort output
	cmdAYT  = 246 // are you there
	cmdEC   = 247 // erase character
	cmdEL   = 248 // erase line
	cmdGA   = 249 // go ahead
	cmdSB   = 250 // subnegotiation begin
	cmdWill = 251
	cmdWont = 252
	cmdDo   = 253
	cmdDont = 254
)

// OptSuppressGoAhead is the only telnet option the server accepts.
const OptSuppressGoAhead = 3

// ErrUnknownCommand reports an IAC sequence with a command byte outside the
// recognized 240-255 range. It is terminal for the connection.
var ErrUnknownCommand = errors.New("telnet: unknown IAC command")

// ItemKind identifies the kind of a decoded protocol item.
type ItemKind uint8

const (
	// Application items.
	ItemLine             ItemKind = iota // plain chat line, Payload set
	ItemCreateIdentity                   // c#cdid
	ItemShowIdentity                     // c#sdid, Payload is the DID
	ItemVerifyIdentity                   // c#vdid, Payload is the DID
	ItemAssignRole                       // c#ar, Payload is the role name
	ItemWhoAmI                           // c#wai
	ItemShowPresentation                 // c#svp

	// Negotiation items, Opt set.
	ItemWill
	ItemWont
	ItemDo
	ItemDont

	// Legacy control signals.
	ItemSubnegotiationEnd
	ItemDataMark
	ItemBreak
	ItemInterrupt
	ItemAbortOutput
	ItemAreYouThere
	ItemGoAhead
	ItemSubnegotiationBegin
)

// String returns the string representation of the item kind.
func (k ItemKind) String() string {
	switch k {
	case ItemLine:
		return "Line"
	case ItemCreateIdentity:
		return "CreateIdentity"
	case ItemShowIdentity:
		return "ShowIdentity"
	case ItemVerifyIdentity:
		return "VerifyIdentity"
	case ItemAssignRole:
		return "AssignRole"
	case ItemWhoAmI:
		return "WhoAmI"
	case ItemShowPresentation:
		return "ShowPresentation"
	case ItemWill:
		return "Will"
	case ItemWont:
		return "Wont"
	case ItemDo:
		return "Do"
	case ItemDont:
		return "Dont"
	case ItemSubnegotiationEnd:
		return "SubnegotiationEnd"
	case ItemDataMark:
		return "DataMark"
	case ItemBreak:
		return "Break"
	case ItemInterrupt:
		return "Interrupt"
	case ItemAbortOutput:
		return "AbortOutput"
	case ItemAreYouThere:
		return "AreYouThere"
	case ItemGoAhead:
		return "GoAhead"
	case ItemSubnegotiationBegin:
		return "SubnegotiationBegin"
	default:
		return "Unknown"
	}
}

// Item is one decoded protocol event. Opt is set for negotiation items,
// Payload for lines and commands that carry one.
type Item struct {
	Kind    ItemKind
	Opt     byte
	Payload []byte
}

// String returns a short human-readable form, used in diagnostics.
func (it *Item) String() string {
	switch {
	case it == nil:
		return "<nil>"
	case it.Kind >= ItemWill && it.Kind <= ItemDont:
		return fmt.Sprintf("%s %d", it.Kind, it.Opt)
	case it.Payload != nil:
		return fmt.Sprintf("%s %q", it.Kind, it.Payload)
	default:
		return it.Kind.String()
	}
}

// Decoder is a resumable streaming decoder. The zero value is ready to use;
// the only state carried between calls is the in-progress line buffer.
type Decoder struct {
	line []byte
}

// NewDecoder creates a decoder with a preallocated line buffer.
func NewDecoder() *Decoder {
	return &Decoder{line: make([]byte, 0, 1024)}
}

// Decode consumes bytes from buf and returns the next item, the number of
// bytes consumed, and a terminal error for a malformed IAC sequence.
//
// A nil item with a nil error means more bytes are needed; the consumed
// count may still be nonzero (NOPs, stripped control bytes, and partial
// line content are consumed without yielding an item). Bytes belonging to
// an incomplete IAC sequence are never consumed.
func (d *Decoder) Decode(buf []byte) (*Item, int, error) {
	pos := 0
	for pos < len(buf) {
		if buf[pos] == IAC {
			item, n, err := parseIAC(buf[pos:])
			if err != nil {
				return nil, pos, err
			}
			if n == 0 {
				// Incomplete sequence, wait for more bytes.
				return nil, pos, nil
			}
			pos += n
			switch item {
			case iacNone:
				// NOP, keep scanning.
			case iacEraseChar:
				if len(d.line) > 0 {
					d.line = d.line[:len(d.line)-1]
				}
			case iacEraseLine:
				d.line = d.line[:0]
			case iacLiteral:
				d.line = append(d.line, IAC)
			default:
				return item, pos, nil
			}
			continue
		}

		b := buf[pos]
		pos++
		switch {
		case b == '\n':
			line := make([]byte, len(d.line))
			copy(line, d.line)
			d.line = d.line[:0]
			return classifyLine(line), pos, nil
		case b < 32:
			// Stripped control byte.
		default:
			d.line = append(d.line, b)
		}
	}
	return nil, pos, nil
}

// Sentinel items for IAC sequences that mutate decoder state instead of
// yielding an event.
var (
	iacNone      = &Item{}
	iacEraseChar = &Item{}
	iacEraseLine = &Item{}
	iacLiteral   = &Item{}
)

// parseIAC parses one IAC sequence at the start of buf. A zero consumed
// count with a nil error means the sequence is incomplete.
func parseIAC(buf []byte) (*Item, int, error) {
	if len(buf) < 2 {
		return nil, 0, nil
	}
	cmd := buf[1]
	if cmd >= cmdWill && cmd <= cmdDont {
		if len(buf) < 3 {
			return nil, 0, nil
		}
		kind := ItemWill + ItemKind(cmd-cmdWill)
		return &Item{Kind: kind, Opt: buf[2]}, 3, nil
	}

	switch cmd {
	case cmdSE:
		return &Item{Kind: ItemSubnegotiationEnd}, 2, nil
	case cmdNOP:
		return iacNone, 2, nil
	case cmdDM:
		return &Item{Kind: ItemDataMark}, 2, nil
	case cmdBRK:
		return &Item{Kind: ItemBreak}, 2, nil
	case cmdIP:
		return &Item{Kind: ItemInterrupt}, 2, nil
	case cmdAO:
		return &Item{Kind: ItemAbortOutput}, 2, nil
	case cmdAYT:
		return &Item{Kind: ItemAreYouThere}, 2, nil
	case cmdEC:
		return iacEraseChar, 2, nil
	case cmdEL:
		return iacEraseLine, 2, nil
	case cmdGA:
		return &Item{Kind: ItemGoAhead}, 2, nil
	case cmdSB:
		return &Item{Kind: ItemSubnegotiationBegin}, 2, nil
	case IAC:
		return iacLiteral, 2, nil
	default:
		return nil, 0, fmt.Errorf("%w 0x%02x", ErrUnknownCommand, cmd)
	}
}

// Reader couples a Decoder with an io.Reader, yielding one item per call.
type Reader struct {
	r   io.Reader
	dec *Decoder
	buf []byte
	n   int // unconsumed bytes in buf
}

// NewReader creates a Reader over r.
func NewReader(r io.Reader) *Reader {
	return &Reader{r: r, dec: NewDecoder(), buf: make([]byte, 4096)}
}

// Next returns the next decoded item. It returns io.EOF on a clean end of
// stream and a decode error unchanged.
func (r *Reader) Next() (*Item, error) {
	for {
		item, n, err := r.dec.Decode(r.buf[:r.n])
		if n > 0 {
			r.n = copy(r.buf, r.buf[n:r.n])
		}
		if err != nil {
			return nil, err
		}
		if item != nil {
			return item, nil
		}

		if r.n == len(r.buf) {
			// A full buffer with no decodable item can only be an
			// oversized incomplete sequence; grow to make progress.
			r.buf = append(r.buf, make([]byte, len(r.buf))...)
		}
		m, err := r.r.Read(r.buf[r.n:])
		r.n += m
		if m == 0 && err != nil {
			return nil, err
		}
	}
}
