package telnet

import "bytes"

// command maps a line prefix to the item it produces. Entries are tested in
// order; the first match wins. Exact commands carry no payload and must
// match the whole line.
type command struct {
	prefix    []byte
	kind      ItemKind
	exact     bool // whole line must equal prefix
	trimSpace bool // strip leading spaces from the payload
}

var commands = []command{
	{prefix: []byte("c#cdid"), kind: ItemCreateIdentity, exact: true},
	{prefix: []byte("c#wai"), kind: ItemWhoAmI, exact: true},
	{prefix: []byte("c#svp"), kind: ItemShowPresentation, exact: true},
	{prefix: []byte("c#sdid"), kind: ItemShowIdentity},
	{prefix: []byte("c#ar"), kind: ItemAssignRole, trimSpace: true},
	{prefix: []byte("c#vdid"), kind: ItemVerifyIdentity},
}

// classifyLine turns a completed line into a command item, or a plain Line
// item when no prefix matches. Prefix matching never slices beyond the line
// length, so a line shorter than a prefix simply does not match it.
func classifyLine(line []byte) *Item {
	for _, c := range commands {
		if c.exact {
			if bytes.Equal(line, c.prefix) {
				return &Item{Kind: c.kind}
			}
			continue
		}
		if bytes.HasPrefix(line, c.prefix) {
			payload := line[len(c.prefix):]
			if c.trimSpace {
				payload = bytes.TrimLeft(payload, " ")
			}
			return &Item{Kind: c.kind, Payload: payload}
		}
	}
	return &Item{Kind: ItemLine, Payload: line}
}
