package telnet

import "testing"

// FuzzDecode tests that decoding arbitrary bytes doesn't panic and that the
// consumed count never exceeds the input.
func FuzzDecode(f *testing.F) {
	// Seed with representative streams
	f.Add([]byte("hello\n"))
	f.Add([]byte("c#sdid1234\n"))
	f.Add([]byte{IAC, 251, 3})
	f.Add([]byte{IAC, 251})
	f.Add([]byte{IAC, IAC, '\n'})
	f.Add([]byte{IAC, 247, IAC, 248, 'x', '\n'})
	f.Add([]byte{IAC, 100})

	f.Fuzz(func(t *testing.T, data []byte) {
		d := NewDecoder()
		buf := data
		for len(buf) > 0 {
			item, n, err := d.Decode(buf)
			if n < 0 || n > len(buf) {
				t.Fatalf("consumed %d of %d bytes", n, len(buf))
			}
			buf = buf[n:]
			if err != nil || (item == nil && n == 0) {
				break
			}
		}
	})
}
