package collector

import (
	"bytes"
	"net/url"
	"strconv"

	"github.com/dmitrymomot/honeytracks/pkg/tracking"
)

// EncodeForm renders a batch as an application/x-www-form-urlencoded body.
//
// Record i contributes Packets[i][Action] followed by Packets[i][<Key>] for
// each field, in field order. url.Values is not used because it sorts keys.
func EncodeForm(batch []tracking.Event) []byte {
	var buf bytes.Buffer
	for i, e := range batch {
		prefix := "Packets[" + strconv.Itoa(i) + "]["
		writePair(&buf, prefix+"Action]", e.Action())
		for _, f := range e.Fields() {
			writePair(&buf, prefix+f.Key+"]", f.Value)
		}
	}
	return buf.Bytes()
}

func writePair(buf *bytes.Buffer, key, value string) {
	if buf.Len() > 0 {
		buf.WriteByte('&')
	}
	buf.WriteString(url.QueryEscape(key))
	buf.WriteByte('=')
	buf.WriteString(url.QueryEscape(value))
}
