package sendgrid

import (
	"encoding/json"
	"fmt"
	"net/url"
	"sort"
	"strings"
)

// Encode flattens the message into the form-encoded body expected by the
// mail.send endpoint. Key order is part of the wire contract: recipient
// arrays come first in insertion order, then the scalar fields, then
// headers and x-smtpapi, then attachments and inline content. The scalar
// keys are always present, as empty values when unset; the receiving
// service expects every declared key in the body.
func (m *Mail) Encode() (string, error) {
	headers, err := m.headerString()
	if err != nil {
		return "", &Error{Kind: KindEncoding, Op: "encode mail", Err: err}
	}

	var b strings.Builder

	pair := func(key, value string) {
		if b.Len() > 0 {
			b.WriteByte('&')
		}
		b.WriteString(url.QueryEscape(key))
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(value))
	}
	list := func(key string, values []string) {
		for _, v := range values {
			pair(key, v)
		}
	}

	list("to[]", m.To)
	list("toname[]", m.ToName)
	list("cc[]", m.Cc)
	list("ccname[]", m.CcName)
	list("bcc[]", m.Bcc)
	list("bccname[]", m.BccName)

	pair("from", m.From)
	pair("subject", m.Subject)
	pair("html", m.HTML)
	pair("text", m.Text)
	pair("fromname", m.FromName)
	pair("replyto", m.ReplyTo)
	pair("date", m.Date)
	pair("headers", headers)
	pair("x-smtpapi", m.XSMTPAPI)

	// Map iteration order must not leak into the body.
	for _, name := range sortedKeys(m.Attachments) {
		pair("files["+name+"]", m.Attachments[name])
	}
	for _, id := range sortedKeys(m.Content) {
		pair("content["+id+"]", m.Content[id])
	}

	return b.String(), nil
}

// headerString serializes the custom headers map to a JSON object string.
// An empty or nil map serializes to "{}"; the headers key must still be
// present on the wire.
func (m *Mail) headerString() (string, error) {
	if len(m.Headers) == 0 {
		return "{}", nil
	}
	raw, err := json.Marshal(m.Headers)
	if err != nil {
		return "", fmt.Errorf("marshal headers: %w", err)
	}
	return string(raw), nil
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
