package sendgrid

import (
	"fmt"
	"os"
	"unicode/utf8"
)

// Destination is a single recipient: an email address and the display
// name shown alongside it. An empty Name is allowed.
type Destination struct {
	Address string
	Name    string
}

// Mail represents a message for the v2 mail.send API. The To/ToName,
// Cc/CcName and Bcc/BccName slices are parallel: index i of an address
// slice pairs with index i of the matching name slice.
//
// Build a Mail with NewMail and the chained Add*/Set* methods rather than
// filling in fields directly; the methods keep the parallel slices and
// the map fields consistent. A Mail is not safe for concurrent mutation;
// build it in one goroutine, then send it.
type Mail struct {
	To      []string
	ToName  []string
	Cc      []string
	CcName  []string
	Bcc     []string
	BccName []string

	From     string
	FromName string
	Subject  string

	HTML    string
	Text    string
	ReplyTo string
	// Date is passed through as-is and is expected to be an RFC 822
	// timestamp.
	Date string

	// Attachments maps an attachment name (the file path, for
	// AddAttachment) to its text content.
	Attachments map[string]string
	// Content maps a content ID to its inline value, for embedded images.
	Content map[string]string
	// Headers holds custom message headers, usually X-prefixed.
	Headers map[string]string

	// XSMTPAPI carries an opaque X-SMTPAPI string for provider-specific
	// routing, usually a JSON-encoded object.
	XSMTPAPI string
}

// NewMail returns a Mail with the minimum required fields set: one to
// recipient, the subject and the sender. Everything else starts empty.
func NewMail(to Destination, subject string, from Destination) *Mail {
	return &Mail{
		To:       []string{to.Address},
		ToName:   []string{to.Name},
		From:     from.Address,
		FromName: from.Name,
		Subject:  subject,
	}
}

// AddTo appends a to recipient. Order is preserved and duplicates are not
// collapsed.
func (m *Mail) AddTo(d Destination) *Mail {
	m.To = append(m.To, d.Address)
	m.ToName = append(m.ToName, d.Name)
	return m
}

// AddCc appends a cc recipient.
func (m *Mail) AddCc(d Destination) *Mail {
	m.Cc = append(m.Cc, d.Address)
	m.CcName = append(m.CcName, d.Name)
	return m
}

// AddBcc appends a bcc recipient.
func (m *Mail) AddBcc(d Destination) *Mail {
	m.Bcc = append(m.Bcc, d.Address)
	m.BccName = append(m.BccName, d.Name)
	return m
}

// SetHTML sets the HTML body. It does not clear a previously set text
// body; a message may carry both.
func (m *Mail) SetHTML(html string) *Mail {
	m.HTML = html
	return m
}

// SetText sets the plain-text body. It does not clear a previously set
// HTML body.
func (m *Mail) SetText(text string) *Mail {
	m.Text = text
	return m
}

// SetReplyTo sets the reply-to address.
func (m *Mail) SetReplyTo(addr string) *Mail {
	m.ReplyTo = addr
	return m
}

// SetDate sets the message date. The value must be an RFC 822 timestamp;
// it is not validated here.
func (m *Mail) SetDate(date string) *Mail {
	m.Date = date
	return m
}

// AddAttachment reads the file at path fully into memory and attaches it
// under the path string as its name. No size limit is applied. It fails
// with KindInvalidFilename if path is not valid UTF-8 and with KindIO if
// the file cannot be read or its content is not UTF-8 text.
func (m *Mail) AddAttachment(path string) error {
	const op = "add attachment"

	if !utf8.ValidString(path) {
		return &Error{Kind: KindInvalidFilename, Op: op, Err: fmt.Errorf("path is not valid UTF-8")}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return &Error{Kind: KindIO, Op: op, Err: err}
	}
	if !utf8.Valid(data) {
		return &Error{Kind: KindIO, Op: op, Err: fmt.Errorf("%s: content is not valid UTF-8", path)}
	}

	m.AddAttachmentContent(path, string(data))
	return nil
}

// AddAttachmentContent attaches already-loaded content under the given
// name, overwriting any existing attachment with that name.
func (m *Mail) AddAttachmentContent(name, data string) *Mail {
	if m.Attachments == nil {
		m.Attachments = make(map[string]string)
	}
	m.Attachments[name] = data
	return m
}

// AddContent registers an inline content value (an embedded image, for
// example) under the given content ID, overwriting any existing entry.
func (m *Mail) AddContent(id, value string) *Mail {
	if m.Content == nil {
		m.Content = make(map[string]string)
	}
	m.Content[id] = value
	return m
}

// AddHeader sets a custom header, overwriting any existing value for that
// name.
func (m *Mail) AddHeader(name, value string) *Mail {
	if m.Headers == nil {
		m.Headers = make(map[string]string)
	}
	m.Headers[name] = value
	return m
}

// SetXSMTPAPI sets the X-SMTPAPI routing string. The value is passed
// through to the API untouched.
func (m *Mail) SetXSMTPAPI(value string) *Mail {
	m.XSMTPAPI = value
	return m
}

// Build checks that the message carries at least one body variant and
// returns the Mail for sending. It fails with ErrMissingBody when neither
// the text nor the HTML body is set.
func (m *Mail) Build() (*Mail, error) {
	if m.Text == "" && m.HTML == "" {
		return nil, ErrMissingBody
	}
	return m, nil
}
