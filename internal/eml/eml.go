// Package eml converts RFC 5322 email messages into Mail values ready to
// send through the mail.send API. It handles plain text messages,
// multipart messages with text and HTML alternatives, attachments and
// inline content-ID parts.
package eml

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"mime/multipart"
	"net/mail"
	"strings"

	sendgrid "github.com/shineum/sendgrid-lite"
)

// Parse parses a raw RFC 5322 message into a Mail. The message must carry
// a From header and at least one To recipient; everything else is
// optional. Unrecognized MIME parts are logged as warnings and skipped.
func Parse(raw []byte) (*sendgrid.Mail, error) {
	msg, err := mail.ReadMessage(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("failed to parse message: %w", err)
	}

	from, err := parseDestination(msg.Header.Get("From"))
	if err != nil {
		return nil, fmt.Errorf("message has no usable From header: %w", err)
	}

	tos := parseDestinationList(msg.Header.Get("To"))
	if len(tos) == 0 {
		return nil, fmt.Errorf("message has no To recipients")
	}

	m := sendgrid.NewMail(tos[0], msg.Header.Get("Subject"), from)
	for _, d := range tos[1:] {
		m.AddTo(d)
	}
	for _, d := range parseDestinationList(msg.Header.Get("Cc")) {
		m.AddCc(d)
	}
	for _, d := range parseDestinationList(msg.Header.Get("Bcc")) {
		m.AddBcc(d)
	}

	if replyTo, err := parseDestination(msg.Header.Get("Reply-To")); err == nil {
		m.SetReplyTo(replyTo.Address)
	}
	if date := msg.Header.Get("Date"); date != "" {
		m.SetDate(date)
	}

	// X-prefixed headers pass through to the custom headers map.
	for key, values := range msg.Header {
		if strings.HasPrefix(strings.ToLower(key), "x-") && len(values) > 0 {
			m.AddHeader(key, values[0])
		}
	}

	contentType := msg.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "text/plain"
	}

	mediaType, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		// If the content type is unparseable, treat the body as plain text
		slog.Warn("failed to parse content type, treating as plain text",
			"content_type", contentType,
			"error", err,
		)
		body, readErr := io.ReadAll(msg.Body)
		if readErr != nil {
			return nil, fmt.Errorf("failed to read message body: %w", readErr)
		}
		return m.SetText(string(body)), nil
	}

	if strings.HasPrefix(mediaType, "multipart/") {
		boundary := params["boundary"]
		if boundary == "" {
			return nil, fmt.Errorf("multipart message missing boundary")
		}
		if err := readMultipart(msg.Body, boundary, m); err != nil {
			return nil, fmt.Errorf("failed to parse multipart message: %w", err)
		}
		return m, nil
	}

	body, err := io.ReadAll(msg.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read message body: %w", err)
	}
	switch mediaType {
	case "text/html":
		m.SetHTML(string(body))
	case "text/plain":
		m.SetText(string(body))
	default:
		slog.Warn("unrecognized top-level content type",
			"content_type", mediaType,
		)
		m.SetText(string(body))
	}

	return m, nil
}

// readMultipart walks a multipart body, mapping text parts to the message
// bodies, content-ID parts to inline content and the rest to attachments.
func readMultipart(body io.Reader, boundary string, m *sendgrid.Mail) error {
	reader := multipart.NewReader(body, boundary)

	for {
		part, err := reader.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read next part: %w", err)
		}

		partContentType := part.Header.Get("Content-Type")
		if partContentType == "" {
			partContentType = "text/plain"
		}

		mediaType, params, err := mime.ParseMediaType(partContentType)
		if err != nil {
			slog.Warn("failed to parse part content type, skipping",
				"content_type", partContentType,
				"error", err,
			)
			continue
		}

		// Nested multipart (multipart/alternative inside multipart/mixed)
		if strings.HasPrefix(mediaType, "multipart/") {
			nestedBoundary := params["boundary"]
			if nestedBoundary == "" {
				slog.Warn("nested multipart missing boundary, skipping")
				continue
			}
			if err := readMultipart(part, nestedBoundary, m); err != nil {
				slog.Warn("failed to parse nested multipart",
					"error", err,
				)
			}
			continue
		}

		content, err := readPartContent(part)
		if err != nil {
			slog.Warn("failed to read part content",
				"content_type", mediaType,
				"error", err,
			)
			continue
		}

		// Parts with a Content-ID are inline content (embedded images)
		if cid := strings.Trim(part.Header.Get("Content-Id"), "<>"); cid != "" {
			m.AddContent(cid, string(content))
			continue
		}

		if strings.HasPrefix(part.Header.Get("Content-Disposition"), "attachment") {
			filename := partFilename(part, params)
			if filename == "" {
				slog.Warn("attachment part without a filename, skipping",
					"content_type", mediaType,
				)
				continue
			}
			m.AddAttachmentContent(filename, string(content))
			continue
		}

		switch mediaType {
		case "text/plain":
			if m.Text == "" {
				m.SetText(string(content))
			}
		case "text/html":
			if m.HTML == "" {
				m.SetHTML(string(content))
			}
		default:
			// A filename marks an attachment even without the disposition
			if filename := partFilename(part, params); filename != "" {
				m.AddAttachmentContent(filename, string(content))
			} else {
				slog.Warn("unrecognized MIME part, skipping",
					"content_type", mediaType,
				)
			}
		}
	}

	return nil
}

// readPartContent reads the full content of a MIME part, handling
// Content-Transfer-Encoding (base64, quoted-printable).
func readPartContent(part *multipart.Part) ([]byte, error) {
	encoding := part.Header.Get("Content-Transfer-Encoding")
	encoding = strings.ToLower(strings.TrimSpace(encoding))

	raw, err := io.ReadAll(part)
	if err != nil {
		return nil, err
	}

	switch encoding {
	case "base64":
		cleaned := strings.NewReplacer("\r", "", "\n", "").Replace(string(raw))
		decoded, err := base64.StdEncoding.DecodeString(cleaned)
		if err != nil {
			// Try with RawStdEncoding for unpadded base64
			decoded, err = base64.RawStdEncoding.DecodeString(cleaned)
			if err != nil {
				return nil, fmt.Errorf("failed to decode base64 content: %w", err)
			}
		}
		return decoded, nil
	default:
		// For "7bit", "8bit", "binary", "quoted-printable", or empty,
		// return raw content. Go's multipart reader handles QP internally.
		return raw, nil
	}
}

// partFilename extracts the filename from a MIME part, checking both
// Content-Disposition and Content-Type parameters.
func partFilename(part *multipart.Part, params map[string]string) string {
	if fn := part.FileName(); fn != "" {
		return fn
	}
	return params["name"]
}

// parseDestination parses a single RFC 5322 address into a Destination.
func parseDestination(raw string) (sendgrid.Destination, error) {
	addr, err := mail.ParseAddress(raw)
	if err != nil {
		return sendgrid.Destination{}, err
	}
	return sendgrid.Destination{Address: addr.Address, Name: addr.Name}, nil
}

// parseDestinationList splits a comma-separated address list into
// Destinations, keeping display names.
func parseDestinationList(raw string) []sendgrid.Destination {
	if raw == "" {
		return nil
	}

	addresses, err := mail.ParseAddressList(raw)
	if err != nil {
		// Fall back to simple comma split if RFC 5322 parsing fails
		parts := strings.Split(raw, ",")
		result := make([]sendgrid.Destination, 0, len(parts))
		for _, p := range parts {
			trimmed := strings.TrimSpace(p)
			if trimmed != "" {
				result = append(result, sendgrid.Destination{Address: trimmed})
			}
		}
		return result
	}

	result := make([]sendgrid.Destination, 0, len(addresses))
	for _, addr := range addresses {
		result = append(result, sendgrid.Destination{Address: addr.Address, Name: addr.Name})
	}
	return result
}
