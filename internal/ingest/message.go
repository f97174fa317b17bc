package ingest

import (
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/mail"
	"strings"
	"time"
)

// parsedMessage is the header/body subset of an RFC 822 message that
// becomes a document.
type parsedMessage struct {
	ReceivedAt time.Time
	MessageID  string
	Subject    string
	Sender     string
	Body       string
}

// parseRawMessage decodes a raw RFC 822 message. Multipart mail prefers
// the first text/plain part, falling back to text/html, then to the raw
// body.
func parseRawMessage(raw []byte) (*parsedMessage, error) {
	msg, err := mail.ReadMessage(strings.NewReader(string(raw)))
	if err != nil {
		return nil, fmt.Errorf("failed to parse message: %w", err)
	}

	parsed := &parsedMessage{
		MessageID: strings.Trim(msg.Header.Get("Message-ID"), "<>"),
		Subject:   decodeHeader(msg.Header.Get("Subject")),
		Sender:    senderAddress(msg.Header.Get("From")),
	}

	if date, dateErr := msg.Header.Date(); dateErr == nil {
		parsed.ReceivedAt = date
	} else {
		parsed.ReceivedAt = time.Now().UTC()
	}

	body, err := extractBody(msg)
	if err != nil {
		return nil, err
	}
	parsed.Body = body

	return parsed, nil
}

// senderAddress reduces a From header to the bare address when possible.
func senderAddress(from string) string {
	addr, err := mail.ParseAddress(from)
	if err != nil {
		return strings.TrimSpace(from)
	}
	return addr.Address
}

func decodeHeader(value string) string {
	decoder := mime.WordDecoder{}
	decoded, err := decoder.DecodeHeader(value)
	if err != nil {
		return value
	}
	return decoded
}

func extractBody(msg *mail.Message) (string, error) {
	contentType := msg.Header.Get("Content-Type")
	if contentType == "" {
		return readAll(msg.Body)
	}

	mediaType, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		return readAll(msg.Body)
	}

	if !strings.HasPrefix(mediaType, "multipart/") {
		return readAll(msg.Body)
	}

	boundary := params["boundary"]
	if boundary == "" {
		return readAll(msg.Body)
	}

	var htmlBody string
	reader := multipart.NewReader(msg.Body, boundary)
	for {
		part, partErr := reader.NextPart()
		if partErr == io.EOF {
			break
		}
		if partErr != nil {
			break
		}

		partType, _, typeErr := mime.ParseMediaType(part.Header.Get("Content-Type"))
		if typeErr != nil {
			continue
		}

		content, readErr := readAll(part)
		if readErr != nil {
			continue
		}

		switch partType {
		case "text/plain":
			return content, nil
		case "text/html":
			if htmlBody == "" {
				htmlBody = content
			}
		}
	}

	if htmlBody != "" {
		return htmlBody, nil
	}
	return "", fmt.Errorf("no readable body in multipart message")
}

func readAll(r io.Reader) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("failed to read message body: %w", err)
	}
	return string(data), nil
}
