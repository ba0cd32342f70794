package gcp

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"mime"
	"mime/quotedprintable"
	"net/mail"
	"strings"
	"time"

	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"

	"github.com/Lllllllleong/intakeledger/internal/notify"
)

// recipientHeaders are searched in order when resolving the intake address.
var recipientHeaders = []string{"Delivered-To", "X-Original-To", "To", "Cc"}

// NewGmailService creates a Gmail API client.
func NewGmailService(ctx context.Context, opts ...option.ClientOption) (*gmail.Service, error) {
	if len(opts) == 0 {
		opts = []option.ClientOption{option.WithScopes(gmail.GmailModifyScope)}
	}
	service, err := gmail.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create gmail service: %w", err)
	}
	return service, nil
}

// GmailSender sends notifications from a fixed address.
type GmailSender struct {
	service *gmail.Service
	mailbox string
	from    string
	now     func() time.Time
}

// NewGmailSender creates a sender for mailbox ("me" for the credential's own).
func NewGmailSender(service *gmail.Service, mailbox, from string) *GmailSender {
	return &GmailSender{service: service, mailbox: mailbox, from: from, now: time.Now}
}

// Send delivers msg through users.messages.send.
func (s *GmailSender) Send(ctx context.Context, msg notify.Message) error {
	raw, err := buildMessage(s.from, msg, s.now())
	if err != nil {
		return err
	}
	_, err = s.service.Users.Messages.Send(s.mailbox, &gmail.Message{
		Raw: base64.URLEncoding.EncodeToString(raw),
	}).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("failed to send message to %s: %w", msg.To, err)
	}
	return nil
}

// buildMessage renders an RFC 2822 plain-text message.
func buildMessage(from string, msg notify.Message, now time.Time) ([]byte, error) {
	to, err := mail.ParseAddress(msg.To)
	if err != nil {
		return nil, fmt.Errorf("failed to parse recipient %q: %w", msg.To, err)
	}

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "From: %s\r\n", from)
	fmt.Fprintf(&buf, "To: %s\r\n", to.String())
	fmt.Fprintf(&buf, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", msg.Subject))
	fmt.Fprintf(&buf, "Date: %s\r\n", now.Format(time.RFC1123Z))
	buf.WriteString("MIME-Version: 1.0\r\n")
	buf.WriteString("Content-Type: text/plain; charset=\"UTF-8\"\r\n")
	buf.WriteString("Content-Transfer-Encoding: quoted-printable\r\n\r\n")

	qp := quotedprintable.NewWriter(&buf)
	if _, err := qp.Write([]byte(msg.Body)); err != nil {
		return nil, fmt.Errorf("failed to encode message body: %w", err)
	}
	if err := qp.Close(); err != nil {
		return nil, fmt.Errorf("failed to encode message body: %w", err)
	}
	return buf.Bytes(), nil
}

// MailAttachment points at one attachment of an inbound message.
type MailAttachment struct {
	Filename     string
	MimeType     string
	Size         int64
	AttachmentID string
	// inline holds small bodies the API returns with the message itself.
	inline string
}

// MailMessage is an inbound message resolved to recipients and attachments.
type MailMessage struct {
	ID          string
	Recipients  []string
	Attachments []MailAttachment
}

// MailResolver reads inbound messages from a mailbox.
type MailResolver struct {
	service *gmail.Service
	mailbox string
}

// NewMailResolver creates a resolver for mailbox.
func NewMailResolver(service *gmail.Service, mailbox string) *MailResolver {
	return &MailResolver{service: service, mailbox: mailbox}
}

// Resolve fetches message metadata and attachment pointers without
// downloading attachment bodies.
func (r *MailResolver) Resolve(ctx context.Context, messageID string) (MailMessage, error) {
	msg, err := r.service.Users.Messages.Get(r.mailbox, messageID).Format("full").Context(ctx).Do()
	if err != nil {
		return MailMessage{}, fmt.Errorf("failed to get message %s: %w", messageID, err)
	}
	return parseMessage(msg), nil
}

// Download returns the attachment's bytes.
func (r *MailResolver) Download(ctx context.Context, messageID string, att MailAttachment) ([]byte, error) {
	data := att.inline
	if data == "" {
		body, err := r.service.Users.Messages.Attachments.Get(r.mailbox, messageID, att.AttachmentID).Context(ctx).Do()
		if err != nil {
			return nil, fmt.Errorf("failed to get attachment %s of %s: %w", att.Filename, messageID, err)
		}
		data = body.Data
	}
	return decodeBase64URL(data)
}

func parseMessage(msg *gmail.Message) MailMessage {
	out := MailMessage{ID: msg.Id}
	if msg.Payload == nil {
		return out
	}
	out.Recipients = recipients(msg.Payload.Headers)
	walkParts(msg.Payload, func(p *gmail.MessagePart) {
		if p.Filename == "" || p.Body == nil {
			return
		}
		out.Attachments = append(out.Attachments, MailAttachment{
			Filename:     p.Filename,
			MimeType:     p.MimeType,
			Size:         p.Body.Size,
			AttachmentID: p.Body.AttachmentId,
			inline:       p.Body.Data,
		})
	})
	return out
}

func walkParts(p *gmail.MessagePart, fn func(*gmail.MessagePart)) {
	fn(p)
	for _, child := range p.Parts {
		walkParts(child, fn)
	}
}

// recipients returns the distinct bare addresses from the recipient headers.
func recipients(headers []*gmail.MessagePartHeader) []string {
	var out []string
	seen := map[string]bool{}
	for _, name := range recipientHeaders {
		for _, h := range headers {
			if !strings.EqualFold(h.Name, name) {
				continue
			}
			list, err := mail.ParseAddressList(h.Value)
			if err != nil {
				continue
			}
			for _, a := range list {
				addr := strings.ToLower(a.Address)
				if !seen[addr] {
					seen[addr] = true
					out = append(out, addr)
				}
			}
		}
	}
	return out
}

func decodeBase64URL(s string) ([]byte, error) {
	s = strings.TrimRight(s, "=")
	data, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("failed to decode attachment data: %w", err)
	}
	return data, nil
}
