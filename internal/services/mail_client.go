package services

import (
	"bytes"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net"
	"net/mail"
	"strings"
	"time"

	"github.com/emersion/go-imap"
	"github.com/emersion/go-imap/client"
	id "github.com/emersion/go-imap-id"
	"github.com/emersion/go-message"
	_ "github.com/emersion/go-message/charset"

	"github.com/bambinounos/eia/internal/config"
)

var (
	// ErrConnectionFailed indicates the IMAP session could not be
	// established or maintained. Account-fatal for the current cycle.
	ErrConnectionFailed = errors.New("IMAP connection failed")
	// ErrFetchFailed indicates a mid-fetch error; the remaining sequence
	// for the folder is abandoned and the session must be reopened
	ErrFetchFailed = errors.New("IMAP fetch failed")
)

const (
	dialTimeout    = 10 * time.Second
	commandTimeout = 2 * time.Minute
	fetchBatchSize = 20
)

// RawMessage is one unread message pulled from the server. The UID is
// unique within (account, folder) but not globally. Transient; never
// persisted directly.
type RawMessage struct {
	UID     uint32
	Subject string
	Sender  string
	Body    string
	Folder  string
}

// MailConnector is the session contract the scan orchestrator depends on.
// A connector owns exactly one authenticated session; it is not shared
// across concurrent runs.
type MailConnector interface {
	// FetchUnread returns the messages not yet flagged seen in the folder.
	// The returned set is a snapshot: a second call re-queries the server
	// and may return a different, possibly overlapping, set.
	FetchUnread(folder string) ([]RawMessage, error)
	// MarkRead flags the given UIDs as seen. Best-effort: the ledger, not
	// the server flag, is the authoritative record of processing.
	MarkRead(folder string, uids []uint32) error
	// Close releases the session. Always invoked on scope exit.
	Close() error
}

// ConnectorDialer opens a connector for one account. Injected into the
// orchestrator so tests can substitute an in-memory mailbox.
type ConnectorDialer func(account config.EmailAccount) (MailConnector, error)

// IMAPConnector is the production MailConnector over go-imap
type IMAPConnector struct {
	client         *client.Client
	account        string
	selectedFolder string
}

// DialIMAP establishes an authenticated IMAP session for the account
func DialIMAP(account config.EmailAccount) (MailConnector, error) {
	addr := fmt.Sprintf("%s:%d", account.IMAPServer, account.IMAPPort)
	dialer := &net.Dialer{Timeout: dialTimeout}

	var c *client.Client
	if account.UseSSL {
		tlsConfig := &tls.Config{ServerName: account.IMAPServer}
		conn, err := tls.DialWithDialer(dialer, "tcp", addr, tlsConfig)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrConnectionFailed, err)
		}
		c, err = client.New(conn)
		if err != nil {
			conn.Close()
			return nil, fmt.Errorf("%w: %v", ErrConnectionFailed, err)
		}
	} else {
		conn, err := dialer.Dial("tcp", addr)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrConnectionFailed, err)
		}
		c, err = client.New(conn)
		if err != nil {
			conn.Close()
			return nil, fmt.Errorf("%w: %v", ErrConnectionFailed, err)
		}
	}

	c.Timeout = commandTimeout

	// Some providers require client identification before login
	if ok, _ := c.Support("ID"); ok {
		idClient := id.NewClient(c)
		_, _ = idClient.ID(id.ID{
			id.FieldName:    "EIA",
			id.FieldVersion: "0.1.0",
		})
	}

	if err := c.Login(account.Email, account.Password); err != nil {
		c.Logout()
		return nil, fmt.Errorf("%w: login failed: %v", ErrConnectionFailed, err)
	}

	return &IMAPConnector{client: c, account: account.Email}, nil
}

// FetchUnread selects the folder and retrieves every message without the
// seen flag: UID search first, then batched UID fetches of the full body
// with the peek flag so the fetch itself does not mark anything read.
func (c *IMAPConnector) FetchUnread(folder string) ([]RawMessage, error) {
	if err := c.selectFolder(folder); err != nil {
		return nil, err
	}

	criteria := imap.NewSearchCriteria()
	criteria.WithoutFlags = []string{imap.SeenFlag}
	uids, err := c.client.UidSearch(criteria)
	if err != nil {
		return nil, fmt.Errorf("%w: search in %q: %v", ErrFetchFailed, folder, err)
	}
	if len(uids) == 0 {
		return nil, nil
	}

	section := &imap.BodySectionName{Peek: true}
	items := []imap.FetchItem{imap.FetchUid, imap.FetchEnvelope, section.FetchItem()}

	var fetched []RawMessage
	for start := 0; start < len(uids); start += fetchBatchSize {
		end := start + fetchBatchSize
		if end > len(uids) {
			end = len(uids)
		}

		uidSet := new(imap.SeqSet)
		uidSet.AddNum(uids[start:end]...)

		messages := make(chan *imap.Message, fetchBatchSize)
		done := make(chan error, 1)
		go func() {
			done <- c.client.UidFetch(uidSet, items, messages)
		}()

		for msg := range messages {
			if msg == nil {
				continue
			}
			fetched = append(fetched, c.buildRawMessage(msg, section, folder))
		}

		if err := <-done; err != nil {
			// Abort the remaining sequence; the next cycle starts from a
			// clean session and the ledger keeps earlier work safe
			return nil, fmt.Errorf("%w: fetch in %q: %v", ErrFetchFailed, folder, err)
		}
	}

	return fetched, nil
}

func (c *IMAPConnector) selectFolder(folder string) error {
	if c.selectedFolder == folder {
		return nil
	}
	if _, err := c.client.Select(folder, false); err != nil {
		return fmt.Errorf("%w: select %q: %v", ErrFetchFailed, folder, err)
	}
	c.selectedFolder = folder
	return nil
}

func (c *IMAPConnector) buildRawMessage(msg *imap.Message, section *imap.BodySectionName, folder string) RawMessage {
	raw := RawMessage{
		UID:    msg.Uid,
		Folder: folder,
	}
	if msg.Envelope != nil {
		raw.Subject = msg.Envelope.Subject
		if len(msg.Envelope.From) > 0 {
			raw.Sender = formatAddress(msg.Envelope.From[0])
		}
	}
	if literal := msg.GetBody(section); literal != nil {
		content, err := io.ReadAll(literal)
		if err == nil && len(content) > 0 {
			raw.Body = extractPlainText(content)
		}
	}
	return raw
}

// MarkRead adds the seen flag to the given UIDs in one silent store
func (c *IMAPConnector) MarkRead(folder string, uids []uint32) error {
	if len(uids) == 0 {
		return nil
	}
	if err := c.selectFolder(folder); err != nil {
		return err
	}

	uidSet := new(imap.SeqSet)
	uidSet.AddNum(uids...)
	item := imap.FormatFlagsOp(imap.AddFlags, true)
	flags := []interface{}{imap.SeenFlag}
	if err := c.client.UidStore(uidSet, item, flags, nil); err != nil {
		return fmt.Errorf("mark read in %q: %w", folder, err)
	}
	return nil
}

// Close logs out the session
func (c *IMAPConnector) Close() error {
	return c.client.Logout()
}

// extractPlainText parses the raw RFC822 content and returns the first
// non-attachment text/plain part. Falls back to net/mail when go-message
// rejects the input.
func extractPlainText(content []byte) string {
	r := bytes.NewReader(content)
	entity, err := message.Read(r)
	if err != nil && !message.IsUnknownCharset(err) {
		r.Seek(0, io.SeekStart)
		m, err := mail.ReadMessage(r)
		if err != nil {
			return ""
		}
		body, _ := io.ReadAll(m.Body)
		return string(body)
	}
	return textFromEntity(entity)
}

// textFromEntity walks the MIME tree for the first plain-text body part
func textFromEntity(entity *message.Entity) string {
	mediaType, _, _ := entity.Header.ContentType()

	if strings.HasPrefix(mediaType, "multipart/") {
		mr := entity.MultipartReader()
		for {
			part, err := mr.NextPart()
			if err != nil {
				return ""
			}
			if text := textFromEntity(part); text != "" {
				return text
			}
		}
	}

	if mediaType == "text/plain" || mediaType == "" {
		disposition := entity.Header.Get("Content-Disposition")
		if strings.HasPrefix(strings.ToLower(disposition), "attachment") {
			return ""
		}
		body, _ := io.ReadAll(entity.Body)
		return string(body)
	}

	return ""
}

// formatAddress formats an IMAP address to a display string
func formatAddress(addr *imap.Address) string {
	if addr.PersonalName != "" {
		return fmt.Sprintf("%s <%s@%s>", addr.PersonalName, addr.MailboxName, addr.HostName)
	}
	return fmt.Sprintf("%s@%s", addr.MailboxName, addr.HostName)
}

// CheckIMAPConnection dials and immediately closes a session, used by the
// CLI to probe account credentials without running a scan.
func CheckIMAPConnection(account config.EmailAccount) error {
	conn, err := DialIMAP(account)
	if err != nil {
		return err
	}
	return conn.Close()
}
