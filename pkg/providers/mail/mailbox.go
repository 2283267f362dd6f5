// Package mail holds the mailbox provider: a thread-indexed in-memory email
// store with model-backed summarization and reply generation, projected into
// agent tools.
package mail

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Email is one message in a thread.
type Email struct {
	ID         string    `json:"email_id"`
	ThreadID   string    `json:"thread_id"`
	Sender     string    `json:"sender"`
	Recipients []string  `json:"recipients"`
	Subject    string    `json:"subject"`
	Body       string    `json:"body"`
	Timestamp  time.Time `json:"timestamp"`
}

// NewEmail fills in generated IDs and the current timestamp where absent.
func NewEmail(sender string, recipients []string, subject, body string) Email {
	return Email{
		ID:         uuid.NewString(),
		ThreadID:   uuid.NewString(),
		Sender:     sender,
		Recipients: recipients,
		Subject:    subject,
		Body:       body,
		Timestamp:  time.Now().UTC(),
	}
}

func (e Email) String() string {
	return fmt.Sprintf("[%s] Thread=%s\nFrom: %s\nTo: %s\nSubject: %s\nBody: %s",
		e.ID, e.ThreadID, e.Sender, strings.Join(e.Recipients, ", "), e.Subject, e.Body)
}

// ThreadInfo pairs a thread ID with its subject for listings.
type ThreadInfo struct {
	ThreadID string `json:"thread_id"`
	Subject  string `json:"subject"`
}

// Mailbox is a simplified email store with a thread index. Threads keep
// insertion order; safe for concurrent use.
type Mailbox struct {
	mu          sync.RWMutex
	emails      map[string]Email
	threads     map[string][]string
	threadOrder []string
}

func NewMailbox() *Mailbox {
	return &Mailbox{
		emails:  map[string]Email{},
		threads: map[string][]string{},
	}
}

// Add stores an email, updating in place when the ID already exists.
func (mb *Mailbox) Add(e Email) {
	mb.mu.Lock()
	defer mb.mu.Unlock()
	_, existed := mb.emails[e.ID]
	mb.emails[e.ID] = e
	if _, ok := mb.threads[e.ThreadID]; !ok {
		mb.threads[e.ThreadID] = nil
		mb.threadOrder = append(mb.threadOrder, e.ThreadID)
	}
	if !existed {
		mb.threads[e.ThreadID] = append(mb.threads[e.ThreadID], e.ID)
	}
}

// Get looks up an email by ID.
func (mb *Mailbox) Get(id string) (Email, bool) {
	mb.mu.RLock()
	defer mb.mu.RUnlock()
	e, ok := mb.emails[id]
	return e, ok
}

// ThreadEmails returns a thread's emails in insertion order.
func (mb *Mailbox) ThreadEmails(threadID string) []Email {
	mb.mu.RLock()
	defer mb.mu.RUnlock()
	ids := mb.threads[threadID]
	out := make([]Email, 0, len(ids))
	for _, id := range ids {
		out = append(out, mb.emails[id])
	}
	return out
}

// ThreadEmailsAsString renders a thread as one block plus per-email lines,
// each email numbered from 1.
func (mb *Mailbox) ThreadEmailsAsString(threadID string) (string, []string) {
	emails := mb.ThreadEmails(threadID)
	lines := make([]string, 0, len(emails))
	for i, e := range emails {
		lines = append(lines, fmt.Sprintf("Email (%d) %s", i+1, e))
	}
	return strings.Join(lines, "\n\n"), lines
}

// Delete removes an email; an emptied thread is dropped from the index.
func (mb *Mailbox) Delete(id string) bool {
	mb.mu.Lock()
	defer mb.mu.Unlock()
	e, ok := mb.emails[id]
	if !ok {
		return false
	}
	delete(mb.emails, id)
	ids := mb.threads[e.ThreadID]
	for i, eid := range ids {
		if eid == id {
			ids = append(ids[:i], ids[i+1:]...)
			break
		}
	}
	if len(ids) == 0 {
		delete(mb.threads, e.ThreadID)
		for i, tid := range mb.threadOrder {
			if tid == e.ThreadID {
				mb.threadOrder = append(mb.threadOrder[:i], mb.threadOrder[i+1:]...)
				break
			}
		}
	} else {
		mb.threads[e.ThreadID] = ids
	}
	return true
}

// ListThreads returns thread IDs with subjects in insertion order.
func (mb *Mailbox) ListThreads() []ThreadInfo {
	mb.mu.RLock()
	defer mb.mu.RUnlock()
	out := make([]ThreadInfo, 0, len(mb.threadOrder))
	for _, tid := range mb.threadOrder {
		out = append(out, ThreadInfo{ThreadID: tid, Subject: mb.threadSubjectLocked(tid)})
	}
	return out
}

// ThreadSubject takes the first email's subject as the thread's subject.
func (mb *Mailbox) ThreadSubject(threadID string) string {
	mb.mu.RLock()
	defer mb.mu.RUnlock()
	return mb.threadSubjectLocked(threadID)
}

func (mb *Mailbox) threadSubjectLocked(threadID string) string {
	ids := mb.threads[threadID]
	if len(ids) == 0 {
		return "[Empty Thread]"
	}
	return mb.emails[ids[0]].Subject
}

// StateString renders the mailbox for display.
func (mb *Mailbox) StateString() string {
	threads := mb.ListThreads()
	if len(threads) == 0 {
		return "The mailbox is empty."
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Total threads: %d\n", len(threads))
	b.WriteString(strings.Repeat("-", 40) + "\n")
	for i, info := range threads {
		fmt.Fprintf(&b, "THREAD #%d\n", i+1)
		fmt.Fprintf(&b, "  - ID: %s\n", info.ThreadID)
		fmt.Fprintf(&b, "  - Subject: %s\n", info.Subject)
		emails := mb.ThreadEmails(info.ThreadID)
		fmt.Fprintf(&b, "  - Emails: %d\n", len(emails))
		if len(emails) > 0 {
			last := emails[len(emails)-1]
			preview := last.Body
			if len(preview) > 250 {
				preview = preview[:250] + "..."
			}
			b.WriteString("  - Last email:\n")
			fmt.Fprintf(&b, "    - From: %s\n", last.Sender)
			fmt.Fprintf(&b, "    - To: %s\n", strings.Join(last.Recipients, ", "))
			fmt.Fprintf(&b, "    - Date: %s\n", last.Timestamp.Format("02.01.2006 15:04"))
			fmt.Fprintf(&b, "    - Text: %s\n", preview)
		}
		if i < len(threads)-1 {
			b.WriteString(strings.Repeat("-", 30) + "\n")
		}
	}
	return strings.TrimRight(b.String(), "\n")
}
