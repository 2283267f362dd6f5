package mail

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/arodchenko/deskagent/pkg/adapters/llm"
	"github.com/arodchenko/deskagent/pkg/errmodel"
)

const summarizeSystemPrompt = "You are a system for summarizing email threads. " +
	"You receive the entire correspondence as one block of text. " +
	"Read the whole text and produce a short, accurate summary of the main ideas, " +
	"participants, key decisions and any important actions discussed. " +
	"Be clear and structured, without unnecessary detail. " +
	"Reply with the summary text only, no extra formatting or explanations."

// SummarizeThread asks the model for a summary of the thread's full text.
// An empty or unknown thread yields a validation error.
func SummarizeThread(ctx context.Context, mb *Mailbox, threadID string, model llm.LLM) (string, error) {
	emails := mb.ThreadEmails(threadID)
	if len(emails) == 0 {
		return "", errmodel.Validation("not_found",
			fmt.Sprintf("thread %q is empty or does not exist", threadID), nil)
	}
	var full strings.Builder
	for _, e := range emails {
		fmt.Fprintf(&full, "\nFrom: %s\nSubject: %s\nBody:\n%s\n---\n", e.Sender, e.Subject, e.Body)
	}
	user := fmt.Sprintf("Full text of the thread:\n%s\n\n---\nTask:\n"+
		"Write a short summary covering the main points of the correspondence, "+
		"key requests or agreements, and the participants and their roles where relevant. "+
		"Output nothing but the summary text.", full.String())

	res, err := model.Generate(ctx, []llm.Message{
		{Role: llm.RoleSystem, Content: summarizeSystemPrompt},
		{Role: llm.RoleUser, Content: user},
	}, nil)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(res.Text), nil
}

func replySystemPrompt(senderAddress string) string {
	return "You are a system for drafting replies to emails. " +
		"You receive the whole thread, then the text of the last email that needs a reply. " +
		"Write a polite, clear reply grounded in the context of all previous emails, " +
		"addressing the details of the last one. Output the reply text only, no extra formatting.\n\n" +
		"Important: if the last email was sent from the same address you are replying from " +
		"(that is, its 'From' matches " + senderAddress + "), keep speaking as the same person. " +
		"Do not pretend to be someone else; continue or clarify the previous thought in the same tone.\n\n" +
		"If an additional comment or instruction is provided, use it to shape the reply: " +
		"it may say what to include, what tone to use, or which questions to address. " +
		"Follow it while keeping the text natural and coherent."
}

// GenerateReply drafts a reply to the thread's last email and appends it to
// the mailbox. Recipients are the last email's participants minus the
// sender address; when that leaves nobody, the last sender is used.
func GenerateReply(ctx context.Context, mb *Mailbox, threadID string, model llm.LLM, senderAddress, comment string) (Email, error) {
	emails := mb.ThreadEmails(threadID)
	if len(emails) == 0 {
		return Email{}, errmodel.Validation("not_found",
			fmt.Sprintf("thread %q is empty or does not exist", threadID), nil)
	}
	threadString, lines := mb.ThreadEmailsAsString(threadID)
	last := emails[len(emails)-1]

	parts := []string{
		"The entire thread:",
		threadString,
		"\n---",
		"Text of the last email (the one to reply to):",
		lines[len(lines)-1],
		"\n---",
		"Task:",
		"Write a short polite reply (the email body), using the context of the whole thread and the details of the last message.",
		fmt.Sprintf("If the last email was sent from your own address (%s), continue the conversation in the same voice and style.", senderAddress),
	}
	if comment != "" {
		parts = append(parts, "\n---", "Additional instruction/comment for the reply:", comment)
	}

	res, err := model.Generate(ctx, []llm.Message{
		{Role: llm.RoleSystem, Content: replySystemPrompt(senderAddress)},
		{Role: llm.RoleUser, Content: strings.Join(parts, "\n")},
	}, nil)
	if err != nil {
		return Email{}, err
	}

	participants := map[string]bool{last.Sender: true}
	for _, r := range last.Recipients {
		participants[r] = true
	}
	delete(participants, senderAddress)
	var to []string
	for p := range participants {
		to = append(to, p)
	}
	sort.Strings(to)
	if len(to) == 0 && last.Sender != senderAddress {
		to = []string{last.Sender}
	}

	reply := Email{
		ID:         uuid.NewString(),
		ThreadID:   threadID,
		Sender:     senderAddress,
		Recipients: to,
		Subject:    last.Subject,
		Body:       strings.TrimSpace(res.Text),
		Timestamp:  time.Now().UTC(),
	}
	mb.Add(reply)
	return reply, nil
}
