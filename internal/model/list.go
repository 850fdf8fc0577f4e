// Copyright (c) 2025 Stemma Labs
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

// =============================================================================
// MESSAGE LIST
// =============================================================================

// MessageList is the ordered transcript for a single chat view. It is not
// safe for concurrent use; each view owns exactly one goroutine that
// mutates it.
type MessageList struct {
	messages []Message
}

// NewMessageList creates a list seeded with the given messages.
func NewMessageList(messages []Message) *MessageList {
	l := &MessageList{}
	if len(messages) > 0 {
		l.messages = make([]Message, len(messages))
		copy(l.messages, messages)
	}
	return l
}

// Len returns the number of messages.
func (l *MessageList) Len() int {
	return len(l.messages)
}

// All returns a copy of the transcript in order.
func (l *MessageList) All() []Message {
	out := make([]Message, len(l.messages))
	copy(out, l.messages)
	return out
}

// Last returns the final message, or nil if the list is empty.
func (l *MessageList) Last() *Message {
	if len(l.messages) == 0 {
		return nil
	}
	return &l.messages[len(l.messages)-1]
}

// Append adds a message to the end of the transcript.
func (l *MessageList) Append(m Message) {
	l.messages = append(l.messages, m)
}

// Replace swaps the full transcript for the given messages.
func (l *MessageList) Replace(messages []Message) {
	l.messages = make([]Message, len(messages))
	copy(l.messages, messages)
}

// SetContent replaces the content of the message with the given ID and
// reports whether it was found. Streaming writes each accumulated chunk
// through here.
func (l *MessageList) SetContent(id, content string) bool {
	for i := range l.messages {
		if l.messages[i].ID == id {
			l.messages[i].Content = content
			return true
		}
	}
	return false
}

// Remove deletes the message with the given ID and reports whether it was
// found.
func (l *MessageList) Remove(id string) bool {
	for i := range l.messages {
		if l.messages[i].ID == id {
			l.messages = append(l.messages[:i], l.messages[i+1:]...)
			return true
		}
	}
	return false
}

// SettlePair replaces the trailing pending user and assistant placeholders
// with the last two entries of the authoritative transcript. Both settled
// entries keep server-assigned IDs and content; the rest of the local list
// is untouched. It reports whether a swap happened.
//
// The server appends the exchange in order, so the authoritative tail is
// always user then assistant. If fewer than two pending placeholders remain
// locally (the user dismissed one mid-stream) nothing is changed.
func (l *MessageList) SettlePair(authoritative []Message) bool {
	if len(authoritative) < 2 {
		return false
	}
	var pending []int
	for i := range l.messages {
		if l.messages[i].IsPending() {
			pending = append(pending, i)
		}
	}
	if len(pending) < 2 {
		return false
	}
	userIdx := pending[len(pending)-2]
	asstIdx := pending[len(pending)-1]
	tail := authoritative[len(authoritative)-2:]
	l.messages[userIdx] = tail[0]
	l.messages[asstIdx] = tail[1]
	l.messages[userIdx].State = MessageSettled
	l.messages[asstIdx].State = MessageSettled
	return true
}

// PendingIDs returns the IDs of all pending messages in order.
func (l *MessageList) PendingIDs() []string {
	var ids []string
	for i := range l.messages {
		if l.messages[i].IsPending() {
			ids = append(ids, l.messages[i].ID)
		}
	}
	return ids
}
