package models

import (
	"strings"
	"time"
)

// Section is one of the fixed topical categories an entry is filed under.
type Section string

const (
	SectionMemories Section = "memories"
	SectionActions  Section = "actions"
	SectionSilver   Section = "silver"
	SectionNews     Section = "news"
)

// Sections lists every recognized section in display order.
var Sections = []Section{SectionMemories, SectionActions, SectionSilver, SectionNews}

// ParseSection reports whether s names a recognized section.
func ParseSection(s string) (Section, bool) {
	switch Section(strings.TrimSpace(s)) {
	case SectionMemories:
		return SectionMemories, true
	case SectionActions:
		return SectionActions, true
	case SectionSilver:
		return SectionSilver, true
	case SectionNews:
		return SectionNews, true
	}
	return "", false
}

// OrDefault maps unknown values to memories so rendering never fails.
func (s Section) OrDefault() Section {
	if parsed, ok := ParseSection(string(s)); ok {
		return parsed
	}
	return SectionMemories
}

// Title returns the human readable section name.
func (s Section) Title() string {
	switch s {
	case SectionMemories:
		return "19 Years"
	case SectionActions:
		return "Action for Change"
	case SectionSilver:
		return "Silver Threads"
	case SectionNews:
		return "News & Events"
	default:
		return "Home"
	}
}

// Page returns the relative path of the section's public page.
func (s Section) Page() string {
	switch s {
	case SectionMemories:
		return "../nineteen-years/"
	case SectionActions:
		return "../action-for-change/"
	case SectionSilver:
		return "../support/"
	case SectionNews:
		return "../news-events/"
	default:
		return "../home/"
	}
}

// FeedID returns the element id a section's feed renders into.
func (s Section) FeedID() string {
	switch s {
	case SectionActions:
		return "feed-actions"
	case SectionSilver:
		return "feed-silver"
	case SectionNews:
		return "news-list"
	default:
		return "feed-memories"
	}
}

// Entry is a single user-submitted record. Field names in tags are the
// persisted schema and must not change.
type Entry struct {
	ID        string     `json:"id" firestore:"-"`
	Section   Section    `json:"section" firestore:"section"`
	Author    string     `json:"author" firestore:"author"`
	Email     string     `json:"email" firestore:"email"`
	Credits   string     `json:"credits" firestore:"credits"`
	Title     string     `json:"title" firestore:"title"`
	Content   string     `json:"content" firestore:"content"`
	EventDate string     `json:"eventDate" firestore:"eventDate"`
	MediaURL  string     `json:"mediaURL" firestore:"mediaURL"`
	MediaType string     `json:"mediaType" firestore:"mediaType"`
	Verified  bool       `json:"verified" firestore:"verified"`
	PostedAt  *time.Time `json:"postedAt" firestore:"postedAt"`
}

// HasMedia reports whether the entry carries an attachment.
func (e Entry) HasMedia() bool {
	return e.MediaURL != "" && e.MediaType != ""
}

// DisplayAuthor returns the author or "Anonymous" when none was given.
func (e Entry) DisplayAuthor() string {
	if a := strings.TrimSpace(e.Author); a != "" {
		return a
	}
	return "Anonymous"
}

// EntryUpdate is a partial field update. Nil fields are left untouched.
// Verified is only ever set by approval.
type EntryUpdate struct {
	Author    *string
	Credits   *string
	Title     *string
	Content   *string
	EventDate *string
	Section   *Section
	Verified  *bool
}

// IsEmpty reports whether the update carries no fields.
func (u EntryUpdate) IsEmpty() bool {
	return u.Author == nil && u.Credits == nil && u.Title == nil && u.Content == nil &&
		u.EventDate == nil && u.Section == nil && u.Verified == nil
}

// Apply copies the set fields of u onto e.
func (u EntryUpdate) Apply(e *Entry) {
	if u.Author != nil {
		e.Author = *u.Author
	}
	if u.Credits != nil {
		e.Credits = *u.Credits
	}
	if u.Title != nil {
		e.Title = *u.Title
	}
	if u.Content != nil {
		e.Content = *u.Content
	}
	if u.EventDate != nil {
		e.EventDate = *u.EventDate
	}
	if u.Section != nil {
		e.Section = *u.Section
	}
	if u.Verified != nil {
		e.Verified = *u.Verified
	}
}
