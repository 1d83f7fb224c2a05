package models

import (
	"html"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Topic field names as stored in the topic:<tid> hash
const (
	FieldTID              = "tid"
	FieldUID              = "uid"
	FieldCID              = "cid"
	FieldMainPID          = "mainPid"
	FieldTitle            = "title"
	FieldSlug             = "slug"
	FieldTags             = "tags"
	FieldTimestamp        = "timestamp"
	FieldLastPostTime     = "lastposttime"
	FieldPostCount        = "postcount"
	FieldPosterCount      = "postercount"
	FieldInstructorCount  = "instructorcount"
	FieldViewCount        = "viewcount"
	FieldUpvotes          = "upvotes"
	FieldDownvotes        = "downvotes"
	FieldLocked           = "locked"
	FieldDeleted          = "deleted"
	FieldDeleterUID       = "deleterUid"
	FieldDeletedTimestamp = "deletedTimestamp"
	FieldPinned           = "pinned"
	FieldPinExpiry        = "pinExpiry"
	FieldOldCID           = "oldCid"
)

// Topic is the denormalized topic record read from the keyed store.
// Scheduled, Votes, tag objects and the ISO timestamp mirrors are derived,
// never stored.
type Topic struct {
	TID              int64  `json:"tid"`
	UID              int64  `json:"uid"`
	CID              int64  `json:"cid"`
	MainPID          int64  `json:"mainPid"`
	Title            string `json:"title"`
	Slug             string `json:"slug"`
	Timestamp        int64  `json:"timestamp"`
	LastPostTime     int64  `json:"lastposttime"`
	PostCount        int64  `json:"postcount"`
	PosterCount      int64  `json:"postercount"`
	InstructorCount  int64  `json:"instructorcount"`
	ViewCount        int64  `json:"viewcount"`
	Upvotes          int64  `json:"upvotes"`
	Downvotes        int64  `json:"downvotes"`
	Locked           bool   `json:"locked"`
	Deleted          bool   `json:"deleted"`
	Pinned           bool   `json:"pinned"`
	PinExpiry        int64  `json:"pinExpiry,omitempty"`
	DeleterUID       int64  `json:"deleterUid,omitempty"`
	DeletedTimestamp int64  `json:"deletedTimestamp,omitempty"`
	OldCID           int64  `json:"oldCid,omitempty"`

	// Derived fields
	Votes            int64  `json:"votes"`
	Scheduled        bool   `json:"scheduled"`
	TimestampISO     string `json:"timestampISO"`
	LastPostTimeISO  string `json:"lastposttimeISO"`
	TagObjects       []Tag  `json:"tags"`
}

// Tag is the expanded form of one raw tag value
type Tag struct {
	Value    string `json:"value"`
	Escaped  string `json:"escaped"`
	Encoded  string `json:"encoded"`
	CSSClass string `json:"class"`
}

// Post carries the post attributes the aggregation layer needs when a post
// is attached to or detached from a topic. Posts themselves are owned by an
// external collaborator.
type Post struct {
	PID       int64
	TID       int64
	UID       int64
	ToPID     int64
	Timestamp int64
	Upvotes   int64
	Downvotes int64
	Content   string
}

// Votes returns the net vote score of the post
func (p *Post) Votes() int64 {
	return p.Upvotes - p.Downvotes
}

// ProjectTopic maps raw string fields from the store onto a typed Topic and
// computes the derived fields. It is a pure function: no I/O, `now` is
// supplied by the caller.
func ProjectTopic(fields map[string]string, now time.Time) *Topic {
	t := &Topic{
		TID:              parseInt(fields[FieldTID]),
		UID:              parseInt(fields[FieldUID]),
		CID:              parseInt(fields[FieldCID]),
		MainPID:          parseInt(fields[FieldMainPID]),
		Title:            fields[FieldTitle],
		Slug:             fields[FieldSlug],
		Timestamp:        parseInt(fields[FieldTimestamp]),
		LastPostTime:     parseInt(fields[FieldLastPostTime]),
		PostCount:        parseInt(fields[FieldPostCount]),
		PosterCount:      parseInt(fields[FieldPosterCount]),
		InstructorCount:  parseInt(fields[FieldInstructorCount]),
		ViewCount:        parseInt(fields[FieldViewCount]),
		Upvotes:          parseInt(fields[FieldUpvotes]),
		Downvotes:        parseInt(fields[FieldDownvotes]),
		Locked:           parseBool(fields[FieldLocked]),
		Deleted:          parseBool(fields[FieldDeleted]),
		Pinned:           parseBool(fields[FieldPinned]),
		PinExpiry:        parseInt(fields[FieldPinExpiry]),
		DeleterUID:       parseInt(fields[FieldDeleterUID]),
		DeletedTimestamp: parseInt(fields[FieldDeletedTimestamp]),
		OldCID:           parseInt(fields[FieldOldCID]),
	}

	t.Votes = t.Upvotes - t.Downvotes
	t.Scheduled = t.Timestamp > now.UnixMilli()
	if t.Timestamp > 0 {
		t.TimestampISO = time.UnixMilli(t.Timestamp).UTC().Format(time.RFC3339)
	}
	if t.LastPostTime > 0 {
		t.LastPostTimeISO = time.UnixMilli(t.LastPostTime).UTC().Format(time.RFC3339)
	}
	t.TagObjects = ParseTags(fields[FieldTags])

	return t
}

// ParseTags expands a raw comma-separated tag string into tag objects
func ParseTags(raw string) []Tag {
	if raw == "" {
		return nil
	}

	var tags []Tag
	for _, value := range strings.Split(raw, ",") {
		value = strings.TrimSpace(value)
		if value == "" {
			continue
		}
		tags = append(tags, Tag{
			Value:    value,
			Escaped:  html.EscapeString(value),
			Encoded:  url.QueryEscape(value),
			CSSClass: "tag-" + strings.ReplaceAll(strings.ToLower(value), " ", "-"),
		})
	}
	return tags
}

func parseInt(s string) int64 {
	if s == "" {
		return 0
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0
	}
	return n
}

func parseBool(s string) bool {
	return s == "1" || s == "true"
}
