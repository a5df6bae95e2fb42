package models

import "time"

// PollEventType enum
type PollEventType string

const (
	EventPollCreated PollEventType = "poll.created"
	EventPollUpdated PollEventType = "poll.updated"
	EventPollDeleted PollEventType = "poll.deleted"
	EventPollImage   PollEventType = "poll.image"
	EventVoteUpsert  PollEventType = "vote.upserted"
	EventVoteDeleted PollEventType = "vote.deleted"
)

// PollEvent describes a change to a poll or its votes, as streamed to feed clients
type PollEvent struct {
	Type      PollEventType `json:"type"`
	PollID    uint          `json:"pollId"`
	UserID    uint          `json:"userId,omitempty"` // acting user
	Poll      *PollDTO      `json:"poll,omitempty"`
	Vote      *VoteDTO      `json:"vote,omitempty"`
	Timestamp time.Time     `json:"timestamp"`
}
