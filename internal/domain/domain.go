package domain

import "time"

type Entry struct {
	Created time.Time
	Title   string
	Text    string
	Topics  string
}

type SummaryRecord struct {
	ID         string    `json:"id"`
	Model      string    `json:"model"`
	EntryCount int       `json:"entryCount"`
	TopicFocus string    `json:"topicFocus"`
	Summary    string    `json:"summary"`
	CreatedAt  time.Time `json:"createdAt"`
}

type SummarizeResponse struct {
	Summary string `json:"summary"`
}
