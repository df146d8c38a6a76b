package transfer

import "time"

type HealthReport struct {
	Status        string    `json:"status"`
	Users         int64     `json:"users"`
	Posts         int64     `json:"posts"`
	Accounts      int64     `json:"accounts"`
	Conversations int64     `json:"conversations"`
	Timestamp     time.Time `json:"timestamp"`
}
