package model

import "time"

// Account is a manager who owns surveys and is billed per completed session
type Account struct {
	ID                     string    `json:"id" bson:"_id"`
	Email                  string    `json:"email" bson:"email"`
	PasswordHash           string    `json:"-" bson:"passwordHash"`
	Plan                   string    `json:"plan" bson:"plan"`
	ResponsesUsedThisMonth int64     `json:"responsesUsedThisMonth" bson:"responsesUsedThisMonth"`
	CreatedAt              time.Time `json:"createdAt" bson:"createdAt"`
}
