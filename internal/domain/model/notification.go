package model

import "time"

// Milestone names a reminder checkpoint ahead of a deadline.
type Milestone string

const (
	MilestoneDeadlineMinus7   Milestone = "deadline_minus_7"
	MilestoneDeadlineMinus3   Milestone = "deadline_minus_3"
	MilestoneDeadlineMinus1   Milestone = "deadline_minus_1"
	MilestoneWarrantyReminder Milestone = "warranty_reminder"
)

// DeadlineMilestones maps days-before-deadline to the milestone fired on that day.
var DeadlineMilestones = map[int]Milestone{
	7: MilestoneDeadlineMinus7,
	3: MilestoneDeadlineMinus3,
	1: MilestoneDeadlineMinus1,
}

// DeadlineLeadDays lists the lead times of deadline milestones, furthest first.
var DeadlineLeadDays = []int{7, 3, 1}

// NotificationStatus describes delivery lifecycle of a reminder.
type NotificationStatus string

const (
	NotificationStatusPending NotificationStatus = "pending"
	NotificationStatusSent    NotificationStatus = "sent"
	NotificationStatusFailed  NotificationStatus = "failed"
)

// Terminal reports whether no further transition is allowed.
func (s NotificationStatus) Terminal() bool {
	return s == NotificationStatusSent || s == NotificationStatusFailed
}

// ChannelEmail is the only delivery channel currently supported.
const ChannelEmail = "email"

// Notification is a reminder for one milestone of one order.
type Notification struct {
	ID            int64
	OrderID       int64
	Milestone     Milestone
	ScheduledAt   time.Time
	SentAt        *time.Time
	Status        NotificationStatus
	Channel       string
	AttemptCount  int
	NextAttemptAt time.Time
	LastAttemptAt *time.Time
	LastError     string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Attempt is the outcome of one dispatch attempt, applied to a notification that
// is still pending with ExpectedAttempts recorded attempts.
type Attempt struct {
	ExpectedAttempts int
	Status           NotificationStatus
	AttemptCount     int
	SentAt           *time.Time
	AttemptedAt      time.Time
	NextAttemptAt    time.Time
	Error            string
}

// RunSummary reports what a scheduler run did.
type RunSummary struct {
	Created  int `json:"created"`
	Existing int `json:"existing"`
	Sent     int `json:"sent"`
	Retrying int `json:"retrying"`
	Failed   int `json:"failed"`
	Errors   int `json:"errors"`
}
