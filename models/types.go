// ABOUTME: Data models for relationship-management entities
// ABOUTME: Defines Postman, Interaction, DailyLog, WeeklyPlan, Notice, AdminLog and User
package models

import (
	"time"

	"github.com/google/uuid"
)

// DateLayout is the storage and wire format for calendar dates.
const DateLayout = "2006-01-02"

type User struct {
	ID           uuid.UUID  `json:"id"`
	Name         string     `json:"name"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"-"`
	Role         Role       `json:"role"`
	IsActive     bool       `json:"is_active"`
	CreatedAt    time.Time  `json:"created_at"`
	LastLoginAt  *time.Time `json:"last_login_at,omitempty"`
}

// Postman is a person under relationship management.
type Postman struct {
	ID              uuid.UUID  `json:"id"`
	UserID          uuid.UUID  `json:"user_id"`
	Name            string     `json:"name"`
	Company         string     `json:"company,omitempty"`
	Position        string     `json:"position,omitempty"`
	Phone           string     `json:"phone,omitempty"`
	Email           string     `json:"email,omitempty"`
	Category        Category   `json:"category"`
	Stage           Stage      `json:"stage"`
	GiveScore       int        `json:"give_score"`
	TakeScore       int        `json:"take_score"`
	LastContact     *time.Time `json:"last_contact,omitempty"`
	Notes           string     `json:"notes,omitempty"`
	ProfileImage    string     `json:"profile_image,omitempty"`
	Birthday        *time.Time `json:"birthday,omitempty"`
	Strengths       string     `json:"strengths,omitempty"`
	Interests       string     `json:"interests,omitempty"`
	Goals           string     `json:"goals,omitempty"`
	BusinessSummary string     `json:"business_summary,omitempty"`
	LifePurpose     string     `json:"life_purpose,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// TotalScore is the sum of the give and take counters.
func (p *Postman) TotalScore() int {
	return p.GiveScore + p.TakeScore
}

type Interaction struct {
	ID          uuid.UUID       `json:"id"`
	UserID      uuid.UUID       `json:"user_id"`
	PostmanID   uuid.UUID       `json:"postman_id"`
	Type        InteractionType `json:"type"`
	Category    string          `json:"category"`
	Description string          `json:"description"`
	Date        time.Time       `json:"date"`
	CreatedAt   time.Time       `json:"created_at"`

	// Populated by joins that include the owning postman.
	PostmanName    string `json:"postman_name,omitempty"`
	PostmanCompany string `json:"postman_company,omitempty"`
}

// DailyLog is one journal entry per user per calendar day.
type DailyLog struct {
	ID            uuid.UUID `json:"id"`
	UserID        uuid.UUID `json:"user_id"`
	Date          string    `json:"date"` // YYYY-MM-DD
	Content       string    `json:"content"`
	Goals         string    `json:"goals,omitempty"`
	Achievements  string    `json:"achievements,omitempty"`
	LettersSent   int       `json:"letters_sent"`
	Calls         int       `json:"calls"`
	SocialTouches int       `json:"social_touches"`
	GiftsSent     int       `json:"gifts_sent"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// MaxPlanGoals and MaxMeetingPreps bound a weekly plan.
const (
	MaxPlanGoals    = 3
	MaxMeetingPreps = 3
)

type PlanGoal struct {
	Text   string     `json:"text"`
	Status PlanStatus `json:"status"`
}

// MeetingPrep captures the logistics and follow-up notes for a planned meeting.
type MeetingPrep struct {
	PostmanID   *uuid.UUID `json:"postman_id,omitempty"`
	TargetName  string     `json:"target_name"`
	Purpose     string     `json:"purpose,omitempty"`
	Location    string     `json:"location,omitempty"`
	ScheduledAt string     `json:"scheduled_at,omitempty"`
	Agenda      string     `json:"agenda,omitempty"`
	Notes       string     `json:"notes,omitempty"`
}

type WeeklyPlan struct {
	ID        uuid.UUID              `json:"id"`
	UserID    uuid.UUID              `json:"user_id"`
	WeekStart string                 `json:"week_start"` // YYYY-MM-DD, a Monday
	Goals     [MaxPlanGoals]PlanGoal `json:"goals"`
	Meetings  []MeetingPrep          `json:"meetings,omitempty"`
	CreatedAt time.Time              `json:"created_at"`
	UpdatedAt time.Time              `json:"updated_at"`
}

// PlannedGoals returns the goals that have text.
func (w *WeeklyPlan) PlannedGoals() []PlanGoal {
	var goals []PlanGoal
	for _, g := range w.Goals {
		if g.Text != "" {
			goals = append(goals, g)
		}
	}
	return goals
}

// DoneCount counts planned goals marked DONE.
func (w *WeeklyPlan) DoneCount() int {
	n := 0
	for _, g := range w.PlannedGoals() {
		if g.Status == PlanDone {
			n++
		}
	}
	return n
}

type Notice struct {
	ID        uuid.UUID `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type AdminLog struct {
	ID        uuid.UUID   `json:"id"`
	AdminID   uuid.UUID   `json:"admin_id"`
	Action    AdminAction `json:"action"`
	Detail    string      `json:"detail,omitempty"`
	CreatedAt time.Time   `json:"created_at"`
}
