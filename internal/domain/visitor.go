package domain

import (
	"fmt"
	"math"
	"strings"
	"time"
)

type MeetingStatus string

const (
	MeetingPending   MeetingStatus = "Pending"
	MeetingCompleted MeetingStatus = "Completed"
	MeetingCancelled MeetingStatus = "Cancelled"
	MeetingNoShow    MeetingStatus = "No Show"
)

func ParseMeetingStatus(s string) (MeetingStatus, bool) {
	switch MeetingStatus(s) {
	case MeetingPending, MeetingCompleted, MeetingCancelled, MeetingNoShow:
		return MeetingStatus(s), true
	default:
		return "", false
	}
}

// IsTerminal reports whether the status is an outcome state. A meeting
// leaves Pending exactly once.
func (s MeetingStatus) IsTerminal() bool {
	return s == MeetingCompleted || s == MeetingCancelled || s == MeetingNoShow
}

// CanTransitionTo permits Pending -> any status and re-asserting the
// current status; a terminal status cannot be changed to another.
func (s MeetingStatus) CanTransitionTo(next MeetingStatus) bool {
	if s == next {
		return true
	}
	return s == MeetingPending
}

type Visitor struct {
	ID              int64         `json:"_id"`
	VisitorNumber   string        `json:"visitorNumber"`
	Name            string        `json:"name"`
	Mobile          string        `json:"mobile"`
	ContactPersonID int64         `json:"contactPersonId"`
	Purpose         string        `json:"purpose"`
	NumberOfPersons int           `json:"numberOfPersons"`
	VehicleNumber   *string       `json:"vehicleNumber"`
	InTime          *time.Time    `json:"inTime"`
	OutTime         *time.Time    `json:"outTime"`
	TotalTimeSpent  *int          `json:"totalTimeSpent"`
	PhotoURL        *string       `json:"photoUrl"`
	MeetingStatus   MeetingStatus `json:"meetingStatus"`
	CreatedBy       int64         `json:"createdBy"`
	CreatedAt       time.Time     `json:"createdAt"`
	UpdatedAt       time.Time     `json:"updatedAt"`
}

// ContactPersonInfo mirrors the populated contact person returned on
// admin/security listings.
type ContactPersonInfo struct {
	ID       int64  `json:"_id"`
	Username string `json:"username"`
	Role     Role   `json:"role"`
}

// VisitorWithContact is a Visitor joined with its contact person.
type VisitorWithContact struct {
	Visitor
	ContactPerson *ContactPersonInfo `json:"contactPerson,omitempty"`
}

type CreateVisitorRequest struct {
	VisitorNumber   string        `json:"visitorNumber"`
	Name            string        `json:"name"`
	Mobile          string        `json:"mobile"`
	ContactPersonID int64         `json:"contactPersonId"`
	Purpose         string        `json:"purpose"`
	NumberOfPersons int           `json:"numberOfPersons"`
	VehicleNumber   *string       `json:"vehicleNumber"`
	InTime          *time.Time    `json:"inTime"`
	OutTime         *time.Time    `json:"outTime"`
	PhotoURL        *string       `json:"photoUrl"`
	MeetingStatus   MeetingStatus `json:"meetingStatus"`
}

func (r *CreateVisitorRequest) Normalize() {
	r.VisitorNumber = strings.TrimSpace(r.VisitorNumber)
	r.Name = strings.TrimSpace(r.Name)
	r.Mobile = strings.TrimSpace(r.Mobile)
	r.Purpose = strings.TrimSpace(r.Purpose)
	if r.NumberOfPersons <= 0 {
		r.NumberOfPersons = 1
	}
	if r.MeetingStatus == "" {
		r.MeetingStatus = MeetingPending
	}
}

func (r *CreateVisitorRequest) Validate() error {
	if r.VisitorNumber == "" {
		return fmt.Errorf("%w: visitorNumber is required", ErrValidation)
	}
	if r.Name == "" {
		return fmt.Errorf("%w: name is required", ErrValidation)
	}
	if r.Mobile == "" {
		return fmt.Errorf("%w: mobile is required", ErrValidation)
	}
	if r.ContactPersonID == 0 {
		return fmt.Errorf("%w: contactPersonId is required", ErrValidation)
	}
	if r.Purpose == "" {
		return fmt.Errorf("%w: purpose is required", ErrValidation)
	}
	if _, ok := ParseMeetingStatus(string(r.MeetingStatus)); !ok {
		return fmt.Errorf("%w: invalid meetingStatus %q", ErrValidation, r.MeetingStatus)
	}
	return nil
}

// VisitorPatch is the partial update applied on check-in. Nil fields are
// left untouched.
type VisitorPatch struct {
	Name            *string    `json:"name,omitempty"`
	Mobile          *string    `json:"mobile,omitempty"`
	Purpose         *string    `json:"purpose,omitempty"`
	NumberOfPersons *int       `json:"numberOfPersons,omitempty"`
	VehicleNumber   *string    `json:"vehicleNumber,omitempty"`
	InTime          *time.Time `json:"inTime,omitempty"`
	OutTime         *time.Time `json:"outTime,omitempty"`
	PhotoURL        *string    `json:"photoUrl,omitempty"`
}

type UpdateMeetingRequest struct {
	MeetingStatus string `json:"meetingStatus"`
	OutTime       string `json:"outTime"`
}

// TotalMinutes implements the derived totalTimeSpent field: whole
// minutes between in and out, rounded.
func TotalMinutes(in, out time.Time) int {
	return int(math.Round(out.Sub(in).Minutes()))
}
