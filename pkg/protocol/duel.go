package protocol

import (
	"time"

	"golang.org/x/exp/slices"
)

type DuelStatus string

const (
	DuelNone          DuelStatus = "none"
	DuelPendingInvite DuelStatus = "pending-invite"
	DuelActive        DuelStatus = "active"
	DuelFinished      DuelStatus = "finished"
)

type ChallengeConfig struct {
	Name            string         `json:"name,omitempty"`
	Category        string         `json:"category,omitempty"`
	DurationSeconds int            `json:"durationSeconds,omitempty"`
	Options         map[string]any `json:"options,omitempty"`
}

type DuelProgress struct {
	UserID   UserID  `json:"userId"`
	Progress float64 `json:"progress"`
}

type Duel struct {
	ID            DuelID         `json:"id"`
	Participants  []DuelProgress `json:"participants"`
	ChallengeName string         `json:"challengeName,omitempty"`
	StartTime     int64          `json:"startTime,omitempty"` // unix milliseconds, 0 when unknown
	EndTime       int64          `json:"endTime,omitempty"`
}

// DuelPatch is a partial duel update. Nil fields are left untouched.
type DuelPatch struct {
	ID            DuelID         `json:"id,omitempty"`
	Participants  []DuelProgress `json:"participants,omitempty"`
	ChallengeName *string        `json:"challengeName,omitempty"`
	StartTime     *int64         `json:"startTime,omitempty"`
	EndTime       *int64         `json:"endTime,omitempty"`
}

type DuelEnded struct {
	ID       DuelID `json:"id"`
	WinnerID UserID `json:"winnerId,omitempty"`
}

type Invitation struct {
	ID              DuelID          `json:"id"`
	FromUserID      UserID          `json:"fromUserId"`
	FromUserName    string          `json:"fromUserName"`
	ChallengeConfig ChallengeConfig `json:"challengeConfig"`

	ReceivedAt int64 `json:"-"`
}

func (d *Duel) Copy() *Duel {
	if d == nil {
		return nil
	}
	duel := *d
	duel.Participants = slices.Clone(d.Participants)
	return &duel
}

func (d *Duel) Progress(userID UserID) (float64, bool) {
	if d == nil {
		return 0, false
	}
	index := slices.IndexFunc(d.Participants, func(p DuelProgress) bool {
		return p.UserID == userID
	})
	if index < 0 {
		return 0, false
	}
	return d.Participants[index].Progress, true
}

// Status of a held duel. A duel whose end time has passed is finished
// even before the server announces the end.
func (d *Duel) Status(now time.Time) DuelStatus {
	if d == nil {
		return DuelNone
	}
	if d.EndTime > 0 && now.UnixMilli() >= d.EndTime {
		return DuelFinished
	}
	return DuelActive
}

// Apply merges the patch into the duel. Participant entries are matched
// by user id, unknown participants are appended in patch order.
// Returns false when the patch names another duel.
func (d *Duel) Apply(patch *DuelPatch) bool {
	if patch.ID != "" && patch.ID != d.ID {
		return false
	}
	for _, update := range patch.Participants {
		update.Progress = ClampProgress(update.Progress)
		index := slices.IndexFunc(d.Participants, func(p DuelProgress) bool {
			return p.UserID == update.UserID
		})
		if index < 0 {
			d.Participants = append(d.Participants, update)
			continue
		}
		d.Participants[index].Progress = update.Progress
	}
	if patch.ChallengeName != nil {
		d.ChallengeName = *patch.ChallengeName
	}
	if patch.StartTime != nil {
		d.StartTime = *patch.StartTime
	}
	if patch.EndTime != nil {
		d.EndTime = *patch.EndTime
	}
	return true
}

func ClampProgress(progress float64) float64 {
	if progress < 0 {
		return 0
	}
	if progress > 100 {
		return 100
	}
	return progress
}
