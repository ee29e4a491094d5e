package protocol

import "golang.org/x/exp/slices"

type TeamMember struct {
	UserID UserID `json:"userId"`
	Name   string `json:"name,omitempty"`
}

type Contribution struct {
	UserID   UserID  `json:"userId"`
	Progress float64 `json:"progress"`
}

type Mission struct {
	ID            MissionID      `json:"id"`
	Name          string         `json:"name"`
	Progress      float64        `json:"progress"`
	Contributions []Contribution `json:"contributions"`
}

type Team struct {
	ID      TeamID       `json:"id"`
	Name    string       `json:"name,omitempty"`
	Members []TeamMember `json:"members"`
	Mission *Mission     `json:"activeMission,omitempty"`
}

type MissionConfig struct {
	Name            string         `json:"name"`
	Goal            float64        `json:"goal,omitempty"`
	DurationSeconds int            `json:"durationSeconds,omitempty"`
	Options         map[string]any `json:"options,omitempty"`
}

// MissionPatch is a partial mission update. Nil fields are left untouched.
type MissionPatch struct {
	TeamID        TeamID         `json:"teamId,omitempty"`
	MissionID     MissionID      `json:"missionId,omitempty"`
	Name          *string        `json:"name,omitempty"`
	Progress      *float64       `json:"progress,omitempty"`
	Contributions []Contribution `json:"contributions,omitempty"`
}

func (m *Mission) Copy() *Mission {
	if m == nil {
		return nil
	}
	mission := *m
	mission.Contributions = slices.Clone(m.Contributions)
	return &mission
}

func (t *Team) Copy() *Team {
	if t == nil {
		return nil
	}
	team := *t
	team.Members = slices.Clone(t.Members)
	team.Mission = t.Mission.Copy()
	return &team
}

func (t *Team) HasMember(userID UserID) bool {
	return slices.ContainsFunc(t.Members, func(m TeamMember) bool {
		return m.UserID == userID
	})
}

// ApplyMission merges the patch into the active mission.
// A patch naming a mission other than the active one starts a new mission.
// Returns false when the patch names another team, or when there is no
// active mission and the patch does not name one.
func (t *Team) ApplyMission(patch *MissionPatch) bool {
	if patch.TeamID != "" && patch.TeamID != t.ID {
		return false
	}
	if t.Mission == nil && patch.MissionID == "" {
		return false
	}

	if t.Mission == nil || (patch.MissionID != "" && patch.MissionID != t.Mission.ID) {
		t.Mission = &Mission{
			ID:            patch.MissionID,
			Contributions: make([]Contribution, 0, len(patch.Contributions)),
		}
	}

	mission := t.Mission
	if patch.Name != nil {
		mission.Name = *patch.Name
	}
	if patch.Progress != nil {
		mission.Progress = ClampProgress(*patch.Progress)
	}
	for _, update := range patch.Contributions {
		update.Progress = ClampProgress(update.Progress)
		index := slices.IndexFunc(mission.Contributions, func(c Contribution) bool {
			return c.UserID == update.UserID
		})
		if index < 0 {
			mission.Contributions = append(mission.Contributions, update)
			continue
		}
		mission.Contributions[index].Progress = update.Progress
	}

	return true
}
