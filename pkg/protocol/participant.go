package protocol

type ParticipantStatus string

const (
	StatusOnline ParticipantStatus = "online"
	StatusIdle   ParticipantStatus = "idle"
	StatusBusy   ParticipantStatus = "busy"
	StatusInDuel ParticipantStatus = "in-duel"
)

// ParticipantInfo is the descriptor a user announces when joining a room.
type ParticipantInfo struct {
	Name   string            `json:"name"`
	Color  string            `json:"color,omitempty"`
	Status ParticipantStatus `json:"status,omitempty"`
}

type Participant struct {
	ID UserID `json:"userId"`
	ParticipantInfo
}

type Roster map[UserID]Participant

func (r Roster) Copy() Roster {
	if r == nil {
		return nil
	}
	roster := make(Roster, len(r))
	for id, participant := range r {
		roster[id] = participant
	}
	return roster
}

type ParticipantJoined struct {
	Participant
	RoomID RoomID `json:"roomId,omitempty"` // NOTE: optional, older servers only broadcast within the room
}

type ParticipantLeft struct {
	UserID UserID `json:"userId"`
	RoomID RoomID `json:"roomId,omitempty"`
}

type RoomParticipants struct {
	RoomID       RoomID        `json:"roomId"`
	Participants []Participant `json:"participants"`
}

type RoomUpdated struct {
	RoomID RoomID `json:"roomId"`
	UserID UserID `json:"userId,omitempty"`
	Update any    `json:"update"`
}
