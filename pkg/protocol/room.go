package protocol

import (
	"crypto/rand"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
)

const roomCodeLength = 12

type UserID string
type RoomID string
type DuelID string
type TeamID string
type MissionID string

func (id RoomID) String() string {
	return string(id)
}

func (id RoomID) Empty() bool {
	return id == ""
}

// NewRoomID generates a shareable room code:
// base58 encoded byte array, byte 0 is the protocol version.
func NewRoomID() (RoomID, error) {
	bytes := make([]byte, 1+roomCodeLength)
	bytes[0] = Version
	_, err := rand.Read(bytes[1:])
	if err != nil {
		return "", errors.Wrap(err, "failed to generate room code")
	}
	return RoomID(base58.Encode(bytes)), nil
}

// ParseRoomID validates a room code generated by NewRoomID.
// Room ids assigned by the server are opaque and are not required to pass it.
func ParseRoomID(input string) (RoomID, error) {
	decoded, err := base58.Decode(input)
	if err != nil {
		return "", errors.Wrap(err, "failed to decode room id")
	}
	if len(decoded) < 1 {
		return "", errors.New("room id is too short")
	}
	if decoded[0] != Version {
		return "", errors.Errorf("room id has unsupported version %d", decoded[0])
	}
	return RoomID(input), nil
}
