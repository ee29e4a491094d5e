package storage

import (
	"github.com/pkg/errors"

	"github.com/six78/arena-cli/pkg/protocol"
)

var ErrNoIdentity = errors.New("no identity stored")

type Service interface {
	Initialize() error
	Identity() (Identity, error)
	SetIdentity(identity Identity) error
	ResetIdentity() error
	LastRoom() protocol.RoomID
	SetLastRoom(roomID protocol.RoomID) error
}

type Identity struct {
	UserID protocol.UserID `json:"userId"`
	Name   string          `json:"name"`
	Color  string          `json:"color,omitempty"`
	Token  string          `json:"token,omitempty"`
}

func (i Identity) Empty() bool {
	return i.UserID == ""
}
