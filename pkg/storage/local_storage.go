package storage

import (
	"encoding/json"
	"sync"

	"github.com/pkg/errors"
	"github.com/shibukawa/configdir"
	"go.uber.org/zap"

	"github.com/six78/arena-cli/internal/config"
	"github.com/six78/arena-cli/pkg/protocol"
)

const identityStorageFileName = "identity.json"

type LocalStorage struct {
	localPath string
	folder    *configdir.Config
	data      identityStorage
	mutex     sync.RWMutex
}

type identityStorage struct {
	Identity
	LastRoom protocol.RoomID `json:"lastRoom,omitempty"`
}

// NewLocalStorage keeps files in localPath, or in the global config folder when empty.
func NewLocalStorage(localPath string) *LocalStorage {
	return &LocalStorage{
		localPath: localPath,
	}
}

func (s *LocalStorage) Initialize() error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.localPath != "" {
		s.folder = &configdir.Config{Path: s.localPath, Type: configdir.Local}
	} else {
		s.folder = &configdir.Config{Path: config.Dir(), Type: configdir.Global}
	}

	err := s.read()
	config.Logger.Info("storage initialized",
		zap.String("path", s.folder.Path),
		zap.String("userID", string(s.data.UserID)),
		zap.Error(err),
	)
	return err
}

func (s *LocalStorage) read() error {
	if !s.folder.Exists(identityStorageFileName) {
		config.Logger.Info("no identity storage found")
		return nil
	}

	data, err := s.folder.ReadFile(identityStorageFileName)
	if err != nil {
		return errors.Wrap(err, "failed to read identity data")
	}

	err = json.Unmarshal(data, &s.data)
	if err == nil {
		return nil
	}

	config.Logger.Error("failed to parse identity storage, clearing storage", zap.Error(err))

	s.data = identityStorage{}
	err = s.save()
	if err != nil {
		config.Logger.Error("failed to reset identity storage", zap.Error(err))
	}

	return nil
}

func (s *LocalStorage) save() error {
	if s.folder == nil {
		return errors.New("storage not initialized")
	}

	data, err := json.Marshal(s.data)
	if err != nil {
		return errors.Wrap(err, "failed to marshal identity storage")
	}

	err = s.folder.WriteFile(identityStorageFileName, data)
	if err != nil {
		return errors.Wrap(err, "failed to save identity storage")
	}

	return nil
}

func (s *LocalStorage) Identity() (Identity, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	if s.data.Identity.Empty() {
		return Identity{}, ErrNoIdentity
	}
	return s.data.Identity, nil
}

func (s *LocalStorage) SetIdentity(identity Identity) error {
	if identity.Empty() {
		return errors.New("user id is required")
	}
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.data.Identity = identity
	return s.save()
}

func (s *LocalStorage) ResetIdentity() error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.data = identityStorage{}
	return s.save()
}

func (s *LocalStorage) LastRoom() protocol.RoomID {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.data.LastRoom
}

func (s *LocalStorage) SetLastRoom(roomID protocol.RoomID) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.data.LastRoom = roomID
	return s.save()
}
