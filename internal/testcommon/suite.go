package testcommon

import (
	"reflect"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"

	"github.com/six78/arena-cli/internal/config"
	"github.com/six78/arena-cli/pkg/protocol"
)

const WaitTimeout = time.Second

type Suite struct {
	suite.Suite
	Logger *zap.Logger
}

func (s *Suite) SetupSuite() {
	s.Logger = setupConfigLogger(s.T())
}

// setupConfigLogger installs a debug logger as the package-wide config.Logger.
func setupConfigLogger(t *testing.T) *zap.Logger {
	cfg := zap.NewDevelopmentConfig()
	cfg.DisableStacktrace = true
	cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)

	logger, err := cfg.Build()
	require.NoError(t, err)

	config.Logger = logger.Named(t.Name())
	return config.Logger
}

func (s *Suite) TearDownSuite() {
	_ = config.Logger.Sync()
}

func (s *Suite) SplitBatch(batch tea.Cmd) []tea.Cmd {
	s.Require().Equal(reflect.Func, reflect.TypeOf(batch).Kind())

	result := batch()
	s.Require().NotNil(result)

	batchMessage := result.(tea.BatchMsg)
	s.Require().NotNil(batchMessage)

	return batchMessage
}

// Receive waits for a value on the channel or fails the test.
func Receive[T any](s *Suite, ch <-chan T) T {
	select {
	case value := <-ch:
		return value
	case <-time.After(WaitTimeout):
		s.Require().FailNow("timeout waiting for value")
	}
	var zero T
	return zero
}

func (s *Suite) FakeUserID() protocol.UserID {
	return protocol.UserID(gofakeit.UUID())
}

func (s *Suite) FakeParticipant() protocol.Participant {
	return protocol.Participant{
		ID: s.FakeUserID(),
		ParticipantInfo: protocol.ParticipantInfo{
			Name:   gofakeit.Username(),
			Color:  gofakeit.HexColor(),
			Status: protocol.StatusOnline,
		},
	}
}
