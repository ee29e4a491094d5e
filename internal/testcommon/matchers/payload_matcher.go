package matchers

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/six78/arena-cli/internal/config"
)

const waitTimeout = time.Second

// PayloadMatcher matches an outbound payload of type T.
// Matched payloads can be received with Wait.
type PayloadMatcher[T any] struct {
	t         *testing.T
	condition func(T) bool
	matched   chan T
}

func NewPayloadMatcher[T any](t *testing.T, condition func(T) bool) *PayloadMatcher[T] {
	return &PayloadMatcher[T]{
		t:         t,
		condition: condition,
		matched:   make(chan T, 16),
	}
}

func (m *PayloadMatcher[T]) Matches(x interface{}) bool {
	payload, ok := x.(T)
	if !ok {
		return false
	}

	if m.condition != nil && !m.condition(payload) {
		return false
	}

	config.Logger.Debug("payload matched", zap.Any("payload", payload))

	select {
	case m.matched <- payload:
	default:
		config.Logger.Warn("matched payload dropped", zap.Any("payload", payload))
	}
	return true
}

func (m *PayloadMatcher[T]) String() string {
	var zero T
	return fmt.Sprintf("is %T payload matching condition", zero)
}

// Wait returns the next matched payload or fails the test after a timeout.
func (m *PayloadMatcher[T]) Wait() T {
	select {
	case payload := <-m.matched:
		return payload
	case <-time.After(waitTimeout):
		require.FailNow(m.t, "timeout waiting for matched payload")
	}
	var zero T
	return zero
}
