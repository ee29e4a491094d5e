package session

import (
	"encoding/json"

	"github.com/mattbaird/jsonpatch"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Diff returns the JSON patch turning before into after.
func Diff(before, after any) ([]jsonpatch.JsonPatchOperation, error) {
	a, err := json.Marshal(before)
	if err != nil {
		return nil, err
	}
	b, err := json.Marshal(after)
	if err != nil {
		return nil, err
	}
	return jsonpatch.CreatePatch(a, b)
}

func (c *Coordinator) logDiff(message string, before, after any) {
	if !c.config.DiffLoggingEnabled || !c.logger.Core().Enabled(zapcore.DebugLevel) {
		return
	}

	patch, err := Diff(before, after)
	if err != nil {
		c.logger.Warn("failed to diff state", zap.Error(err))
		return
	}

	c.logger.Debug(message, zap.Any("patch", patch))
}
