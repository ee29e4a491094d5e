package protocol

import (
	"encoding/json"

	"github.com/pkg/errors"
)

func NewEnvelope(event EventName, payload any) (*Envelope, error) {
	envelope := &Envelope{Event: event}
	if payload == nil {
		return envelope, nil
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to marshal %s payload", event)
	}

	envelope.Data = data
	return envelope, nil
}

func MarshalEnvelope(event EventName, payload any) ([]byte, error) {
	envelope, err := NewEnvelope(event, payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(envelope)
}

func UnmarshalEnvelope(payload []byte) (*Envelope, error) {
	envelope := Envelope{}
	err := json.Unmarshal(payload, &envelope)
	if err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal envelope")
	}
	if envelope.Event == "" {
		return nil, errors.New("envelope has no event name")
	}
	return &envelope, nil
}

// Decode unmarshals the envelope data into the given type.
func Decode[T any](envelope *Envelope) (*T, error) {
	var value T
	if len(envelope.Data) == 0 {
		return nil, errors.Errorf("%s: empty payload", envelope.Event)
	}
	err := json.Unmarshal(envelope.Data, &value)
	if err != nil {
		return nil, errors.Wrapf(err, "%s: failed to unmarshal payload", envelope.Event)
	}
	return &value, nil
}
