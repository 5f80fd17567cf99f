package ingest

import (
	"encoding/json"
	"errors"
	"time"

	"errgate/internal/model"
)

var errEmptySignal = errors.New("signal has neither code nor message")

// ParseSignal decodes one JSON error signal. A signal must carry a code
// or a message; a missing timestamp is stamped with the current time.
func ParseSignal(data []byte) (model.Signal, error) {
	var sig model.Signal
	if err := json.Unmarshal(data, &sig); err != nil {
		return model.Signal{}, err
	}
	return finishSignal(sig)
}

// ParseSignalMap decodes an already-unmarshaled JSON object, as the
// REST batch path produces.
func ParseSignalMap(obj map[string]any) (model.Signal, error) {
	data, err := json.Marshal(obj)
	if err != nil {
		return model.Signal{}, err
	}
	return ParseSignal(data)
}

func finishSignal(sig model.Signal) (model.Signal, error) {
	if sig.Code == "" && sig.Message == "" {
		return model.Signal{}, errEmptySignal
	}
	if sig.Timestamp.IsZero() {
		sig.Timestamp = time.Now().UTC()
	}
	return sig, nil
}
