package transcriber

import "errors"

// ErrNotInitialized is returned for any transcription attempted before a
// model has been loaded, or after it was unloaded.
var ErrNotInitialized = errors.New("transcription model not loaded")

// TranscriptionError wraps an engine failure for one inference pass.
type TranscriptionError struct {
	Mode Mode
	Err  error
}

func (e *TranscriptionError) Error() string {
	if e == nil || e.Err == nil {
		return "transcription failed"
	}
	return e.Mode.String() + " transcription failed: " + e.Err.Error()
}

func (e *TranscriptionError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func newTranscriptionError(mode Mode, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrNotInitialized) {
		return err
	}
	return &TranscriptionError{Mode: mode, Err: err}
}

func IsTranscriptionError(err error) bool {
	var te *TranscriptionError
	return errors.As(err, &te)
}
