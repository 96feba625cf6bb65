package recording

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/google/uuid"
)

// Artifact is the durable recording of one session: a 16-bit mono WAV.
type Artifact struct {
	Path       string
	SampleRate int
	Samples    int
}

// Remove deletes the artifact file. Missing files are not an error.
func (a Artifact) Remove() error {
	if a.Path == "" {
		return nil
	}
	if err := os.Remove(a.Path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

func artifactPath(dir string) string {
	if dir == "" {
		dir = os.TempDir()
	}
	return filepath.Join(dir, fmt.Sprintf("whisper-recording-%s.wav", uuid.NewString()))
}

type artifactWriter struct {
	file    *os.File
	enc     *wav.Encoder
	format  *audio.Format
	samples int
}

func newArtifactWriter(path string, sampleRate int) (*artifactWriter, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create recording file: %w", err)
	}

	w := &artifactWriter{
		file:   f,
		enc:    wav.NewEncoder(f, sampleRate, 16, 1, 1),
		format: &audio.Format{NumChannels: 1, SampleRate: sampleRate},
	}
	// header goes out now so even an empty session leaves a valid file
	if err := w.write(nil); err != nil {
		f.Close()
		os.Remove(path)
		return nil, err
	}
	return w, nil
}

func (w *artifactWriter) write(samples []float32) error {
	buf := &audio.IntBuffer{
		Format:         w.format,
		Data:           toPCM16(samples),
		SourceBitDepth: 16,
	}
	if err := w.enc.Write(buf); err != nil {
		return fmt.Errorf("write recording: %w", err)
	}
	w.samples += len(samples)
	return nil
}

// close finalizes the WAV header and closes the file.
func (w *artifactWriter) close() error {
	encErr := w.enc.Close()
	fileErr := w.file.Close()
	if encErr != nil {
		return fmt.Errorf("finalize recording: %w", encErr)
	}
	return fileErr
}

// discard closes and deletes a writer whose session never started.
func (w *artifactWriter) discard() {
	w.enc.Close()
	w.file.Close()
	os.Remove(w.file.Name())
}
