package transcriber

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"time"

	"github.com/go-audio/wav"
)

// encodeWAV renders float samples as an in-memory 16-bit mono WAV file.
func encodeWAV(samples []float32, sampleRate int) []byte {
	var buf bytes.Buffer

	const channels = 1
	const bitsPerSample = 16
	byteRate := sampleRate * channels * bitsPerSample / 8
	const blockAlign = channels * bitsPerSample / 8

	dataSize := len(samples) * blockAlign
	buf.Grow(44 + dataSize)

	buf.WriteString("RIFF")
	binary.Write(&buf, binary.LittleEndian, uint32(36+dataSize))
	buf.WriteString("WAVE")

	buf.WriteString("fmt ")
	binary.Write(&buf, binary.LittleEndian, uint32(16))
	binary.Write(&buf, binary.LittleEndian, uint16(1)) // PCM
	binary.Write(&buf, binary.LittleEndian, uint16(channels))
	binary.Write(&buf, binary.LittleEndian, uint32(sampleRate))
	binary.Write(&buf, binary.LittleEndian, uint32(byteRate))
	binary.Write(&buf, binary.LittleEndian, uint16(blockAlign))
	binary.Write(&buf, binary.LittleEndian, uint16(bitsPerSample))

	buf.WriteString("data")
	binary.Write(&buf, binary.LittleEndian, uint32(dataSize))
	for _, s := range samples {
		if s > 1 {
			s = 1
		} else if s < -1 {
			s = -1
		}
		binary.Write(&buf, binary.LittleEndian, int16(math.Round(float64(s)*math.MaxInt16)))
	}

	return buf.Bytes()
}

// ArtifactInfo describes a recorded WAV file.
type ArtifactInfo struct {
	SampleRate int
	Samples    int
	Duration   time.Duration
}

// InspectArtifact reads the whole recording and reports its length.
func InspectArtifact(path string) (ArtifactInfo, error) {
	f, err := os.Open(path)
	if err != nil {
		return ArtifactInfo{}, fmt.Errorf("open recording: %w", err)
	}
	defer f.Close()

	// IsValidFile rejects zero-length audio, which is a valid empty recording here
	dec := wav.NewDecoder(f)
	dec.ReadInfo()
	if err := dec.Err(); err != nil || dec.NumChans < 1 {
		return ArtifactInfo{}, fmt.Errorf("invalid recording: %s is not a WAV file", path)
	}
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return ArtifactInfo{}, fmt.Errorf("decode recording: %w", err)
	}

	info := ArtifactInfo{SampleRate: int(dec.SampleRate), Samples: buf.NumFrames()}
	if info.SampleRate > 0 {
		info.Duration = time.Duration(float64(info.Samples) / float64(info.SampleRate) * float64(time.Second))
	}
	return info, nil
}
