package notify

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/leonardotrapani/hyprdictate/internal/logging"
)

// freedesktop sound theme cues played for recording start and stop
var soundFiles = map[MessageType]string{
	RecordingStarted: "/usr/share/sounds/freedesktop/stereo/device-added.oga",
	RecordingEnded:   "/usr/share/sounds/freedesktop/stereo/device-removed.oga",
	Error:            "/usr/share/sounds/freedesktop/stereo/dialog-error.oga",
}

// Sound plays a short cue through pw-play and then passes the message on.
type Sound struct {
	Next Notifier
	run  commandFunc
}

func (s *Sound) Send(t MessageType, detail string) {
	if file, ok := soundFiles[t]; ok {
		go s.play(file)
	}
	s.Next.Send(t, detail)
}

func (s *Sound) play(file string) {
	if _, err := os.Stat(file); err != nil {
		log := logging.Component("notify")
		log.Debug().Str("file", filepath.Base(file)).Msg("sound cue missing")
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.run(ctx, "pw-play", file); err != nil {
		log := logging.Component("notify")
		log.Debug().Err(err).Msg("pw-play failed")
	}
}
