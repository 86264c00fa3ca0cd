package playback

import (
	"github.com/courseloom/courseloom-backend/internal/types"
)

// State classifies whether a lecture's video can be played right now.
type State string

const (
	StatePlayable State = "playable"
	StateWaiting  State = "waiting"
	StateFailed   State = "failed"
)

// Resolve gates playback on the lecture's transcode state. A terminal
// COMPLETE is playable, FAILED is not, and anything in flight waits. A
// lecture with no job metadata at all predates the transcode pipeline and is
// served directly.
func Resolve(lecture *types.Lecture) State {
	switch lecture.VideoStatus {
	case types.VideoStatusComplete:
		return StatePlayable
	case types.VideoStatusFailed:
		return StateFailed
	case types.VideoStatusProcessing:
		return StateWaiting
	default:
		if lecture.TranscodeJobID != "" {
			// Job attached but the tracker has not written yet.
			return StateWaiting
		}
		return StatePlayable
	}
}
