package audiogen

// Muxer concatenates an ordered list of audio clips into one buffer.
type Muxer interface {
	Run(clips [][]byte, gap []byte) []byte
}

// MP3Muxer joins MP3 frame streams by byte concatenation, inserting the
// gap clip between consecutive segments. MP3 frames are self-delimiting,
// so players treat the joined stream as one track.
type MP3Muxer struct{}

func NewMP3Muxer() *MP3Muxer {
	return &MP3Muxer{}
}

func (m *MP3Muxer) Run(clips [][]byte, gap []byte) []byte {
	size := 0
	for _, clip := range clips {
		size += len(clip)
	}
	if len(clips) > 1 {
		size += len(gap) * (len(clips) - 1)
	}

	out := make([]byte, 0, size)
	for i, clip := range clips {
		if len(clip) == 0 {
			continue
		}
		if i > 0 && len(gap) > 0 && len(out) > 0 {
			out = append(out, gap...)
		}
		out = append(out, clip...)
	}

	return out
}
