package speech

import "errors"

// MP3 frame header tables for Layer III. Indexed by the 4-bit bitrate field
// and 2-bit sample-rate field; zero marks free/invalid entries.
var (
	bitratesV1 = [16]int{0, 32, 40, 48, 56, 64, 80, 96, 112, 128, 160, 192, 224, 256, 320, 0}
	bitratesV2 = [16]int{0, 8, 16, 24, 32, 40, 48, 56, 64, 80, 96, 112, 128, 144, 160, 0}

	sampleRatesV1  = [4]int{44100, 48000, 32000, 0}
	sampleRatesV2  = [4]int{22050, 24000, 16000, 0}
	sampleRatesV25 = [4]int{11025, 12000, 8000, 0}
)

// MP3Duration walks the frames of an MP3 payload and sums their durations.
// Layer III across MPEG versions 1, 2, and 2.5 is supported, which covers
// both synthesized audio and the silent placeholder. Frame-by-frame summing
// handles VBR streams correctly. Returns an error when no valid audio frame
// is found.
func MP3Duration(data []byte) (float64, error) {
	pos := skipID3v2(data)
	var seconds float64
	frames := 0

	for pos+4 <= len(data) {
		samples, sampleRate, frameLen, ok := parseFrameHeader(data[pos:])
		if !ok {
			pos++
			continue
		}
		seconds += float64(samples) / float64(sampleRate)
		frames++
		pos += frameLen
	}

	if frames == 0 {
		return 0, errors.New("speech: no mp3 frames found")
	}
	return seconds, nil
}

func skipID3v2(data []byte) int {
	if len(data) < 10 || data[0] != 'I' || data[1] != 'D' || data[2] != '3' {
		return 0
	}
	// Syncsafe 28-bit tag size, excluding the 10-byte header.
	size := int(data[6]&0x7f)<<21 | int(data[7]&0x7f)<<14 | int(data[8]&0x7f)<<7 | int(data[9]&0x7f)
	end := 10 + size
	if end > len(data) {
		return len(data)
	}
	return end
}

// parseFrameHeader decodes a Layer III frame header at the start of data.
// Returns samples per frame, sample rate, total frame length in bytes, and
// whether the header is valid.
func parseFrameHeader(data []byte) (samples, sampleRate, frameLen int, ok bool) {
	if len(data) < 4 {
		return 0, 0, 0, false
	}
	if data[0] != 0xff || data[1]&0xe0 != 0xe0 {
		return 0, 0, 0, false
	}

	version := (data[1] >> 3) & 0x03  // 00=2.5, 10=2, 11=1
	layer := (data[1] >> 1) & 0x03    // 01=III
	bitrateIdx := (data[2] >> 4) & 0x0f
	rateIdx := (data[2] >> 2) & 0x03
	padding := int((data[2] >> 1) & 0x01)

	if version == 0x01 || layer != 0x01 || rateIdx == 0x03 {
		return 0, 0, 0, false
	}

	var bitrate int
	switch version {
	case 0x03: // MPEG-1
		bitrate = bitratesV1[bitrateIdx]
		sampleRate = sampleRatesV1[rateIdx]
		samples = 1152
	case 0x02: // MPEG-2
		bitrate = bitratesV2[bitrateIdx]
		sampleRate = sampleRatesV2[rateIdx]
		samples = 576
	default: // MPEG-2.5
		bitrate = bitratesV2[bitrateIdx]
		sampleRate = sampleRatesV25[rateIdx]
		samples = 576
	}
	if bitrate == 0 || sampleRate == 0 {
		return 0, 0, 0, false
	}

	frameLen = samples/8*bitrate*1000/sampleRate + padding
	if frameLen < 4 {
		return 0, 0, 0, false
	}
	return samples, sampleRate, frameLen, true
}
