// Package wav implements a minimal 16-bit PCM WAV codec, adapted from
// the teacher's ReadWAV/WriteWAV in backend/wav.go: the same
// chunk-walking reader and the same writer layout, generalized from a
// forced mono-downmix to genuine per-channel de-interleaving so the
// channel count a file declares is the channel count
// pipeline.Pipeline.ProcessChannels actually processes.
package wav

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
)

// Header holds metadata extracted from a WAV file.
type Header struct {
	SampleRate    int
	NumChannels   int
	BitsPerSample int
}

// Read parses a 16-bit PCM WAV file from raw bytes, de-interleaving
// the data chunk into one []float64 per channel, each normalized to
// [-1.0, +1.0].
func Read(data []byte) ([][]float64, Header, error) {
	if len(data) < 12 {
		return nil, Header{}, errors.New("wav: file too short")
	}

	if string(data[0:4]) != "RIFF" {
		return nil, Header{}, errors.New("wav: missing RIFF header")
	}
	if string(data[8:12]) != "WAVE" {
		return nil, Header{}, errors.New("wav: missing WAVE identifier")
	}

	var header *Header
	var pcmData []byte

	pos := 12
	for pos+8 <= len(data) {
		chunkID := string(data[pos : pos+4])
		chunkSize := int(binary.LittleEndian.Uint32(data[pos+4 : pos+8]))
		chunkStart := pos + 8

		switch chunkID {
		case "fmt ":
			if chunkSize < 16 {
				return nil, Header{}, errors.New("wav: fmt chunk too small")
			}
			if chunkStart+16 > len(data) {
				return nil, Header{}, errors.New("wav: fmt chunk truncated")
			}
			audioFormat := binary.LittleEndian.Uint16(data[chunkStart : chunkStart+2])
			if audioFormat != 1 {
				return nil, Header{}, fmt.Errorf("wav: unsupported audio format %d (only PCM/1 supported)", audioFormat)
			}
			header = &Header{
				NumChannels:   int(binary.LittleEndian.Uint16(data[chunkStart+2 : chunkStart+4])),
				SampleRate:    int(binary.LittleEndian.Uint32(data[chunkStart+4 : chunkStart+8])),
				BitsPerSample: int(binary.LittleEndian.Uint16(data[chunkStart+14 : chunkStart+16])),
			}
			if header.BitsPerSample != 16 {
				return nil, Header{}, fmt.Errorf("wav: unsupported bits per sample %d (only 16 supported)", header.BitsPerSample)
			}

		case "data":
			end := chunkStart + chunkSize
			if end > len(data) {
				end = len(data)
			}
			pcmData = data[chunkStart:end]
		}

		pos = chunkStart + chunkSize
		if chunkSize%2 != 0 {
			pos++
		}
	}

	if header == nil {
		return nil, Header{}, errors.New("wav: no fmt chunk found")
	}
	if pcmData == nil {
		return nil, Header{}, errors.New("wav: no data chunk found")
	}
	if header.NumChannels < 1 {
		return nil, Header{}, fmt.Errorf("wav: invalid channel count %d", header.NumChannels)
	}

	numFrames := len(pcmData) / 2 / header.NumChannels
	channels := make([][]float64, header.NumChannels)
	for c := range channels {
		channels[c] = make([]float64, numFrames)
	}

	for i := 0; i < numFrames; i++ {
		for c := 0; c < header.NumChannels; c++ {
			off := (i*header.NumChannels + c) * 2
			s := int16(binary.LittleEndian.Uint16(pcmData[off : off+2]))
			channels[c][i] = float64(s) / 32768.0
		}
	}

	return channels, *header, nil
}

// Write interleaves one or more float64 channels (each in [-1.0,
// +1.0], all the same length) into a 16-bit PCM WAV file.
func Write(channels [][]float64, sampleRate int) ([]byte, error) {
	numChannels := len(channels)
	if numChannels == 0 {
		return nil, errors.New("wav: no channels to write")
	}
	numFrames := len(channels[0])
	for _, ch := range channels {
		if len(ch) != numFrames {
			return nil, errors.New("wav: channels have mismatched lengths")
		}
	}

	dataSize := numFrames * numChannels * 2
	fileSize := 36 + dataSize
	blockAlign := numChannels * 2

	buf := &bytes.Buffer{}
	buf.Grow(44 + dataSize)

	buf.WriteString("RIFF")
	binary.Write(buf, binary.LittleEndian, uint32(fileSize))
	buf.WriteString("WAVE")

	buf.WriteString("fmt ")
	binary.Write(buf, binary.LittleEndian, uint32(16))
	binary.Write(buf, binary.LittleEndian, uint16(1))
	binary.Write(buf, binary.LittleEndian, uint16(numChannels))
	binary.Write(buf, binary.LittleEndian, uint32(sampleRate))
	binary.Write(buf, binary.LittleEndian, uint32(sampleRate*blockAlign))
	binary.Write(buf, binary.LittleEndian, uint16(blockAlign))
	binary.Write(buf, binary.LittleEndian, uint16(16))

	buf.WriteString("data")
	binary.Write(buf, binary.LittleEndian, uint32(dataSize))

	for i := 0; i < numFrames; i++ {
		for c := 0; c < numChannels; c++ {
			s := channels[c][i]
			if s > 1.0 {
				s = 1.0
			} else if s < -1.0 {
				s = -1.0
			}
			var i16 int16
			if s >= 0 {
				i16 = int16(math.Round(s * 32767))
			} else {
				i16 = int16(math.Round(s * 32768))
			}
			binary.Write(buf, binary.LittleEndian, i16)
		}
	}

	return buf.Bytes(), nil
}
