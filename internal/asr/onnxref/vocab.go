package onnxref

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// spaceMarker is the byte-BPE prefix (typically "Ġ", U+0120) that marks a
// token boundary preceded by a space (spec §4.3 step 5).
const spaceMarker = "Ġ"

// Vocab maps token ids to their decoded piece, plus the special control
// token ids the decode loop needs to recognize.
type Vocab struct {
	pieces map[int]string

	StartOfTranscript int
	EndOfTranscript    int
	NoTimestamps       int
	TranscribeTask     int
	Language           int
}

// LoadVocab reads a token-per-line vocabulary file: "<id>\t<piece>" per
// line. The special token ids are looked up by their conventional piece
// names; callers whose model uses different conventions should construct a
// Vocab by hand instead.
func LoadVocab(path string, languageToken string) (*Vocab, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("onnxref: open vocab %q: %w", path, err)
	}
	defer f.Close()

	v := &Vocab{pieces: map[int]string{}}
	byPiece := map[string]int{}

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		tab := strings.IndexByte(line, '\t')
		if tab < 0 {
			continue
		}
		id, err := strconv.Atoi(line[:tab])
		if err != nil {
			continue
		}
		piece := line[tab+1:]
		v.pieces[id] = piece
		byPiece[piece] = id
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("onnxref: read vocab %q: %w", path, err)
	}

	var ok bool
	if v.StartOfTranscript, ok = byPiece["<|startoftranscript|>"]; !ok {
		return nil, fmt.Errorf("onnxref: vocab missing <|startoftranscript|>")
	}
	if v.EndOfTranscript, ok = byPiece["<|endoftext|>"]; !ok {
		return nil, fmt.Errorf("onnxref: vocab missing <|endoftext|>")
	}
	if v.NoTimestamps, ok = byPiece["<|notimestamps|>"]; !ok {
		return nil, fmt.Errorf("onnxref: vocab missing <|notimestamps|>")
	}
	if v.TranscribeTask, ok = byPiece["<|transcribe|>"]; !ok {
		return nil, fmt.Errorf("onnxref: vocab missing <|transcribe|>")
	}
	if v.Language, ok = byPiece[languageToken]; !ok {
		return nil, fmt.Errorf("onnxref: vocab missing language token %q", languageToken)
	}

	return v, nil
}

// Prompt returns the fixed decode prefix (spec §4.3 step 4): SOT, language,
// transcribe-task, no-timestamps.
func (v *Vocab) Prompt() []int64 {
	return []int64{
		int64(v.StartOfTranscript),
		int64(v.Language),
		int64(v.TranscribeTask),
		int64(v.NoTimestamps),
	}
}

// Decode maps a token id sequence to text, replacing the byte-BPE space
// marker with an ASCII space and trimming the result (spec §4.3 step 5).
func (v *Vocab) Decode(tokens []int64) string {
	var b strings.Builder
	for _, t := range tokens {
		piece, ok := v.pieces[int(t)]
		if !ok {
			continue
		}
		piece = strings.ReplaceAll(piece, spaceMarker, " ")
		b.WriteString(piece)
	}
	return strings.TrimSpace(b.String())
}
