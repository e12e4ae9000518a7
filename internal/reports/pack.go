package reports

import (
	"github.com/pkoukk/tiktoken-go"
	"github.com/sirupsen/logrus"
)

// packTokenCeiling bounds a packed chunk's token count. Packing merges
// small adjacent chunks into one model call without changing what the
// merge step sees.
const packTokenCeiling = 24000

const tiktokenEncoding = "cl100k_base"

type tokenCounter struct {
	enc *tiktoken.Tiktoken
}

func newTokenCounter() *tokenCounter {
	enc, err := tiktoken.GetEncoding(tiktokenEncoding)
	if err != nil {
		logrus.WithError(err).Warn("reports: tiktoken unavailable, falling back to character estimate")
		return &tokenCounter{}
	}
	return &tokenCounter{enc: enc}
}

func (c *tokenCounter) count(text string) int {
	if c.enc == nil {
		// Rough heuristic when the encoding cannot be loaded.
		return len(text) / 4
	}
	return len(c.enc.Encode(text, nil, nil))
}

// packChunks greedily merges adjacent chunks while the packed text stays
// under the token ceiling. Chunk order is preserved.
func packChunks(pieces []string, ceiling int, count func(string) int) []string {
	if len(pieces) == 0 {
		return nil
	}

	packed := make([]string, 0, len(pieces))
	current := pieces[0]
	currentTokens := count(current)

	for _, piece := range pieces[1:] {
		pieceTokens := count(piece)
		if currentTokens+pieceTokens <= ceiling {
			current = current + "\n\n" + piece
			currentTokens += pieceTokens
			continue
		}
		packed = append(packed, current)
		current = piece
		currentTokens = pieceTokens
	}
	packed = append(packed, current)

	if len(packed) < len(pieces) {
		logrus.WithFields(logrus.Fields{
			"chunks": len(pieces),
			"packed": len(packed),
		}).Debug("reports: packed adjacent chunks")
	}
	return packed
}
