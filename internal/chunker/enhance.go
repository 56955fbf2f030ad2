package chunker

import (
	"fmt"
	"strings"
)

// enhanceMetadata attaches position, legal elements and density to every
// chunk. Indices must already be assigned.
func enhanceMetadata(chunks []Chunk, documentUUID string) {
	total := len(chunks)
	for i := range chunks {
		text := chunks[i].Text
		elements := ExtractLegalElements(text)
		chunks[i].Metadata.Enriched = &Enrichment{
			Position:        i,
			TotalChunks:     total,
			PositionContext: positionContext(i, total),
			LegalElements:   elements,
			DensityScore:    DensityScore(text, elements),
			WordCount:       len(strings.Fields(text)),
			SentenceCount:   countSentences(text),
			ChunkID:         chunkID(documentUUID, i),
		}
	}
}

func positionContext(position, total int) PositionContext {
	switch {
	case position == 0:
		return PositionBeginning
	case position == total-1:
		return PositionEnd
	case float64(position) < 0.2*float64(total):
		return PositionEarly
	case float64(position) > 0.8*float64(total):
		return PositionLate
	default:
		return PositionMiddle
	}
}

func chunkID(documentUUID string, position int) string {
	if documentUUID != "" {
		return fmt.Sprintf("%s_chunk_%04d", documentUUID, position)
	}
	return fmt.Sprintf("chunk_%04d", position)
}
