package chunker

// mergeSmallChunks folds chunks shorter than MinChunkSize into their next
// neighbour when the pair stays within 1.5x MaxChunkSize. It is a single
// forward pass: a merged chunk is not merged again, so a run of tiny chunks
// can still leave small chunks behind.
func mergeSmallChunks(chunks []Chunk, opts Options) []Chunk {
	limit := float64(opts.MaxChunkSize) * 1.5
	merged := make([]Chunk, 0, len(chunks))
	for i := 0; i < len(chunks); {
		cur := chunks[i]
		if textLen(cur.Text) < opts.MinChunkSize && i+1 < len(chunks) {
			next := chunks[i+1]
			if float64(textLen(cur.Text)+textLen(next.Text)) <= limit {
				merged = append(merged, mergePair(cur, next))
				i += 2
				continue
			}
		}
		merged = append(merged, cur)
		i++
	}
	return merged
}

// mergePair builds a new chunk spanning both inputs.
func mergePair(first, second Chunk) Chunk {
	text := first.Text + "\n" + second.Text
	return Chunk{
		Text:           text,
		CharStartIndex: first.CharStartIndex,
		CharEndIndex:   second.CharEndIndex,
		Metadata: Metadata{
			ChunkType:        ChunkMerged,
			HasCitations:     first.Metadata.HasCitations || second.Metadata.HasCitations || ContainsLegalCitation(text),
			HasNumberedList:  first.Metadata.HasNumberedList || second.Metadata.HasNumberedList,
			IsSignatureBlock: first.Metadata.IsSignatureBlock || second.Metadata.IsSignatureBlock,
			LineCount:        first.Metadata.LineCount + second.Metadata.LineCount,
			OriginalTypes:    []ChunkType{first.Metadata.ChunkType, second.Metadata.ChunkType},
		},
		OverlapText: second.OverlapText,
	}
}
