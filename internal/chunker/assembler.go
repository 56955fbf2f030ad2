package chunker

import "strings"

const (
	lookAheadLines = 10
	lookAheadSlack = 200
	citationWindow = 3
)

// assembler walks classified lines once and decides where chunks end.
type assembler struct {
	opts  Options
	lines []classifiedLine

	chunks []Chunk

	buf         []string
	bufStart    int
	bufSize     int
	bufHasList  bool
	chunkType   ChunkType
	inSignature bool
}

func newAssembler(lines []classifiedLine, opts Options) *assembler {
	return &assembler{opts: opts, lines: lines}
}

func (a *assembler) run() []Chunk {
	var list listTracker
	for i, ln := range a.lines {
		inList := list.observe(ln.text)
		blank := strings.TrimSpace(ln.text) == ""

		if len(a.buf) == 0 {
			a.begin(ln)
			a.add(ln, inList)
			continue
		}

		switch {
		case ln.signature && !a.inSignature:
			// Signature content always starts its own chunk.
			a.cut(i)
			a.begin(ln)
		case a.inSignature:
			if ln.signature || blank {
				break
			}
			// First non-signature line closes the block.
			a.cut(i)
			a.begin(ln)
		case a.shouldSplit(i, ln, inList):
			a.cut(i)
			a.begin(ln)
		}
		a.add(ln, inList)
	}
	a.flush("")
	return a.chunks
}

// shouldSplit applies the major-boundary and size-ceiling rules to line i.
func (a *assembler) shouldSplit(i int, ln classifiedLine, inList bool) bool {
	if ln.boundary && ln.kind.IsMajor() && a.bufSize >= a.opts.MinChunkSize && !inList {
		return true
	}
	if a.bufSize < a.opts.MaxChunkSize {
		return false
	}
	if ln.boundary && !a.citationNearby(i) && !inList {
		return true
	}
	if a.boundaryAhead(i) {
		return false
	}
	// No boundary in reach: split here even when a citation or list is
	// active, so runaway citation runs still get cut.
	return true
}

// citationNearby checks the trailing lines of the buffer plus line i.
func (a *assembler) citationNearby(i int) bool {
	from := max(0, i-citationWindow)
	window := make([]string, 0, citationWindow+1)
	for j := from; j <= i; j++ {
		window = append(window, a.lines[j].text)
	}
	return ContainsLegalCitation(strings.Join(window, "\n"))
}

// boundaryAhead looks for a boundary within the next lines that the chunk
// could reach without growing past max+slack.
func (a *assembler) boundaryAhead(i int) bool {
	limit := a.opts.MaxChunkSize + lookAheadSlack
	projected := a.bufSize
	for j := i + 1; j <= i+lookAheadLines && j < len(a.lines); j++ {
		projected += textLen(a.lines[j-1].text) + 1
		if projected > limit {
			return false
		}
		if a.lines[j].boundary {
			return true
		}
	}
	return false
}

func (a *assembler) begin(ln classifiedLine) {
	a.buf = a.buf[:0]
	a.bufStart = ln.offset
	a.bufSize = 0
	a.bufHasList = false
	switch {
	case ln.signature:
		a.chunkType = ChunkSignatureBlock
		a.inSignature = true
	case ln.boundary:
		a.chunkType = ln.kind.ChunkType()
		a.inSignature = false
	default:
		a.chunkType = ChunkContent
		a.inSignature = false
	}
}

func (a *assembler) add(ln classifiedLine, inList bool) {
	if len(a.buf) > 0 {
		a.bufSize++
	}
	a.buf = append(a.buf, ln.text)
	a.bufSize += textLen(ln.text)
	if inList {
		a.bufHasList = true
	}
}

// cut closes the current chunk before line i, carrying the start of the
// following text as overlap.
func (a *assembler) cut(i int) {
	a.flush(leadingText(a.lines, i, a.opts.OverlapSize))
}

func (a *assembler) flush(overlap string) {
	if len(a.buf) == 0 {
		return
	}
	text := strings.Join(a.buf, "\n")
	a.chunks = append(a.chunks, Chunk{
		Text:           text,
		CharStartIndex: a.bufStart,
		CharEndIndex:   a.bufStart + textLen(text),
		Metadata: Metadata{
			ChunkType:        a.chunkType,
			HasCitations:     ContainsLegalCitation(text),
			HasNumberedList:  a.bufHasList,
			IsSignatureBlock: a.chunkType == ChunkSignatureBlock,
			LineCount:        len(a.buf),
		},
		OverlapText: overlap,
	})
	a.buf = nil
}
