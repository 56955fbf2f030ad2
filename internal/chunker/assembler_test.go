package chunker

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func assemble(text string, opts Options) []Chunk {
	return newAssembler(classifyLines(text), normalize(opts)).run()
}

func TestClassifyBoundary_Precedence(t *testing.T) {
	tests := []struct {
		line string
		want BoundaryType
	}{
		{"I. INTRODUCTION", BoundaryRomanSection},
		{"XIV. RELIEF REQUESTED", BoundaryRomanSection},
		{"1. INTRODUCTION", BoundaryNumberedSection},
		{"DEFINITIONS:", BoundaryCapsHeading},
		{"MOTION TO DISMISS", BoundaryCapsHeading},
		{"SHORT", BoundaryNone},
		{"PLAINTIFF'S MOTION TO DISMISS", BoundaryNone},
		{"MOTION TO DISMISS COUNT 2", BoundaryNone},
		{"STATEMENT OF FACTS, CONTINUED", BoundaryNone},
		{"[PAGE BREAK]", BoundaryPageBreak},
		{"a. first lettered item", BoundarySubItem},
		{"(iii) third clause", BoundarySubItem},
		{"- bullet point", BoundarySubItem},
		{"Section 2.1 Payment terms", BoundaryContractSection},
		{"Article 4 Termination", BoundaryContractSection},
		{"SECTION 1.1 Definitions", BoundaryContractSectionCaps},
		{"1. The parties agree as follows.", BoundaryNone},
		{"Plaintiff filed the complaint.", BoundaryNone},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			assert.Equal(t, tt.want, classifyBoundary(tt.line, false))
		})
	}
}

func TestClassifyLines_ParagraphBreaksAndOffsets(t *testing.T) {
	lines := classifyLines("first\n\n\nsecond ü\nthird")
	require.Len(t, lines, 5)

	assert.Equal(t, BoundaryNone, lines[0].kind)
	assert.Equal(t, BoundaryParagraph, lines[1].kind)
	assert.True(t, lines[1].boundary)
	assert.Equal(t, BoundaryNone, lines[2].kind, "blank after blank is not a boundary")
	assert.False(t, lines[2].boundary)

	offsets := []int{0, 6, 7, 8, 17}
	for i, ln := range lines {
		assert.Equal(t, offsets[i], ln.offset, "line %d", i)
	}
}

func TestClassifyLines_SignatureIndependentOfBoundary(t *testing.T) {
	lines := classifyLines("WITNESS WHEREOF\nBy: __________\nname: John Roe\nThe parties agree.\n/s/ Jane Doe")

	assert.True(t, lines[0].signature)
	assert.Equal(t, BoundaryCapsHeading, lines[0].kind, "a signature line may also be a heading")
	assert.True(t, lines[1].signature)
	assert.True(t, lines[2].signature, "signature detection is case-insensitive")
	assert.False(t, lines[3].signature)
	assert.True(t, lines[4].signature)
}

func TestListTracker(t *testing.T) {
	var lt listTracker
	got := []bool{}
	for _, line := range []string{"1. First", "2. Second", "(a) detail", "b) more", "3. Third", "Plain text", "4. Fourth", "5. Fifth", "", "6. Sixth"} {
		got = append(got, lt.observe(line))
	}
	assert.Equal(t, []bool{false, true, true, true, true, false, false, true, false, false}, got)
}

func TestAssembler_SplitsAtMajorBoundaryAfterMinimum(t *testing.T) {
	text := "Opening remarks that are long enough.\nI. FACTS\nShort.\nII. LAW\nMore text."
	chunks := assemble(text, Options{MinChunkSize: 20, MaxChunkSize: 1000})

	require.Len(t, chunks, 2)
	assert.Equal(t, ChunkContent, chunks[0].Metadata.ChunkType)
	assert.Equal(t, ChunkRomanSection, chunks[1].Metadata.ChunkType)
	assert.Equal(t, "I. FACTS\nShort.\nII. LAW\nMore text.", chunks[1].Text, "II. LAW comes before the minimum is reached")
}

func TestAssembler_NumberedListSuppressesSplit(t *testing.T) {
	intro := "This Agreement is entered into by the parties named below and governs the services described herein."
	chunks := assemble(intro+"\n1. SCOPE\n2. TERMS\n3. PAYMENT\n\nThe remaining provisions follow.", Options{MinChunkSize: 50, MaxChunkSize: 1000})

	require.Len(t, chunks, 2)
	assert.Equal(t, intro, chunks[0].Text)
	assert.Equal(t, ChunkNumberedSection, chunks[1].Metadata.ChunkType)
	assert.True(t, strings.HasPrefix(chunks[1].Text, "1. SCOPE\n2. TERMS\n3. PAYMENT"))
	assert.True(t, chunks[1].Metadata.HasNumberedList)
	assert.False(t, chunks[0].Metadata.HasNumberedList)
}

func TestAssembler_SizeCeilingDefersToBoundaryAhead(t *testing.T) {
	lines := []string{strings.Repeat("a", 60), strings.Repeat("b", 60), strings.Repeat("c", 60), "", strings.Repeat("d", 60)}
	chunks := assemble(strings.Join(lines, "\n"), Options{MinChunkSize: 10, MaxChunkSize: 100})

	require.Len(t, chunks, 2)
	assert.Equal(t, 3, chunks[0].Metadata.LineCount, "split is deferred to the paragraph break")
	assert.Equal(t, ChunkContent, chunks[1].Metadata.ChunkType, "paragraph breaks seed content chunks")
	assert.Equal(t, "\n"+lines[4], chunks[1].Text)
}

func TestAssembler_CitationProtectsParagraphBreak(t *testing.T) {
	citing := "Smith v. Jones controls the question presented here........."
	require.Len(t, citing, 60)
	lines := []string{strings.Repeat("a", 60), strings.Repeat("b", 60), citing, "", strings.Repeat("d", 60), "", strings.Repeat("e", 60)}
	chunks := assemble(strings.Join(lines, "\n"), Options{MinChunkSize: 10, MaxChunkSize: 100})

	require.Len(t, chunks, 2)
	// Without the citation the chunk would end before line 3.
	assert.Equal(t, 5, chunks[0].Metadata.LineCount)
	assert.True(t, chunks[0].Metadata.HasCitations)
	assert.Equal(t, "\n"+lines[6], chunks[1].Text)
}

// Documents current behaviour: when no boundary is reachable the size
// ceiling wins over citation protection and the run is force-split.
func TestAssembler_ForceSplitIgnoresCitationGuard(t *testing.T) {
	line := "See Smith v. Jones, 123 F.3d 456 and the cases that follow it."
	lines := make([]string, 12)
	for i := range lines {
		lines[i] = line
	}
	chunks := assemble(strings.Join(lines, "\n"), Options{MinChunkSize: 10, MaxChunkSize: 100})

	require.Len(t, chunks, 6)
	for _, c := range chunks {
		assert.Equal(t, 2, c.Metadata.LineCount)
		assert.True(t, c.Metadata.HasCitations)
	}
}

func TestAssembler_SignatureIsolated(t *testing.T) {
	body := "The parties have executed this agreement as of the date first written above, intending to be legally bound."
	text := body + "\nBy: ______________\n\nName: Jane Doe\nAcme Corporation shall keep a copy of this agreement on file."
	chunks := assemble(text, Options{MinChunkSize: 500, MaxChunkSize: 1000})

	// The minimum is never reached, yet the signature still gets its own chunk.
	require.Len(t, chunks, 3)
	assert.Equal(t, body, chunks[0].Text)
	assert.False(t, chunks[0].Metadata.IsSignatureBlock)

	assert.Equal(t, ChunkSignatureBlock, chunks[1].Metadata.ChunkType)
	assert.True(t, chunks[1].Metadata.IsSignatureBlock)
	assert.Equal(t, "By: ______________\n\nName: Jane Doe", chunks[1].Text)

	assert.Equal(t, ChunkContent, chunks[2].Metadata.ChunkType)
	assert.False(t, chunks[2].Metadata.IsSignatureBlock)
}

func TestAssembler_SignatureMergedByMergePass(t *testing.T) {
	// The assembler isolates the signature; only the merge pass may join it
	// with the preceding chunk, and only because both are below the minimum.
	text := "Agreed.\nBy: ______________\nName: Jane Doe"
	opts := Options{MinChunkSize: 50, MaxChunkSize: 1000}

	assembled := assemble(text, opts)
	require.Len(t, assembled, 2)
	assert.Equal(t, "Agreed.", assembled[0].Text)
	assert.Equal(t, ChunkSignatureBlock, assembled[1].Metadata.ChunkType)

	chunks := ChunkPlainTextSemantically(text, opts)
	require.Len(t, chunks, 1)
	assert.Equal(t, ChunkMerged, chunks[0].Metadata.ChunkType)
	assert.Equal(t, []ChunkType{ChunkContent, ChunkSignatureBlock}, chunks[0].Metadata.OriginalTypes)
	assert.True(t, chunks[0].Metadata.IsSignatureBlock)
}

func TestAssembler_OverlapCapped(t *testing.T) {
	text := "Opening remarks that are long enough.\nI. FACTS\nabc"
	chunks := assemble(text, Options{MinChunkSize: 20, MaxChunkSize: 1000, OverlapSize: 500})

	require.Len(t, chunks, 2)
	assert.Equal(t, "I. FACTS\nabc", chunks[0].OverlapText)
	assert.Empty(t, chunks[1].OverlapText)

	chunks = assemble(text, Options{MinChunkSize: 20, MaxChunkSize: 1000, OverlapSize: 4})
	assert.Equal(t, "I. F", chunks[0].OverlapText)
}
