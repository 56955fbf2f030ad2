package chunker

// ChunkType labels the structural role of a chunk.
type ChunkType string

const (
	ChunkContent             ChunkType = "content"
	ChunkRomanSection        ChunkType = "roman_section"
	ChunkNumberedSection     ChunkType = "numbered_section"
	ChunkCapsHeading         ChunkType = "caps_heading"
	ChunkPageBreak           ChunkType = "page_break"
	ChunkContractSection     ChunkType = "contract_section"
	ChunkContractSectionCaps ChunkType = "contract_section_caps"
	ChunkSignatureBlock      ChunkType = "signature_block"
	ChunkMerged              ChunkType = "merged"
)

// BoundaryType is the classifier's label for a line that starts a new semantic unit.
type BoundaryType string

const (
	BoundaryNone                BoundaryType = ""
	BoundaryRomanSection        BoundaryType = "roman_section"
	BoundaryNumberedSection     BoundaryType = "numbered_section"
	BoundaryCapsHeading         BoundaryType = "caps_heading"
	BoundaryPageBreak           BoundaryType = "page_break"
	BoundarySubItem             BoundaryType = "sub_item"
	BoundaryContractSection     BoundaryType = "contract_section"
	BoundaryContractSectionCaps BoundaryType = "contract_section_caps"
	BoundaryParagraph           BoundaryType = "paragraph_break"
)

// IsMajor reports whether the boundary may end a chunk once min size is reached.
func (b BoundaryType) IsMajor() bool {
	switch b {
	case BoundaryRomanSection, BoundaryNumberedSection, BoundaryCapsHeading,
		BoundaryPageBreak, BoundaryContractSection, BoundaryContractSectionCaps:
		return true
	}
	return false
}

// ChunkType returns the label a chunk seeded by this boundary carries.
// Sub-items and paragraph breaks seed plain content chunks.
func (b BoundaryType) ChunkType() ChunkType {
	if b.IsMajor() {
		return ChunkType(b)
	}
	return ChunkContent
}

// Chunk is one contiguous slice of the (page-marker-substituted) source text.
type Chunk struct {
	Text           string   `json:"text" yaml:"text"`
	CharStartIndex int      `json:"char_start_index" yaml:"char_start_index"`
	CharEndIndex   int      `json:"char_end_index" yaml:"char_end_index"`
	ChunkIndex     int      `json:"chunk_index" yaml:"chunk_index"`
	ChunkUUID      string   `json:"chunk_uuid" yaml:"chunk_uuid"`
	Metadata       Metadata `json:"metadata" yaml:"metadata"`
	OverlapText    string   `json:"overlap_text,omitempty" yaml:"overlap_text,omitempty"`
}

// Metadata holds the structural flags set by the assembler and, when
// enhancement is enabled, the enriched legal metadata.
type Metadata struct {
	ChunkType        ChunkType   `json:"chunk_type" yaml:"chunk_type"`
	HasCitations     bool        `json:"has_citations" yaml:"has_citations"`
	HasNumberedList  bool        `json:"has_numbered_list" yaml:"has_numbered_list"`
	IsSignatureBlock bool        `json:"is_signature_block" yaml:"is_signature_block"`
	LineCount        int         `json:"line_count" yaml:"line_count"`
	OriginalTypes    []ChunkType `json:"original_types,omitempty" yaml:"original_types,omitempty"`
	Enriched         *Enrichment `json:"enriched,omitempty" yaml:"enriched,omitempty"`
}

// PositionContext describes where in the document a chunk sits.
type PositionContext string

const (
	PositionBeginning PositionContext = "beginning"
	PositionEarly     PositionContext = "early"
	PositionMiddle    PositionContext = "middle"
	PositionLate      PositionContext = "late"
	PositionEnd       PositionContext = "end"
)

// Enrichment is the secondary metadata set computed after indices are assigned.
type Enrichment struct {
	Position        int             `json:"position" yaml:"position"`
	TotalChunks     int             `json:"total_chunks" yaml:"total_chunks"`
	PositionContext PositionContext `json:"position_context" yaml:"position_context"`
	LegalElements   LegalElements   `json:"legal_elements" yaml:"legal_elements"`
	DensityScore    float64         `json:"density_score" yaml:"density_score"`
	WordCount       int             `json:"word_count" yaml:"word_count"`
	SentenceCount   int             `json:"sentence_count" yaml:"sentence_count"`
	ChunkID         string          `json:"chunk_id" yaml:"chunk_id"`
}

// LegalElements are the legal entities found in a chunk, in order of first
// occurrence and without duplicates.
type LegalElements struct {
	Citations         []string `json:"citations" yaml:"citations"`
	Dates             []string `json:"dates" yaml:"dates"`
	MonetaryAmounts   []string `json:"monetary_amounts" yaml:"monetary_amounts"`
	SectionReferences []string `json:"section_references" yaml:"section_references"`
	PartyNames        []string `json:"party_names" yaml:"party_names"`
}

// Chunker is implemented by everything that turns document text into chunks.
type Chunker interface {
	// Chunk splits content; documentUUID scopes the generated chunk ids.
	Chunk(content, documentUUID string) ([]Chunk, error)

	// Name is used in logs.
	Name() string
}

// Options control a single chunking call. Sizes are in characters.
type Options struct {
	MinChunkSize    int    `json:"min_chunk_size" yaml:"min_chunk_size"`
	MaxChunkSize    int    `json:"max_chunk_size" yaml:"max_chunk_size"`
	OverlapSize     int    `json:"overlap_size" yaml:"overlap_size"`
	EnhanceMetadata bool   `json:"enhance_metadata" yaml:"enhance_metadata"`
	DocumentUUID    string `json:"document_uuid,omitempty" yaml:"document_uuid,omitempty"`
}

// DefaultOptions returns the sizes used for OCR'd legal filings.
func DefaultOptions() Options {
	return Options{
		MinChunkSize:    300,
		MaxChunkSize:    1500,
		OverlapSize:     200,
		EnhanceMetadata: true,
	}
}
