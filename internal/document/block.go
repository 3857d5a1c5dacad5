package document

// BlockType tags the kind of element a Block represents
type BlockType string

const (
	BlockTypePage             BlockType = "PAGE"
	BlockTypeLine             BlockType = "LINE"
	BlockTypeTable            BlockType = "TABLE"
	BlockTypeCell             BlockType = "CELL"
	BlockTypeWord             BlockType = "WORD"
	BlockTypeSelectionElement BlockType = "SELECTION_ELEMENT"
)

// SelectionStatus is the state of a SELECTION_ELEMENT block
type SelectionStatus string

const (
	SelectionStatusSelected    SelectionStatus = "SELECTED"
	SelectionStatusNotSelected SelectionStatus = "NOT_SELECTED"
)

// RelationshipType is the kind of link between a block and the blocks it references
type RelationshipType string

const (
	RelationshipTypeChild RelationshipType = "CHILD"
)

// Relationship is an ordered list of referenced block IDs
type Relationship struct {
	Type RelationshipType `json:"Type"`
	IDs  []string         `json:"Ids"`
}

// Block is a single recognized element of an analyzed document.
// JSON names follow the Textract wire format so saved analysis
// responses can be decoded directly.
type Block struct {
	ID              string          `json:"Id"`
	BlockType       BlockType       `json:"BlockType"`
	Text            string          `json:"Text,omitempty"`
	SelectionStatus SelectionStatus `json:"SelectionStatus,omitempty"`
	RowIndex        int             `json:"RowIndex,omitempty"`
	ColumnIndex     int             `json:"ColumnIndex,omitempty"`
	Relationships   []Relationship  `json:"Relationships,omitempty"`
}

// Children returns the IDs of all CHILD relationships, in order
func (b *Block) Children() []string {
	var ids []string
	for _, rel := range b.Relationships {
		if rel.Type == RelationshipTypeChild {
			ids = append(ids, rel.IDs...)
		}
	}
	return ids
}
