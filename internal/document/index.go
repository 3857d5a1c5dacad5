package document

import "strings"

// Index maps block IDs to blocks for one analyzed document
type Index struct {
	blocks map[string]*Block
	tables []*Block
	lines  []*Block
}

// NewIndex indexes every block by ID and collects TABLE and LINE blocks
// in document order. Blocks with unknown types are indexed but not partitioned.
func NewIndex(blocks []Block) *Index {
	idx := &Index{
		blocks: make(map[string]*Block, len(blocks)),
	}

	for i := range blocks {
		block := &blocks[i]
		idx.blocks[block.ID] = block

		switch block.BlockType {
		case BlockTypeTable:
			idx.tables = append(idx.tables, block)
		case BlockTypeLine:
			idx.lines = append(idx.lines, block)
		}
	}

	return idx
}

// Get returns the block with the given ID
func (i *Index) Get(id string) (*Block, bool) {
	block, ok := i.blocks[id]
	return block, ok
}

// Len returns the number of indexed blocks
func (i *Index) Len() int {
	return len(i.blocks)
}

// Tables returns the TABLE blocks in document order
func (i *Index) Tables() []*Block {
	return i.tables
}

// Lines returns the LINE blocks in document order
func (i *Index) Lines() []*Block {
	return i.lines
}

// Text concatenates the words and selected marks directly under a container
// block. Each piece is followed by a single space, so the result carries a
// trailing space; callers trim. Only one level of children is resolved.
func (i *Index) Text(container *Block) string {
	var sb strings.Builder

	for _, id := range container.Children() {
		child, ok := i.blocks[id]
		if !ok {
			continue
		}

		switch child.BlockType {
		case BlockTypeWord:
			sb.WriteString(child.Text)
			sb.WriteString(" ")
		case BlockTypeSelectionElement:
			if child.SelectionStatus == SelectionStatusSelected {
				sb.WriteString("X ")
			}
		}
	}

	return sb.String()
}

// Grid builds the cell grid of a TABLE block
func (i *Index) Grid(table *Block) *Grid {
	grid := NewGrid()

	for _, id := range table.Children() {
		cell, ok := i.blocks[id]
		if !ok || cell.BlockType != BlockTypeCell {
			continue
		}

		grid.Set(cell.RowIndex, cell.ColumnIndex, i.Text(cell))
	}

	return grid
}
