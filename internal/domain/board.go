package domain

import "strings"

const (
	// Size is the board edge length.
	Size = 4
	// CellCount is the number of cells on the board.
	CellCount = Size * Size
)

// Board holds the 16 cells in row-major order; index = row*Size + col.
// An empty cell holds the zero Piece.
type Board [CellCount]Piece

// CellAt returns the index of (row, col).
func CellAt(row, col int) int {
	return row*Size + col
}

// Row returns the row of a cell index.
func Row(cell int) int {
	return cell / Size
}

// Col returns the column of a cell index.
func Col(cell int) int {
	return cell % Size
}

// InBounds reports whether (row, col) is on the board.
func InBounds(row, col int) bool {
	return row >= 0 && row < Size && col >= 0 && col < Size
}

// ValidCell reports whether cell is a board index.
func ValidCell(cell int) bool {
	return cell >= 0 && cell < CellCount
}

// At returns the piece on cell; ok is false when the cell is empty.
func (b *Board) At(cell int) (Piece, bool) {
	p := b[cell]
	return p, !p.Empty()
}

// IsEmpty reports whether cell holds no piece.
func (b *Board) IsEmpty(cell int) bool {
	return b[cell].Empty()
}

// Full reports whether every cell is occupied.
func (b *Board) Full() bool {
	for i := range b {
		if b[i].Empty() {
			return false
		}
	}
	return true
}

// CountOwned returns how many pieces side has on the board.
func (b *Board) CountOwned(side Side) int {
	n := 0
	for i := range b {
		if !b[i].Empty() && b[i].Owner == side {
			n++
		}
	}
	return n
}

// Find returns the cell holding side's piece of the given kind, or -1.
func (b *Board) Find(side Side, kind PieceKind) int {
	for i := range b {
		if b[i].Kind == kind && b[i].Owner == side {
			return i
		}
	}
	return -1
}

// String renders the board as four lines, upper case for First.
func (b *Board) String() string {
	var sb strings.Builder
	for r := 0; r < Size; r++ {
		for c := 0; c < Size; c++ {
			p := b[CellAt(r, c)]
			sb.WriteByte(pieceGlyph(p))
		}
		if r < Size-1 {
			sb.WriteByte('\n')
		}
	}
	return sb.String()
}

func pieceGlyph(p Piece) byte {
	var g byte
	switch p.Kind {
	case Pawn:
		g = 'p'
	case Rook:
		g = 'r'
	case Knight:
		g = 'n'
	case Bishop:
		g = 'b'
	default:
		return '.'
	}
	if p.Owner == First {
		g -= 'a' - 'A'
	}
	return g
}
