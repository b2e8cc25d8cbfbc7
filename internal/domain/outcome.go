package domain

// Line is four cells that win when held by one side.
type Line [Size]int

// Lines holds the 4 rows, 4 columns and 2 diagonals.
var Lines = buildLines()

func buildLines() []Line {
	lines := make([]Line, 0, 2*Size+2)
	for r := 0; r < Size; r++ {
		var l Line
		for c := 0; c < Size; c++ {
			l[c] = CellAt(r, c)
		}
		lines = append(lines, l)
	}
	for c := 0; c < Size; c++ {
		var l Line
		for r := 0; r < Size; r++ {
			l[r] = CellAt(r, c)
		}
		lines = append(lines, l)
	}
	var diag, anti Line
	for i := 0; i < Size; i++ {
		diag[i] = CellAt(i, i)
		anti[i] = CellAt(i, Size-1-i)
	}
	return append(lines, diag, anti)
}

// Detect classifies the board: a winner if some line is held by one side,
// a draw if the board is full, otherwise Ongoing.
func Detect(b *Board) Result {
	if line, ok := WinningLine(b); ok {
		return Result{Outcome: Win, Winner: b[line[0]].Owner}
	}
	if b.Full() {
		return Result{Outcome: Draw}
	}
	return Result{Outcome: Ongoing}
}

// WinningLine returns the first line fully held by one side.
func WinningLine(b *Board) (Line, bool) {
	for _, line := range Lines {
		first, ok := b.At(line[0])
		if !ok {
			continue
		}
		held := true
		for _, cell := range line[1:] {
			p, ok := b.At(cell)
			if !ok || p.Owner != first.Owner {
				held = false
				break
			}
		}
		if held {
			return line, true
		}
	}
	return Line{}, false
}
