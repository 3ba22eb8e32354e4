package sampler

//////
// Growable, fixed-width row buffer.
//////

// Buffer is an append-only, index-addressable dynamic array of fixed-width
// rows. The row width is fixed by the first appended row; every later row
// must have the same width. Appends are amortized O(1): the backing storage
// grows geometrically.
//
// A Buffer is exclusively owned by the sampler that created it. It performs
// no internal locking; callers needing concurrency must serialize access
// externally.
//
// Type Parameter:
//   - T: The element type of a row (float64 for locations and targets,
//     bool for virtual flags)
type Buffer[T any] struct {
	// data is the contiguous backing storage, rows laid out back to back.
	data []T

	// width is the row width, 0 until the first append.
	width int

	// rows is the number of appended rows.
	rows int

	// view caches the per-row slice headers handed out by Rows. It is
	// rebuilt lazily and dropped whenever data may have been reallocated.
	view [][]T
}

// NewBuffer returns an empty buffer. The row width is fixed by the first
// Append call.
func NewBuffer[T any]() *Buffer[T] {
	return &Buffer[T]{}
}

// Len returns the number of rows appended so far.
func (b *Buffer[T]) Len() int {
	return b.rows
}

// Width returns the row width, or 0 if no row has been appended yet.
func (b *Buffer[T]) Width() int {
	return b.width
}

// Append adds a row to the buffer. The first row fixes the width; appending
// a row of any other width fails with ShapeError before any mutation takes
// place. The row is copied, so the caller keeps ownership of its slice.
func (b *Buffer[T]) Append(row []T) error {
	if len(row) == 0 {
		return &PreconditionError{Reason: "cannot append an empty row"}
	}

	if b.width == 0 {
		b.width = len(row)
	} else if len(row) != b.width {
		return &ShapeError{Want: b.width, Got: len(row)}
	}

	b.grow(b.width)

	b.data = append(b.data, row...)
	b.rows++

	// The backing array may have moved.
	b.view = nil

	return nil
}

// Row returns the i-th row. The returned slice aliases the buffer storage
// and stays valid until the next Append; mutate it only through SetRow.
func (b *Buffer[T]) Row(i int) ([]T, error) {
	if i < 0 || i >= b.rows {
		return nil, ErrIndexOutOfRange
	}

	return b.data[i*b.width : (i+1)*b.width : (i+1)*b.width], nil
}

// SetRow overwrites the i-th row. Fails with ErrIndexOutOfRange outside
// [0, Len) and with ShapeError on a width mismatch; in both cases the
// buffer is left untouched.
func (b *Buffer[T]) SetRow(i int, row []T) error {
	if i < 0 || i >= b.rows {
		return ErrIndexOutOfRange
	}

	if len(row) != b.width {
		return &ShapeError{Want: b.width, Got: len(row)}
	}

	copy(b.data[i*b.width:(i+1)*b.width], row)

	return nil
}

// Rows returns a dense view of all rows in insertion order. The view is
// built lazily, reflects in-place SetRow mutations, and stays valid until
// the next Append.
func (b *Buffer[T]) Rows() [][]T {
	if b.view == nil {
		v := make([][]T, b.rows)
		for i := range v {
			v[i] = b.data[i*b.width : (i+1)*b.width : (i+1)*b.width]
		}

		b.view = v
	}

	return b.view
}

// Column returns a copy of the j-th element of every row, in insertion
// order. Useful for extracting one task's targets out of a target buffer.
func (b *Buffer[T]) Column(j int) ([]T, error) {
	if j < 0 || j >= b.width {
		return nil, ErrIndexOutOfRange
	}

	col := make([]T, b.rows)
	for i := range col {
		col[i] = b.data[i*b.width+j]
	}

	return col, nil
}

// grow ensures capacity for n more elements, doubling the backing array
// when it runs out.
func (b *Buffer[T]) grow(n int) {
	need := len(b.data) + n
	if need <= cap(b.data) {
		return
	}

	c := 2 * cap(b.data)
	if c < need {
		c = need
	}

	next := make([]T, len(b.data), c)
	copy(next, b.data)
	b.data = next
}
