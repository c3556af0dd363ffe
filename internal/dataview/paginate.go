package dataview

// Paginate returns rows[(page-1)*size : page*size], clipped to the slice.
// A page past the end yields an empty slice. page < 1 is treated as 1 and
// size < 1 returns every row.
func Paginate[R any](rows []R, page, size int) []R {
	if size < 1 {
		return rows
	}
	if page < 1 {
		page = 1
	}

	if page > PageCount(len(rows), size) {
		return rows[:0:0]
	}
	start := (page - 1) * size
	end := start + size
	if end > len(rows) {
		end = len(rows)
	}
	return rows[start:end:end]
}

// PageCount returns the number of pages needed for total rows. An empty set
// still has one page.
func PageCount(total, size int) int {
	if size < 1 || total <= size {
		return 1
	}
	n := total / size
	if total%size != 0 {
		n++
	}
	return n
}
