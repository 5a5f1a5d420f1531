package helper

// MaxWriteOpsPerBatch: plafon baris per INSERT batch, supaya satu
// statement tidak membengkak melewati batas parameter driver.
const MaxWriteOpsPerBatch = 450

// Chunk membelah slice jadi potongan berukuran maksimal size.
func Chunk[T any](items []T, size int) [][]T {
	if size <= 0 {
		size = MaxWriteOpsPerBatch
	}
	if len(items) == 0 {
		return nil
	}
	out := make([][]T, 0, (len(items)+size-1)/size)
	for start := 0; start < len(items); start += size {
		end := start + size
		if end > len(items) {
			end = len(items)
		}
		out = append(out, items[start:end])
	}
	return out
}
