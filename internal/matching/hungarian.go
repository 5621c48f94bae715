package matching

import "math"

// solveAssignment computes a maximum-weight perfect assignment on the square
// weight matrix and returns, for each row, its assigned column.
//
// Implementation: the O(n³) Kuhn-Munkres algorithm with row/column
// potentials, run as a minimization over negated weights. Ties are broken by
// the lowest column index, so repeated runs over an identical matrix yield
// identical assignments.
func solveAssignment(weights [][]float64) []int {
	n := len(weights)
	if n == 0 {
		return nil
	}

	// 1-indexed potentials and matching arrays; column 0 is a sentinel.
	u := make([]float64, n+1)
	v := make([]float64, n+1)
	rowOfCol := make([]int, n+1)
	way := make([]int, n+1)

	cost := func(i, j int) float64 { return -weights[i][j] }

	for i := 1; i <= n; i++ {
		rowOfCol[0] = i
		j0 := 0
		minv := make([]float64, n+1)
		used := make([]bool, n+1)
		for j := range minv {
			minv[j] = math.Inf(1)
		}

		for {
			used[j0] = true
			i0 := rowOfCol[j0]
			delta := math.Inf(1)
			j1 := 0

			for j := 1; j <= n; j++ {
				if used[j] {
					continue
				}
				cur := cost(i0-1, j-1) - u[i0] - v[j]
				if cur < minv[j] {
					minv[j] = cur
					way[j] = j0
				}
				if minv[j] < delta {
					delta = minv[j]
					j1 = j
				}
			}

			for j := 0; j <= n; j++ {
				if used[j] {
					u[rowOfCol[j]] += delta
					v[j] -= delta
				} else {
					minv[j] -= delta
				}
			}

			j0 = j1
			if rowOfCol[j0] == 0 {
				break
			}
		}

		// Augment along the alternating path back to the sentinel column.
		for j0 != 0 {
			j1 := way[j0]
			rowOfCol[j0] = rowOfCol[j1]
			j0 = j1
		}
	}

	assignment := make([]int, n)
	for j := 1; j <= n; j++ {
		if rowOfCol[j] > 0 {
			assignment[rowOfCol[j]-1] = j - 1
		}
	}
	return assignment
}
