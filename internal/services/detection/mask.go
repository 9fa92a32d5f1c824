package detection

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

const (
	maskGridSize = 10
	maskCells    = maskGridSize * maskGridSize
)

// Threshold converts a 0-100 sensitivity to the pixel-change threshold the
// motion-analysis process consumes. Higher sensitivity means a lower
// threshold. threshold(s) = 5000 - s*47, floored at 100.
func Threshold(sensitivity int) int {
	t := 5000 - sensitivity*47
	if t < 100 {
		t = 100
	}
	return t
}

// ParseROI parses a comma-separated list of cell indices on the 10x10 grid.
// Empty or malformed input yields an empty set, which produces an all-zero
// mask: motion is then never detected for the camera. This is deliberate and
// is the single place ROI strings are interpreted.
func ParseROI(roi string) []int {
	roi = strings.TrimSpace(roi)
	if roi == "" {
		return nil
	}

	seen := make(map[int]bool)
	var cells []int
	for _, part := range strings.Split(roi, ",") {
		idx, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil || idx < 0 || idx >= maskCells {
			return nil
		}
		if !seen[idx] {
			seen[idx] = true
			cells = append(cells, idx)
		}
	}
	return cells
}

// WriteMask writes a binary PGM (P5) raster where cell r*10+c is 255 when in
// the ROI set and 0 otherwise. The motion daemon treats 0 as "ignore" and 255
// as "detect".
func WriteMask(path string, cells []int) error {
	data := make([]byte, maskCells)
	for _, idx := range cells {
		data[idx] = 255
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create mask file: %w", err)
	}
	defer f.Close()

	header := fmt.Sprintf("P5\n%d %d\n255\n", maskGridSize, maskGridSize)
	if _, err := f.WriteString(header); err != nil {
		return fmt.Errorf("write mask header: %w", err)
	}
	if _, err := f.Write(data); err != nil {
		return fmt.Errorf("write mask data: %w", err)
	}
	return nil
}
