package ranking

import (
	"context"
	"math"

	"github.com/secmon-lab/mnemosyne/pkg/utils/logging"
)

// Normalize converts a raw metric distance into a bounded (0, 1] similarity
// score via exp(-d). The transform is fixed regardless of the underlying
// metric's scale: d=0 maps to 1 and the score approaches 0 as d grows,
// so an out-of-range result is impossible.
//
// A negative distance cannot come from a valid metric; it is clamped to 0
// and logged rather than passed through.
func Normalize(ctx context.Context, distance float64) float64 {
	if distance < 0 {
		logging.From(ctx).Warn("negative distance from vector index, clamping to 0",
			"distance", distance)
		distance = 0
	}
	return math.Exp(-distance)
}
