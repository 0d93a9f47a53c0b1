// Package decay implements the periodic decay sweep: multiply every
// non-zero score by a factor, truncate toward zero, eliminate anything
// left inside a deadzone, and re-condition the bitmap filter for blocks
// that end up empty.
package decay

import (
	"github.com/sauronlib/sauron/internal/engine"
	pkgerrors "github.com/sauronlib/sauron/pkg/errors"
)

// Sweep decays every non-zero score in e by factor, zeroing anything whose
// resulting magnitude is at or below deadzone, and returns the number of
// slots whose value changed (a decay-to-nonzero and a decay-to-zero each
// count once). factor must be in [0.0, 1.0]; an out-of-range factor is
// rejected with a zero modified count and no effect.
func Sweep(e *engine.Engine, factor float64, deadzone int16) (int64, error) {
	if factor < 0.0 || factor > 1.0 {
		return 0, pkgerrors.NewFactorRangeError(factor)
	}

	e.Log().Debugw("decay sweep starting", "factor", factor, "deadzone", deadzone)

	var modified int64
	dz := int32(deadzone)

	rows := e.Directory().Rows()
	for p16 := 0; p16 < 65536; p16++ {
		row := rows[p16].Load()
		if row == nil {
			continue
		}
		for sub := 0; sub < 256; sub++ {
			b := row.Blocks[sub].Load()
			if b == nil {
				continue
			}

			prefix24 := uint32(p16)<<8 | uint32(sub)

			if b.ActiveLoad() == 0 {
				e.Bitmap().Clear(prefix24)
				continue
			}

			b.Lock()
			var zeroDelta int32
			b.Range(func(_ uint8, score int32) (int32, bool) {
				if score == 0 {
					return 0, false
				}

				newScore := truncate(float64(score) * factor)
				if abs32(newScore) <= dz {
					newScore = 0
				}
				if newScore == score {
					return 0, false
				}

				modified++
				if newScore == 0 {
					zeroDelta++
				}
				return newScore, true
			})
			if zeroDelta != 0 {
				b.ActiveAdd(-zeroDelta)
			}
			empty := b.ActiveLoad() == 0
			b.Unlock()

			if zeroDelta != 0 {
				e.AdjustScoreCount(-int64(zeroDelta))
			}

			if empty {
				e.Bitmap().Clear(prefix24)
			}
		}
	}

	e.Log().Infow("decay sweep complete", "factor", factor, "deadzone", deadzone, "modified", modified)
	return modified, nil
}

// truncate rounds v toward zero, matching the decay formula's
// round_toward_zero(old * factor).
func truncate(v float64) int32 {
	return int32(v)
}

func abs32(v int32) int32 {
	if v < 0 {
		return -v
	}
	return v
}
