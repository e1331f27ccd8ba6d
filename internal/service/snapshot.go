package service

import (
	"fmt"

	"autofill-workbench/internal/domain"
)

// SnapshotResult is the markup sent to a fill endpoint. When the live
// surface could not be serialized, HTML is the stored auto-fill document
// unchanged and Err says why.
type SnapshotResult struct {
	HTML         string
	UsedFallback bool
	Err          error
}

// CaptureSnapshot serializes surface, falling back to fallback on any
// failure, including a panic during serialization. It never fails.
func CaptureSnapshot(surface domain.EditableSurface, fallback string) (result SnapshotResult) {
	defer func() {
		if r := recover(); r != nil {
			result = SnapshotResult{
				HTML:         fallback,
				UsedFallback: true,
				Err:          fmt.Errorf("snapshot serialization panicked: %v", r),
			}
		}
	}()

	if surface == nil {
		return SnapshotResult{HTML: fallback, UsedFallback: true, Err: domain.ErrSurfaceUnavailable}
	}
	out, err := surface.Normalize()
	if err != nil {
		return SnapshotResult{HTML: fallback, UsedFallback: true, Err: err}
	}
	return SnapshotResult{HTML: out}
}
