package physics

import (
	"fmt"
	"math"

	"github.com/san-kum/resolvent/internal/dynamo"
)

func checkFinite(name string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fmt.Errorf("%w: %s=%v", dynamo.ErrInvalidParam, name, v)
	}
	return nil
}

func unknownParam(sys, name string) error {
	return fmt.Errorf("%w: %s has no parameter %q", dynamo.ErrInvalidParam, sys, name)
}
