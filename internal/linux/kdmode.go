package linux

import "fmt"

// KDMode is the mode of a virtual console (text or graphics).
type KDMode int

const (
	KDText     KDMode = 0x0
	KDGraphics KDMode = 0x1
)

func (k KDMode) String() string {
	switch k {
	case KDText:
		return `KD_TEXT`
	case KDGraphics:
		return `KD_GRAPHICS`
	case 0x2:
		return `KD_TEXT0`
	case 0x3:
		return `KD_TEXT1`
	}
	if k > 0 {
		return fmt.Sprintf(`0x%x`, int(k))
	}
	return fmt.Sprintf(`-0x%x`, -int(k))
}
