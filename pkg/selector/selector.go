/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: selector.go
Description: Deterministic crash message selector. Seeds a fresh generator with a
fixed constant, draws once from [0, 10) and maps the draw to a fixed string.
*/

package selector

const (
	// Seed is the fixed generator seed used for every selection.
	Seed int64 = 1337

	// DrawBound is the exclusive upper bound of a draw.
	DrawBound = 10

	// DefaultMessage is returned for draws outside [0, DrawBound).
	DefaultMessage = "default Ha"
)

// SelectMessage returns the crash message for the fixed seed. Every call
// builds its own generator, so the result never changes and calls may run
// concurrently.
func SelectMessage() string {
	return MessageFor(NewRandom(Seed).NextInt(DrawBound))
}

// MessageFor maps a draw to its message.
func MessageFor(draw int) string {
	switch draw {
	case 0:
		return "Ha"
	case 1:
		return "Haha"
	case 2:
		return "HaHaHa"
	case 3:
		return "HaHaHaHa"
	case 4:
		return "HaHaHaHaHa"
	case 5:
		return "HaHaHaHaHaHa"
	case 6:
		return "HaHaHaHaHaHaHa"
	case 7:
		return "HaHaHaHaHaHaHaHa"
	case 8:
		return "HaHaHaHaHaHaHaHaHa"
	case 9:
		return "HaHaHaHaHaHaHaHaHaHa"
	default:
		return DefaultMessage
	}
}

// Messages lists every message MessageFor can return, in draw order, with
// DefaultMessage last.
func Messages() []string {
	out := make([]string, 0, DrawBound+1)
	for d := 0; d < DrawBound; d++ {
		out = append(out, MessageFor(d))
	}
	return append(out, DefaultMessage)
}
