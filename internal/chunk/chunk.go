// Package chunk splits long texts into fixed-maximum-size pieces for
// transmission under a per-message size ceiling.
package chunk

// TelegramMax is the Telegram Bot API per-message character ceiling.
const TelegramMax = 4096

// Split cuts text into ordered pieces of at most max characters each.
// Split points are purely positional: no attempt is made to avoid cutting
// inside a word or escape sequence. Concatenating the result in order
// reproduces text exactly. Empty text yields a nil slice.
func Split(text string, max int) []string {
	if max <= 0 {
		max = TelegramMax
	}
	runes := []rune(text)
	if len(runes) == 0 {
		return nil
	}
	pieces := make([]string, 0, (len(runes)+max-1)/max)
	for i := 0; i < len(runes); i += max {
		end := i + max
		if end > len(runes) {
			end = len(runes)
		}
		pieces = append(pieces, string(runes[i:end]))
	}
	return pieces
}
