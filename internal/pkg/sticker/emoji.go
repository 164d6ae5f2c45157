package sticker

import "github.com/forPelevin/gomoji"

const MaxEmojis = 10

// FindEmojis returns the emojis contained in text, in order of appearance.
func FindEmojis(text string) []string {
	found := gomoji.FindAll(text)
	if len(found) == 0 {
		return nil
	}

	emojis := make([]string, 0, len(found))
	for _, e := range found {
		emojis = append(emojis, e.Character)
	}
	return emojis
}
