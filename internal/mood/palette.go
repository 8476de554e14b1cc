package mood

var colorTags = map[Mood]string{
	Happy:     "from-yellow-400 to-orange-500",
	Sad:       "from-blue-600 to-purple-700",
	Energetic: "from-red-500 to-pink-600",
	Calm:      "from-teal-400 to-blue-500",
	Romantic:  "from-pink-400 to-rose-500",
	Confident: "from-purple-500 to-indigo-600",
	Nostalgic: "from-amber-400 to-orange-600",
	Angry:     "from-red-600 to-red-800",
}

// ColorTag returns the gradient identifier for m, falling back to Happy's.
func ColorTag(m Mood) string {
	if tag, ok := colorTags[m]; ok {
		return tag
	}
	return colorTags[Happy]
}

// Emoji is one entry of the quick mood picker.
type Emoji struct {
	Symbol string `json:"emoji"`
	Mood   Mood   `json:"mood"`
	Label  string `json:"label"`
}

var emojis = []Emoji{
	{Symbol: "😊", Mood: Happy, Label: "Happy"},
	{Symbol: "😢", Mood: Sad, Label: "Sad"},
	{Symbol: "😌", Mood: Calm, Label: "Calm"},
	{Symbol: "⚡", Mood: Energetic, Label: "Energetic"},
	{Symbol: "😍", Mood: Romantic, Label: "Romantic"},
	{Symbol: "😤", Mood: Angry, Label: "Angry"},
	{Symbol: "🥺", Mood: Nostalgic, Label: "Nostalgic"},
	{Symbol: "😎", Mood: Confident, Label: "Confident"},
}

// Emojis returns the picker entries in display order.
func Emojis() []Emoji {
	return append([]Emoji(nil), emojis...)
}

// EmojiFor returns the picker symbol for m, or "" if it has none.
func EmojiFor(m Mood) string {
	for _, e := range emojis {
		if e.Mood == m {
			return e.Symbol
		}
	}
	return ""
}
