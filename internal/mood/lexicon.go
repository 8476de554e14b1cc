package mood

// lexiconOrder is the order moods are scored in. Candidates with equal
// confidence keep this order after sorting.
var lexiconOrder = []Mood{Happy, Sad, Angry, Calm, Nostalgic, Confident, Romantic, Energetic}

var lexicon = map[Mood][]string{
	Happy: {
		"happy", "joy", "excited", "cheerful", "upbeat", "energetic", "amazing", "awesome", "great", "fantastic",
		"wonderful", "brilliant", "thrilled", "ecstatic", "elated", "positive", "bright", "celebration",
	},
	Sad: {
		"sad", "depressed", "down", "melancholy", "blue", "lonely", "upset", "disappointed", "heartbroken",
		"miserable", "gloomy", "sorrowful", "crying", "tears", "hurt", "grief",
	},
	Angry: {
		"angry", "mad", "frustrated", "annoyed", "furious", "rage", "irritated", "pissed", "livid",
		"outraged", "heated", "aggressive", "hostile", "bitter",
	},
	Calm: {
		"calm", "peaceful", "relaxed", "chill", "serene", "zen", "tranquil", "mellow", "soothing",
		"quiet", "still", "meditative", "centered", "balanced",
	},
	Nostalgic: {
		"nostalgic", "memories", "past", "remember", "miss", "childhood", "old", "vintage",
		"throwback", "reminisce", "classic", "retro", "yesterday",
	},
	Confident: {
		"confident", "strong", "powerful", "bold", "fierce", "unstoppable", "determined", "fearless",
		"brave", "invincible", "boss", "leader", "champion",
	},
	Romantic: {
		"love", "romantic", "heart", "crush", "valentine", "passion", "intimate", "tender",
		"affection", "adore", "romance", "dating", "relationship",
	},
	Energetic: {
		"energy", "pump", "workout", "gym", "active", "dance", "hyped", "pumped", "electric",
		"intense", "wild", "crazy", "party", "adrenaline", "explosive",
	},
}

// neutralWords steer keyword-free text towards calm instead of happy.
var neutralWords = []string{"okay", "fine", "normal", "regular", "usual"}

// Keywords returns a copy of the lexicon entry for m.
func Keywords(m Mood) []string {
	return append([]string(nil), lexicon[m]...)
}
