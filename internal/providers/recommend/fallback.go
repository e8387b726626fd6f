package recommend

var toReadFallback = []Recommendation{
	{
		Title:  "Project Hail Mary",
		Author: "Andy Weir",
		Reason: "This science fiction novel has similar themes to other books on your to-read list. It features problem-solving and adventure elements that match your interests.",
	},
	{
		Title:  "The Silent Patient",
		Author: "Alex Michaelides",
		Reason: "Based on your interest in psychological thrillers, this mystery novel would be an excellent next read with its unpredictable plot twists.",
	},
	{
		Title:  "Educated",
		Author: "Tara Westover",
		Reason: "This memoir would diversify your reading with a powerful non-fiction narrative about resilience and self-education.",
	},
}

var historyFallback = []Recommendation{
	{
		Title:  "The Song of Achilles",
		Author: "Madeline Miller",
		Reason: "A reimagining of Greek mythology with the lyrical style readers of modern mythic retellings tend to rate highly.",
	},
	{
		Title:  "The Night Circus",
		Author: "Erin Morgenstern",
		Reason: "Your ratings show you enjoy magical realism and atmospheric writing similar to what you'll find in this enchanting novel.",
	},
	{
		Title:  "Station Eleven",
		Author: "Emily St. John Mandel",
		Reason: "This post-apocalyptic novel has the literary quality you've rated highly in other books, with interconnected storylines and rich character development.",
	},
}

var customFallback = []Recommendation{
	{
		Title:  "Klara and the Sun",
		Author: "Kazuo Ishiguro",
		Reason: "This thoughtful science fiction novel explores artificial intelligence and what it means to be human.",
	},
	{
		Title:  "The Ministry for the Future",
		Author: "Kim Stanley Robinson",
		Reason: "This near-future novel about climate change combines speculative fiction with realistic policy discussions.",
	},
	{
		Title:  "Piranesi",
		Author: "Susanna Clarke",
		Reason: "This atmospheric, mysterious novel features a strange, labyrinthine house and a narrator unlike any other.",
	},
}

// Fallback returns the fixed list for k.
func Fallback(k Kind) []Recommendation {
	var src []Recommendation
	switch k {
	case KindToRead:
		src = toReadFallback
	case KindHistory:
		src = historyFallback
	default:
		src = customFallback
	}
	out := make([]Recommendation, len(src))
	copy(out, src)
	return out
}
