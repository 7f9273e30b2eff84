package extract

// Keyword tables the extractor matches against. Everything here operates on
// lowercased, punctuation-stripped text.

var affirmPhrases = []string{
	"yes", "yeah", "yep", "yup", "sure", "correct", "confirm", "confirmed",
	"sounds good", "thats right", "that is right", "go ahead", "perfect",
	"exactly", "lock it in", "ok", "okay", "fine", "do it",
}

var denyPhrases = []string{
	"no", "nope", "nah", "not quite", "wrong", "incorrect", "change that",
	"actually no", "dont", "do not", "cancel that", "not really",
}

var styleWords = map[string]string{
	"luxury":    "luxury",
	"luxurious": "luxury",
	"high end":  "luxury",
	"high-end":  "luxury",
	"five star": "luxury",
	"upscale":   "luxury",
	"on a budget":     "budget",
	"budget friendly": "budget",
	"budget-friendly": "budget",
	"cheap":           "budget",
	"cheaply":         "budget",
	"backpack":        "budget",
	"shoestring":      "budget",
	"mid range":  "mid-range",
	"mid-range":  "mid-range",
	"midrange":   "mid-range",
	"moderate":   "mid-range",
	"comfortable": "mid-range",
	"mix of both": "mixed",
	"bit of both": "mixed",
}

var interestWords = map[string]string{
	"food":         "food",
	"foodie":       "food",
	"eating":       "food",
	"restaurants":  "food",
	"cuisine":      "food",
	"history":      "history",
	"historical":   "history",
	"museums":      "art",
	"museum":       "art",
	"art":          "art",
	"galleries":    "art",
	"nightlife":    "nightlife",
	"bars":         "nightlife",
	"clubbing":     "nightlife",
	"nature":       "nature",
	"hiking":       "nature",
	"outdoors":     "nature",
	"beach":        "beach",
	"beaches":      "beach",
	"shopping":     "shopping",
	"architecture": "architecture",
	"romantic":     "romance",
	"romance":      "romance",
	"honeymoon":    "romance",
	"kids":         "family",
	"children":     "family",
}

var dietaryWords = map[string]string{
	"vegetarian":  "vegetarian",
	"vegan":       "vegan",
	"halal":       "halal",
	"kosher":      "kosher",
	"gluten free": "gluten-free",
	"gluten-free": "gluten-free",
	"pescatarian": "pescatarian",
}

var accommodationWords = map[string]string{
	"hostel":     "hostel",
	"hostels":    "hostel",
	"hotel":      "hotel",
	"hotels":     "hotel",
	"apartment":  "apartment",
	"apartments": "apartment",
	"airbnb":     "apartment",
	"bnb":        "bed_and_breakfast",
	"guesthouse": "bed_and_breakfast",
}

// currencyWords maps colloquial unit names to ISO 4217 codes; codes and
// symbols are handled separately.
var currencyWords = map[string]string{
	"pound":    "GBP",
	"pounds":   "GBP",
	"quid":     "GBP",
	"sterling": "GBP",
	"euro":     "EUR",
	"euros":    "EUR",
	"dollar":   "USD",
	"dollars":  "USD",
	"bucks":    "USD",
	"yen":      "JPY",
	"franc":    "CHF",
	"francs":   "CHF",
	"krona":    "SEK",
	"kronor":   "SEK",
	"krone":    "DKK",
	"kroner":   "DKK",
}

var currencySymbols = map[string]string{
	"£": "GBP",
	"€": "EUR",
	"$": "USD",
	"¥": "JPY",
}

var numberWords = map[string]int{
	"one": 1, "two": 2, "three": 3, "four": 4, "five": 5, "six": 6,
	"seven": 7, "eight": 8, "nine": 9, "ten": 10, "eleven": 11, "twelve": 12,
	"a": 1, "an": 1,
}
