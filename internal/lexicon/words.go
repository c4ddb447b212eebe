package lexicon

var negations = map[string]bool{
	"not": true, "no": true, "never": true, "none": true, "nobody": true,
	"nothing": true, "neither": true, "nor": true, "nowhere": true,
	"cannot": true, "without": true, "hardly": true, "rarely": true,
	"seldom": true, "barely": true, "aint": true,
}

var boosters = map[string]float64{
	"absolutely": boosterIncrement, "amazingly": boosterIncrement,
	"completely": boosterIncrement, "considerably": boosterIncrement,
	"deeply": boosterIncrement, "enormously": boosterIncrement,
	"entirely": boosterIncrement, "especially": boosterIncrement,
	"exceptionally": boosterIncrement, "extremely": boosterIncrement,
	"fully": boosterIncrement, "greatly": boosterIncrement,
	"highly": boosterIncrement, "hugely": boosterIncrement,
	"incredibly": boosterIncrement, "intensely": boosterIncrement,
	"majorly": boosterIncrement, "more": boosterIncrement,
	"most": boosterIncrement, "particularly": boosterIncrement,
	"purely": boosterIncrement, "quite": boosterIncrement,
	"really": boosterIncrement, "remarkably": boosterIncrement,
	"so": boosterIncrement, "substantially": boosterIncrement,
	"thoroughly": boosterIncrement, "totally": boosterIncrement,
	"tremendously": boosterIncrement, "truly": boosterIncrement,
	"unbelievably": boosterIncrement, "utterly": boosterIncrement,
	"very":   boosterIncrement,
	"almost": -boosterIncrement, "barely": -boosterIncrement,
	"hardly": -boosterIncrement, "kinda": -boosterIncrement,
	"less": -boosterIncrement, "little": -boosterIncrement,
	"marginally": -boosterIncrement, "occasionally": -boosterIncrement,
	"partly": -boosterIncrement, "scarcely": -boosterIncrement,
	"slightly": -boosterIncrement, "somewhat": -boosterIncrement,
	"sorta": -boosterIncrement,
}

// valence is an AFINN-style word list.
var valence = map[string]float64{
	// positive
	"abundant": 2, "accept": 1, "accepted": 1, "accomplish": 2, "accomplished": 2,
	"admire": 3, "adorable": 3, "advantage": 2, "affordable": 2, "agree": 1,
	"amazing": 4, "amused": 3, "appreciate": 2, "appreciated": 2, "approve": 2,
	"attractive": 2, "awesome": 4, "beautiful": 3, "best": 3, "better": 2,
	"bliss": 3, "bright": 1, "brilliant": 4, "calm": 2, "charming": 3,
	"cheerful": 2, "clean": 2, "clever": 2, "comfortable": 2, "comfy": 2,
	"cool": 1, "cozy": 2, "cute": 2, "delight": 3, "delighted": 3,
	"delightful": 3, "easy": 1, "elegant": 2, "enjoy": 2, "enjoyed": 2,
	"excellent": 3, "excited": 3, "exciting": 3, "fabulous": 4, "fair": 2,
	"fantastic": 4, "fascinating": 3, "favorite": 2, "favourite": 2, "fine": 2,
	"fresh": 1, "friendly": 2, "fun": 4, "generous": 2, "glad": 3,
	"good": 3, "gorgeous": 3, "grateful": 3, "great": 3, "happy": 3,
	"healthy": 2, "helpful": 2, "honest": 2, "hope": 2, "ideal": 2,
	"impressive": 3, "incredible": 3, "inspiring": 3, "joy": 3, "kind": 2,
	"like": 2, "liked": 2, "lively": 2, "love": 3, "loved": 3,
	"lovely": 3, "luxurious": 2, "magnificent": 3, "nice": 3, "peaceful": 2,
	"perfect": 3, "pleasant": 3, "pleased": 3, "positive": 2, "pretty": 1,
	"quiet": 1, "recommend": 2, "relaxing": 2, "reliable": 2, "safe": 1,
	"satisfied": 2, "smart": 1, "spacious": 2, "spotless": 2, "stunning": 4,
	"success": 2, "superb": 5, "terrific": 4, "thank": 2, "thanks": 2,
	"tidy": 2, "useful": 2, "valuable": 2, "warm": 1, "welcome": 2,
	"welcoming": 2, "win": 4, "wonderful": 4, "worth": 2, "wow": 4,
	"yes": 1,
	// negative
	"abandon": -2, "abuse": -3, "afraid": -2, "aggressive": -2, "angry": -3,
	"annoyed": -2, "annoying": -2, "anxious": -2, "awful": -3, "bad": -3,
	"boring": -3, "broke": -1, "broken": -1, "careless": -2, "cheap": -1,
	"cold": -1, "complain": -2, "complaint": -2, "cramped": -2, "crap": -3,
	"crash": -2, "crime": -3, "cruel": -3, "damage": -3, "damaged": -3,
	"danger": -2, "dangerous": -2, "dead": -3, "dirty": -2, "disappointed": -2,
	"disappointing": -2, "disgusting": -3, "dislike": -2, "dull": -2, "dump": -1,
	"expensive": -1, "fail": -2, "failed": -2, "failure": -2, "fake": -3,
	"fear": -2, "filthy": -3, "fraud": -4, "gross": -2, "hate": -3,
	"hated": -3, "horrible": -3, "hostile": -2, "hurt": -2, "ill": -2,
	"lame": -2, "lazy": -1, "leak": -1, "loud": -1, "mess": -2,
	"messy": -2, "miserable": -3, "mold": -2, "nasty": -3, "negative": -2,
	"noisy": -1, "overpriced": -2, "pathetic": -2, "poor": -2, "problem": -2,
	"problems": -2, "rude": -2, "sad": -2, "scam": -2, "scary": -2,
	"shabby": -2, "sick": -2, "sloppy": -2, "smelly": -2, "stink": -2,
	"stinks": -2, "stolen": -2, "stupid": -2, "terrible": -3, "threat": -2,
	"tired": -2, "ugly": -3, "unhappy": -2, "unsafe": -2, "upset": -2,
	"useless": -2, "waste": -1, "weak": -2, "worried": -3, "worse": -3,
	"worst": -3, "wrong": -2,
}
