package contentfilter

import "regexp"

// blockedWords is ordered from most to least explicit. Teenagers only get
// the first teenBlockedCount entries.
var blockedWords = []string{
	"sex", "sexy", "porn", "xxx", "nude", "naked", "dick", "cock", "pussy", "vagina", "penis",
	"fuck", "shit", "damn", "hell", "ass", "bitch", "bastard", "crap", "piss", "slut", "whore",
	"drug", "cocaine", "heroin", "meth", "weed", "marijuana", "alcohol", "beer", "wine", "vodka",
	"kill", "murder", "suicide", "death", "die", "gun", "weapon", "bomb", "terrorist",
	"rape", "abuse", "violence", "blood", "gore", "horror",
}

const teenBlockedCount = 20

type category struct {
	name       string
	wordReason string
	textReason string
	pattern    *regexp.Regexp
}

func compileCategory(name, wordReason, textReason string, alternatives []string) category {
	expr := `(?i)\b(`
	for i, alt := range alternatives {
		if i > 0 {
			expr += "|"
		}
		expr += alt
	}
	expr += `)\b`
	return category{
		name:       name,
		wordReason: wordReason,
		textReason: textReason,
		pattern:    regexp.MustCompile(expr),
	}
}

var categories = []category{
	compileCategory("adult", "Adult content detected", "Adult content in definition", []string{
		`sex|sexual|sexually`,
		`porn|pornography|pornographic`,
		`nude|naked|nudity`,
		`erotic|erotica`,
		`adult\s+content|mature\s+content`,
		`explicit|nsfw`,
		`genitals?|genitalia`,
		`intercourse|copulation`,
		`masturbat(?:e|ion|ing)`,
		`orgasm|climax`,
		`fetish|kink`,
	}),
	compileCategory("violence", "Violent content detected", "Violent content in definition", []string{
		`kill(?:ing|ed)?|murder(?:ed|ing)?|assassination`,
		`suicide|suicidal`,
		`weapon|gun|rifle|pistol|firearm`,
		`bomb|explosive|grenade`,
		`terrorist|terrorism`,
		`torture|torturing|tortured`,
		`gore|gory|bloody`,
	}),
	compileCategory("drug", "Drug-related content detected", "Drug-related content in definition", []string{
		`drug|narcotic|substance\s+abuse`,
		`cocaine|heroin|methamphetamine|ecstasy`,
		`marijuana|cannabis|weed|pot`,
		`alcohol|alcoholic|intoxicated|drunk`,
		`smoking|cigarette|tobacco`,
		`injection|needle|syringe`,
	}),
}
