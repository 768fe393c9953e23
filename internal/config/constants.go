package config

// Default paths and endpoints
const (
	// DefaultDatabasePath is the default path for the on-device dictionary database
	DefaultDatabasePath = "./kidopedia.db"

	// DefaultSeedPath is the default path for the bundled starter word list
	DefaultSeedPath = "./data/seed_words.json"

	// DefaultFreeDictionaryURL is the public dictionary API used by the freedictionary provider
	DefaultFreeDictionaryURL = "https://api.dictionaryapi.dev/api/v2/entries/en"
)
