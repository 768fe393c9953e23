package entities

import "time"

type Gender string

const (
	GenderBoy   Gender = "boy"
	GenderGirl  Gender = "girl"
	GenderOther Gender = "other"
)

// XPPerLevel is the amount of XP between consecutive levels.
const XPPerLevel = 100

// Profile is a child identity owned by this device.
type Profile struct {
	ID             string    `gorm:"primaryKey;size:36" json:"id"`
	Name           string    `gorm:"size:100;not null" json:"name"`
	Age            int       `gorm:"not null" json:"age"`
	Gender         Gender    `gorm:"size:10;not null" json:"gender"`
	AvatarColor    string    `gorm:"size:32" json:"avatarColor,omitempty"`
	AvatarURL      string    `gorm:"size:1024" json:"avatarUrl,omitempty"`
	CurrentLevel   int       `gorm:"not null" json:"currentLevel"`
	TotalXP        int       `gorm:"not null" json:"totalXp"`
	WordsLearned   int       `gorm:"not null" json:"wordsLearned"`
	CreatedAt      time.Time `json:"createdAt"`
	LastActiveAt   time.Time `json:"lastActiveAt"`
	SyncedToRemote bool      `gorm:"not null;index" json:"syncedToRemote"`
	// Revision increases on every local mutation. A push only marks the
	// profile synced if no mutation happened since the snapshot was taken.
	Revision int `gorm:"not null" json:"-"`
}

func (Profile) TableName() string {
	return "profiles"
}

// LevelForXP returns the level reached with the given total XP.
func LevelForXP(totalXP int) int {
	if totalXP < 0 {
		totalXP = 0
	}
	return totalXP/XPPerLevel + 1
}

// WordProgress records how one profile has interacted with one word.
type WordProgress struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	ProfileID    string    `gorm:"size:36;not null;uniqueIndex:idx_progress_profile_word" json:"profileId"`
	Word         string    `gorm:"size:128;not null;uniqueIndex:idx_progress_profile_word" json:"word"`
	TimesViewed  int       `gorm:"not null" json:"timesViewed"`
	IsFavorite   bool      `gorm:"not null;index" json:"isFavorite"`
	LastViewedAt time.Time `json:"lastViewedAt"`
	CreatedAt    time.Time `json:"createdAt"`
}

func (WordProgress) TableName() string {
	return "word_progress"
}

// DailyStreak tracks consecutive days of activity for a profile.
// LastActivityDate is a calendar date in YYYY-MM-DD form.
type DailyStreak struct {
	ID               uint   `gorm:"primaryKey" json:"id"`
	ProfileID        string `gorm:"size:36;not null;uniqueIndex" json:"profileId"`
	StreakCount      int    `gorm:"not null" json:"streakCount"`
	LongestStreak    int    `gorm:"not null" json:"longestStreak"`
	LastActivityDate string `gorm:"size:10" json:"lastActivityDate"`
}

func (DailyStreak) TableName() string {
	return "daily_streak"
}

// RecentSearch is one entry of a profile's search history. An empty
// ProfileID holds searches made while no profile was active.
type RecentSearch struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	ProfileID  string    `gorm:"size:36;not null;index:idx_recent_owner" json:"profileId,omitempty"`
	Word       string    `gorm:"size:128;not null" json:"word"`
	SearchedAt time.Time `gorm:"index:idx_recent_owner" json:"searchedAt"`
}

func (RecentSearch) TableName() string {
	return "recent_searches"
}
