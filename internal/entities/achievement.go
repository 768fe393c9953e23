package entities

import "time"

type AchievementCategory string

const (
	AchievementCategoryLearning AchievementCategory = "learning"
	AchievementCategoryStreak   AchievementCategory = "streak"
	AchievementCategoryExplorer AchievementCategory = "explorer"
)

// Unlock condition types.
const (
	ConditionWordsLearned = "words_learned"
	ConditionStreak       = "streak"
	ConditionFavorites    = "favorites"
)

// UnlockCondition describes the threshold a profile must reach.
type UnlockCondition struct {
	Type      string `json:"type"`
	Threshold int    `json:"threshold"`
}

// Achievement is a static catalog entry seeded at initialization.
type Achievement struct {
	ID              string              `gorm:"primaryKey;size:64" json:"id"`
	Title           string              `gorm:"size:100;not null" json:"title"`
	Description     string              `gorm:"size:255" json:"description"`
	Icon            string              `gorm:"size:32" json:"icon"`
	Category        AchievementCategory `gorm:"size:20" json:"category"`
	XPReward        int                 `gorm:"not null" json:"xpReward"`
	UnlockCondition UnlockCondition     `gorm:"type:text;serializer:json" json:"unlockCondition"`
}

func (Achievement) TableName() string {
	return "achievements"
}

// ProfileAchievement records that a profile unlocked an achievement.
type ProfileAchievement struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	ProfileID     string    `gorm:"size:36;not null;uniqueIndex:idx_profile_achievement" json:"profileId"`
	AchievementID string    `gorm:"size:64;not null;uniqueIndex:idx_profile_achievement" json:"achievementId"`
	UnlockedAt    time.Time `json:"unlockedAt"`
}

func (ProfileAchievement) TableName() string {
	return "profile_achievements"
}
