package models

// Preferences are the candidate filters a user configures during onboarding.
type Preferences struct {
	MinAge        int     `dynamodbav:"minAge" json:"minAge"`
	MaxAge        int     `dynamodbav:"maxAge" json:"maxAge"`
	MaxDistanceKm float64 `dynamodbav:"maxDistanceKm" json:"maxDistanceKm"`
}

// UserProfile defines the structure for user profiles
type UserProfile struct {
	UserID            string         `dynamodbav:"userId" json:"userId"` // Partition Key
	Name              string         `dynamodbav:"name,omitempty" json:"name,omitempty"`
	Age               int            `dynamodbav:"age,omitempty" json:"age,omitempty"`
	Gender            string         `dynamodbav:"gender,omitempty" json:"gender,omitempty"`
	Bio               string         `dynamodbav:"bio,omitempty" json:"bio,omitempty"`
	Interests         []string       `dynamodbav:"interests,omitempty" json:"interests,omitempty"`
	Communities       []string       `dynamodbav:"communities,omitempty" json:"communities,omitempty"`
	PersonalityTraits map[string]int `dynamodbav:"personalityTraits,omitempty" json:"personalityTraits,omitempty"` // named scalar attributes 0-100
	Latitude          float64        `dynamodbav:"latitude,omitempty" json:"latitude,omitempty"`
	Longitude         float64        `dynamodbav:"longitude,omitempty" json:"longitude,omitempty"`
	Preferences       Preferences    `dynamodbav:"preferences" json:"preferences"`
	Photos            []string       `dynamodbav:"photos,omitempty" json:"photos,omitempty"` // ordered photo references
	CreatedAt         string         `dynamodbav:"createdAt,omitempty" json:"createdAt,omitempty"`
}

// Summary is the projection shown on a candidate card.
func (p UserProfile) Summary() ProfileSummary {
	return ProfileSummary{
		UserID: p.UserID,
		Name:   p.Name,
		Age:    p.Age,
		Bio:    p.Bio,
		Photos: p.Photos,
	}
}

// ProfileSummary carries the display fields of a profile.
type ProfileSummary struct {
	UserID string   `json:"userId"`
	Name   string   `json:"name"`
	Age    int      `json:"age"`
	Bio    string   `json:"bio,omitempty"`
	Photos []string `json:"photos,omitempty"`
}

// UserProfilesTable is the DynamoDB table name for user profiles
const UserProfilesTable = "UserProfiles"
