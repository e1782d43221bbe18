package domain

import "strings"

// Membership tiers.
const (
	TierBasic   = "BASIC"
	TierPro     = "PRO"
	TierVIP     = "VIP"
	TierPremium = "PREMIUM"
)

// Stats is the rider's usage statistics sub-record.
// TotalDistance is kept as a string because clients format it with units.
type Stats struct {
	TotalDistance string `json:"totalDistance" dynamodbav:"total_distance"`
	TotalRides    int    `json:"totalRides" dynamodbav:"total_rides"`
	GroupRides    int    `json:"groupRides" dynamodbav:"group_rides"`
	Followers     int    `json:"followers" dynamodbav:"followers"`
	Following     int    `json:"following" dynamodbav:"following"`
}

// Profile is the application-level user record, distinct from Identity.
type Profile struct {
	UID        string `json:"uid" dynamodbav:"uid"`
	Name       string `json:"name" dynamodbav:"name"`
	Email      string `json:"email" dynamodbav:"email"`
	Avatar     string `json:"avatar" dynamodbav:"avatar"`
	Verified   bool   `json:"verified" dynamodbav:"verified"`
	Level      string `json:"level" dynamodbav:"level"`
	Bio        string `json:"bio,omitempty" dynamodbav:"bio"`
	Location   string `json:"location,omitempty" dynamodbav:"location"`
	Motorcycle string `json:"motorcycle,omitempty" dynamodbav:"motorcycle"`
	Stats      Stats  `json:"stats" dynamodbav:"stats"`
}

// CanMessage reports whether the tier unlocks private messaging.
func (p *Profile) CanMessage() bool {
	switch p.Level {
	case TierPro, TierVIP, TierPremium:
		return true
	}
	return false
}

// FallbackProfile synthesizes a profile from the identity alone. Used when the
// profile store cannot be reached or has no record yet.
func FallbackProfile(id *Identity) *Profile {
	name := id.DisplayName
	if name == "" {
		name = localPart(id.Email)
	}
	return &Profile{
		UID:      id.UID,
		Name:     name,
		Email:    id.Email,
		Avatar:   id.PhotoURL,
		Verified: id.EmailVerified,
		Level:    TierBasic,
		Stats:    Stats{TotalDistance: "0"},
	}
}

func localPart(email string) string {
	name, _, _ := strings.Cut(email, "@")
	return name
}

// Profile attribute names used in partial merge maps.
const (
	FieldName       = "name"
	FieldAvatar     = "avatar"
	FieldVerified   = "verified"
	FieldLevel      = "level"
	FieldBio        = "bio"
	FieldLocation   = "location"
	FieldMotorcycle = "motorcycle"
	FieldStats      = "stats"
)

// ProfileUpdate is a partial profile; nil fields are left untouched.
type ProfileUpdate struct {
	Name       *string `json:"name" validate:"omitempty,max=64"`
	Avatar     *string `json:"avatar" validate:"omitempty,url"`
	Verified   *bool   `json:"verified"`
	Level      *string `json:"level" validate:"omitempty,oneof=BASIC PRO VIP PREMIUM"`
	Bio        *string `json:"bio" validate:"omitempty,max=280"`
	Location   *string `json:"location"`
	Motorcycle *string `json:"motorcycle"`
	Stats      *Stats  `json:"stats"`
}

// Empty reports whether no field is set.
func (u ProfileUpdate) Empty() bool {
	return len(u.Fields()) == 0
}

// Fields converts the update into the attribute map used by the profile store.
func (u ProfileUpdate) Fields() map[string]interface{} {
	fields := map[string]interface{}{}
	if u.Name != nil {
		fields[FieldName] = *u.Name
	}
	if u.Avatar != nil {
		fields[FieldAvatar] = *u.Avatar
	}
	if u.Verified != nil {
		fields[FieldVerified] = *u.Verified
	}
	if u.Level != nil {
		fields[FieldLevel] = *u.Level
	}
	if u.Bio != nil {
		fields[FieldBio] = *u.Bio
	}
	if u.Location != nil {
		fields[FieldLocation] = *u.Location
	}
	if u.Motorcycle != nil {
		fields[FieldMotorcycle] = *u.Motorcycle
	}
	if u.Stats != nil {
		fields[FieldStats] = *u.Stats
	}
	return fields
}

// Apply returns a copy of p with the update merged in.
func (u ProfileUpdate) Apply(p Profile) Profile {
	if u.Name != nil {
		p.Name = *u.Name
	}
	if u.Avatar != nil {
		p.Avatar = *u.Avatar
	}
	if u.Verified != nil {
		p.Verified = *u.Verified
	}
	if u.Level != nil {
		p.Level = *u.Level
	}
	if u.Bio != nil {
		p.Bio = *u.Bio
	}
	if u.Location != nil {
		p.Location = *u.Location
	}
	if u.Motorcycle != nil {
		p.Motorcycle = *u.Motorcycle
	}
	if u.Stats != nil {
		p.Stats = *u.Stats
	}
	return p
}
