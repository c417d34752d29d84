package models

import (
	"time"
)

type DevicePlatform string

const (
	DevicePlatformAndroid DevicePlatform = "android"
	DevicePlatformIOS     DevicePlatform = "ios"
	DevicePlatformWeb     DevicePlatform = "web"
)

type Device struct {
	Token     string         `json:"token" bson:"token"`
	Platform  DevicePlatform `json:"platform" bson:"platform"`
	UpdatedAt time.Time      `json:"updated_at" bson:"updated_at"`
}

// User is the profile document. Its id is the identity provider's subject,
// so there is no separate account collection.
type User struct {
	ID                string    `json:"id" bson:"_id"`
	Email             string    `json:"email" bson:"email"`
	FullName          string    `json:"full_name" bson:"full_name"`
	Bio               string    `json:"bio" bson:"bio"`
	University        string    `json:"university" bson:"university"`
	Location          string    `json:"location" bson:"location"`
	ProfilePicture    string    `json:"profile_picture,omitempty" bson:"profile_picture,omitempty"`
	ProfilePictureURL string    `json:"profile_picture_url,omitempty" bson:"-"`
	Devices           []Device  `json:"-" bson:"devices,omitempty"`
	CreatedAt         time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt         time.Time `json:"updated_at" bson:"updated_at"`
}

func (u *User) DisplayName() string {
	if u.FullName != "" {
		return u.FullName
	}
	return "Someone"
}
