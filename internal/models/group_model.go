package models

import (
	"time"

	"google.golang.org/genproto/googleapis/type/latlng"
)

// Group is a document in the `groups` collection.
type Group struct {
	GID            string         `json:"gid" firestore:"gid"`
	Name           string         `json:"name" firestore:"name"`
	ChallengeTitle string         `json:"challengeTitle" firestore:"challengeTitle"`
	Members        []string       `json:"members" firestore:"members"`
	UpdateDate     time.Time      `json:"updateDate" firestore:"updateDate"`
	Location       *latlng.LatLng `json:"location,omitempty" firestore:"location"`
	Radius         float64        `json:"radius" firestore:"radius"` // metres
}
