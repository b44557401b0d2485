package models

// HomeFeed aggregates what the home screen shows.
type HomeFeed struct {
	UserIsGuest           bool                 `json:"userIsGuest"`
	ChallengeDescription  ChallengeDescription `json:"challengeDescription"`
	Challenges            []*Challenge         `json:"challenges"`
	ChallengesFromFriends []*Challenge         `json:"challengesFromFriends"`
	Groups                []*Group             `json:"groups"`
}

// MapView is what the map screen shows.
type MapView struct {
	DefaultCenter Point        `json:"defaultCenter"`
	Challenges    []*Challenge `json:"challenges"`
}

// FriendStatus describes the relation between the caller and another user.
type FriendStatus struct {
	IsFriend    bool `json:"isFriend"`
	IsRequested bool `json:"isRequested"`
}
