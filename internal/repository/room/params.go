package room

type AddMemberToListParams struct {
	RoomId string
	Member Member
}

type RemoveMemberFromListParams struct {
	RoomId   string
	MemberId string
}

type AddVideoParams struct {
	RoomId   string
	VideoUrl string
}

type RemoveVideoParams struct {
	RoomId string
	Index  int
}

type SetPlayerParams struct {
	RoomId string
	Player Player
}

// UpdatePlayerStateParams patches the checkpoint: nil fields are left
// untouched.
type UpdatePlayerStateParams struct {
	RoomId      string
	IsPlaying   *bool
	CurrentTime *float64
}

type AddMessageParams struct {
	RoomId   string
	Username string
	Message  string
}

type SetSubtitleParams struct {
	RoomId   string
	Subtitle Subtitle
}

type SetAdminParams struct {
	RoomId   string
	MemberId string
}

type SetPermissionsParams struct {
	RoomId      string
	Permissions string
}
