package room

// Member is one entry of a room's ordered member list. Slice order is join
// order and is what admin reassignment relies on.
type Member struct {
	Id       string
	Username string
}

// Player is the room's playback checkpoint. CurrentTime is the last value
// any client reported, never advanced server-side.
type Player struct {
	CurrentIndex int
	IsPlaying    bool
	CurrentTime  float64
}

type Message struct {
	Id        int64
	Username  string
	Message   string
	Timestamp string
}

type Subtitle struct {
	Content  string
	FileName string
}
