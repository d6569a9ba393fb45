package room

type Permissions string

const (
	PermissionsOpen       Permissions = "open"
	PermissionsRestricted Permissions = "restricted"
)

type User struct {
	Id       string `json:"id"`
	Username string `json:"username"`
}

type Message struct {
	Id        int64  `json:"id"`
	Username  string `json:"username"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
}

type Subtitle struct {
	Content  string `json:"content"`
	FileName string `json:"fileName"`
}

// RoomState is the full snapshot delivered to a joiner. It is the sole
// late-joiner recovery mechanism; there is no incremental catch-up feed.
type RoomState struct {
	Playlist     []string    `json:"playlist"`
	CurrentIndex int         `json:"currentIndex"`
	IsPlaying    bool        `json:"isPlaying"`
	CurrentTime  float64     `json:"currentTime"`
	Users        []User      `json:"users"`
	Messages     []Message   `json:"messages"`
	AdminId      string      `json:"adminId"`
	Permissions  Permissions `json:"permissions"`
	Subtitle     *Subtitle   `json:"subtitle"`
}
