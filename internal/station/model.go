package station

import "time"

// Track is a library entry. Tracks are immutable once created; queue items
// reference them by id.
type Track struct {
	ID       int64   `json:"id"`
	Title    string  `json:"title"`
	Artist   string  `json:"artist"`
	Album    *string `json:"album"`
	Duration string  `json:"duration"`
	Bitrate  string  `json:"bitrate"`
	Genre    *string `json:"genre"`
	AlbumArt *string `json:"albumArt"`
	FilePath *string `json:"filePath"`
}

// NewTrack is the insertable shape of a Track.
type NewTrack struct {
	Title    string  `json:"title"`
	Artist   string  `json:"artist"`
	Album    *string `json:"album"`
	Duration string  `json:"duration"`
	Bitrate  string  `json:"bitrate"`
	Genre    *string `json:"genre"`
	AlbumArt *string `json:"albumArt"`
	FilePath *string `json:"filePath"`
}

// QueueItem is one row of the request queue. Position is the ordering key;
// RequestedBy is nil for dashboard-originated entries.
type QueueItem struct {
	ID          int64     `json:"id"`
	TrackID     int64     `json:"trackId"`
	Position    int64     `json:"position"`
	RequestedBy *string   `json:"requestedBy"`
	RequestedAt time.Time `json:"requestedAt"`
	IsPlaying   bool      `json:"isPlaying"`
}

// QueueEntry is a QueueItem joined with its track, the shape the dashboard
// consumes.
type QueueEntry struct {
	QueueItem
	Track Track `json:"track"`
}

type ChatMessage struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
	IsBot     bool      `json:"isBot"`
}

type Comment struct {
	ID        int64     `json:"id"`
	Author    string    `json:"author"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
	Likes     int64     `json:"likes"`
}

// RadioState is the playback singleton. There is exactly one row (id=1),
// created lazily on first read.
type RadioState struct {
	ID             int64  `json:"id"`
	IsPlaying      bool   `json:"isPlaying"`
	CurrentTrackID *int64 `json:"currentTrackId"`
	Volume         int    `json:"volume"`
	ListenerCount  int    `json:"listenerCount"`
	IRCConnected   bool   `json:"ircConnected"`
	IRCChannel     string `json:"ircChannel"`
	IRCUserCount   int    `json:"ircUserCount"`
}

// RadioStatePatch is a partial update of RadioState. Nil fields keep their
// prior value.
type RadioStatePatch struct {
	IsPlaying      *bool   `json:"isPlaying"`
	CurrentTrackID *int64  `json:"currentTrackId"`
	Volume         *int    `json:"volume"`
	ListenerCount  *int    `json:"listenerCount"`
	IRCConnected   *bool   `json:"ircConnected"`
	IRCChannel     *string `json:"ircChannel"`
	IRCUserCount   *int    `json:"ircUserCount"`
}

// Apply merges the patch over s in place.
func (p RadioStatePatch) Apply(s *RadioState) {
	if p.IsPlaying != nil {
		s.IsPlaying = *p.IsPlaying
	}
	if p.CurrentTrackID != nil {
		s.CurrentTrackID = p.CurrentTrackID
	}
	if p.Volume != nil {
		s.Volume = *p.Volume
	}
	if p.ListenerCount != nil {
		s.ListenerCount = *p.ListenerCount
	}
	if p.IRCConnected != nil {
		s.IRCConnected = *p.IRCConnected
	}
	if p.IRCChannel != nil {
		s.IRCChannel = *p.IRCChannel
	}
	if p.IRCUserCount != nil {
		s.IRCUserCount = *p.IRCUserCount
	}
}

// StationSettings is the per-station configuration singleton (id=1).
type StationSettings struct {
	ID                 int64     `json:"id"`
	StationName        string    `json:"stationName"`
	Tagline            string    `json:"tagline"`
	IcecastServer      string    `json:"icecastServer"`
	MaxBitrate         int       `json:"maxBitrate"`
	AutoPlay           bool      `json:"autoPlay"`
	AllowRequests      bool      `json:"allowRequests"`
	MaxRequestsPerUser int       `json:"maxRequestsPerUser"`
	Theme              string    `json:"theme"`
	UpdatedAt          time.Time `json:"updatedAt"`
}

type StationSettingsPatch struct {
	StationName        *string `json:"stationName"`
	Tagline            *string `json:"tagline"`
	IcecastServer      *string `json:"icecastServer"`
	MaxBitrate         *int    `json:"maxBitrate"`
	AutoPlay           *bool   `json:"autoPlay"`
	AllowRequests      *bool   `json:"allowRequests"`
	MaxRequestsPerUser *int    `json:"maxRequestsPerUser"`
	Theme              *string `json:"theme"`
}

func (p StationSettingsPatch) Apply(s *StationSettings) {
	if p.StationName != nil {
		s.StationName = *p.StationName
	}
	if p.Tagline != nil {
		s.Tagline = *p.Tagline
	}
	if p.IcecastServer != nil {
		s.IcecastServer = *p.IcecastServer
	}
	if p.MaxBitrate != nil {
		s.MaxBitrate = *p.MaxBitrate
	}
	if p.AutoPlay != nil {
		s.AutoPlay = *p.AutoPlay
	}
	if p.AllowRequests != nil {
		s.AllowRequests = *p.AllowRequests
	}
	if p.MaxRequestsPerUser != nil {
		s.MaxRequestsPerUser = *p.MaxRequestsPerUser
	}
	if p.Theme != nil {
		s.Theme = *p.Theme
	}
}

// User is an operator/listener account. Roles: admin, moderator, dj, listener.
type User struct {
	ID        int64      `json:"id"`
	Username  string     `json:"username"`
	Email     string     `json:"email"`
	Role      string     `json:"role"`
	IsActive  bool       `json:"isActive"`
	LastLogin *time.Time `json:"lastLogin"`
	CreatedAt time.Time  `json:"createdAt"`
}

type NewUser struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     string `json:"role"`
}

type UserPatch struct {
	Username  *string    `json:"username"`
	Email     *string    `json:"email"`
	Role      *string    `json:"role"`
	IsActive  *bool      `json:"isActive"`
	LastLogin *time.Time `json:"lastLogin"`
}

func (p UserPatch) Apply(u *User) {
	if p.Username != nil {
		u.Username = *p.Username
	}
	if p.Email != nil {
		u.Email = *p.Email
	}
	if p.Role != nil {
		u.Role = *p.Role
	}
	if p.IsActive != nil {
		u.IsActive = *p.IsActive
	}
	if p.LastLogin != nil {
		u.LastLogin = p.LastLogin
	}
}

// TrackRequest is the transient toast payload broadcast when a relay request
// lands in the queue. It is never persisted.
type TrackRequest struct {
	Username string `json:"username"`
	Track    string `json:"track"`
	Artist   string `json:"artist"`
}
