package store

import "slices"

// Live holds the three mutually exclusive AV mode flags.
type Live struct {
	Recording    bool `json:"recording"`
	Previewing   bool `json:"previewing"`
	Broadcasting bool `json:"broadcasting"`
}

// Video tracks background processing of the most recent recording.
type Video struct {
	Converting    bool   `json:"converting"`
	Reading       bool   `json:"reading"`
	Read          bool   `json:"read"`
	Uploading     bool   `json:"uploading"`
	RequestedPath string `json:"requested_path,omitempty"`
	ReceivedPath  string `json:"received_path,omitempty"`
	UploadedURL   string `json:"uploaded_url,omitempty"`
	LastError     string `json:"last_error,omitempty"`
}

// Preferences are the capture settings bundled into backend commands.
type Preferences struct {
	CameraIndex      int    `json:"camera_index"`
	PreviewIndex     int    `json:"preview_index"`
	RecordLocation   string `json:"record_location"`
	StitcherLocation string `json:"stitcher_location"`
	StreamURL        string `json:"stream_url"`
	Width            int    `json:"width"`
	Height           int    `json:"height"`
	// Location is the default save location handed to the uploader.
	Location string `json:"location"`
}

// State is an immutable snapshot of the application store.
type State struct {
	Live        Live        `json:"live"`
	Video       Video       `json:"video"`
	Preferences Preferences `json:"preferences"`
	Devices     []string    `json:"devices,omitempty"`
}

// Equal reports whether two snapshots hold the same values.
func (s State) Equal(other State) bool {
	return s.Live == other.Live &&
		s.Video == other.Video &&
		s.Preferences == other.Preferences &&
		slices.Equal(s.Devices, other.Devices)
}
