package store

// IsRecording reports whether the user currently intends to record.
func IsRecording(s State) bool { return s.Live.Recording }

// IsPreviewing reports whether the preview mode is on.
func IsPreviewing(s State) bool { return s.Live.Previewing }

// IsBroadcasting reports whether the live stream mode is on.
func IsBroadcasting(s State) bool { return s.Live.Broadcasting }

// IsConverting reports whether the backend is post-processing a recording.
func IsConverting(s State) bool { return s.Video.Converting }

// IsReading reports whether a processed file has been requested but not received.
func IsReading(s State) bool { return s.Video.Reading }

// IsRead reports whether a received file is waiting to be uploaded.
func IsRead(s State) bool { return s.Video.Read }

// IsUploading reports whether an upload is in flight.
func IsUploading(s State) bool { return s.Video.Uploading }

// IsUploadPending is true while a file is being fetched, held, or uploaded.
func IsUploadPending(s State) bool {
	return IsReading(s) || IsRead(s) || IsUploading(s)
}

// ActiveModes counts how many of the three AV modes are on.
func ActiveModes(s State) int {
	n := 0
	for _, on := range []bool{s.Live.Recording, s.Live.Previewing, s.Live.Broadcasting} {
		if on {
			n++
		}
	}
	return n
}

func CameraIndex(s State) int         { return s.Preferences.CameraIndex }
func PreviewIndex(s State) int        { return s.Preferences.PreviewIndex }
func RecordLocation(s State) string   { return s.Preferences.RecordLocation }
func StitcherLocation(s State) string { return s.Preferences.StitcherLocation }
func StreamURL(s State) string        { return s.Preferences.StreamURL }
func Width(s State) int               { return s.Preferences.Width }
func Height(s State) int              { return s.Preferences.Height }
func Location(s State) string         { return s.Preferences.Location }
